package match

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	ID int64
}

// funcHandler is a test helper that wraps a function.
type funcHandler[T any] struct {
	fn func(T)
}

func (h *funcHandler[T]) OnEvent(e T) {
	h.fn(e)
}

func TestRingBufferBasicOperations(t *testing.T) {
	var processed []int64
	var mu sync.Mutex

	handler := &funcHandler[testEvent]{
		fn: func(e testEvent) {
			mu.Lock()
			processed = append(processed, e.ID)
			mu.Unlock()
		},
	}

	rb := NewRingBuffer[testEvent](16, handler)
	rb.Start()

	for i := int64(1); i <= 10; i++ {
		rb.Publish(testEvent{ID: i})
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := rb.Shutdown(ctx)
	require.NoError(t, err)

	// All events processed in publish order.
	require.Len(t, processed, 10)
	for i := int64(1); i <= 10; i++ {
		assert.Equal(t, i, processed[i-1])
	}
}

func TestRingBufferPublishAfterShutdown(t *testing.T) {
	var count atomic.Int64
	handler := &funcHandler[testEvent]{fn: func(testEvent) { count.Add(1) }}

	rb := NewRingBuffer[testEvent](16, handler)
	rb.Start()
	require.NoError(t, rb.Shutdown(context.Background()))

	// Dropped silently.
	rb.Publish(testEvent{ID: 1})

	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int64(0), count.Load())
}

func TestRingBufferPendingEvents(t *testing.T) {
	blockCh := make(chan struct{})
	handler := &funcHandler[testEvent]{
		fn: func(testEvent) {
			<-blockCh
		},
	}

	rb := NewRingBuffer[testEvent](16, handler)
	rb.Start()

	for i := 0; i < 5; i++ {
		rb.Publish(testEvent{ID: int64(i)})
	}

	time.Sleep(10 * time.Millisecond)
	assert.GreaterOrEqual(t, rb.PendingEvents(), int64(4))

	close(blockCh)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = rb.Shutdown(ctx)

	assert.Equal(t, int64(0), rb.PendingEvents())
}

func TestRingBufferSequenceMonitoring(t *testing.T) {
	handler := &funcHandler[testEvent]{fn: func(testEvent) {}}
	rb := NewRingBuffer[testEvent](16, handler)

	assert.Equal(t, int64(-1), rb.ProducerSequence())
	assert.Equal(t, int64(-1), rb.ConsumerSequence())

	rb.Start()

	for i := 0; i < 3; i++ {
		rb.Publish(testEvent{ID: int64(i)})
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = rb.Shutdown(ctx)

	assert.Equal(t, int64(2), rb.ProducerSequence())
	assert.Equal(t, int64(2), rb.ConsumerSequence())
}

func TestRingBufferShutdownTimeout(t *testing.T) {
	handler := &funcHandler[testEvent]{
		fn: func(testEvent) {
			time.Sleep(10 * time.Second)
		},
	}

	rb := NewRingBuffer[testEvent](16, handler)
	rb.Start()
	rb.Publish(testEvent{ID: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := rb.Shutdown(ctx)
	assert.ErrorIs(t, err, ErrDisruptorTimeout)
}

func TestRingBufferConcurrentPublish(t *testing.T) {
	var count atomic.Int64
	handler := &funcHandler[testEvent]{fn: func(testEvent) { count.Add(1) }}

	rb := NewRingBuffer[testEvent](1024, handler)
	rb.Start()

	const numPublishers = 10
	const eventsPerPublisher = 100

	var wg sync.WaitGroup
	wg.Add(numPublishers)

	for i := 0; i < numPublishers; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < eventsPerPublisher; j++ {
				rb.Publish(testEvent{ID: int64(id*eventsPerPublisher + j)})
			}
		}(i)
	}

	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := rb.Shutdown(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(numPublishers*eventsPerPublisher), count.Load())
}

func TestRingBufferCapacityValidation(t *testing.T) {
	handler := &funcHandler[testEvent]{fn: func(testEvent) {}}

	assert.Panics(t, func() {
		NewRingBuffer[testEvent](15, handler)
	})

	assert.Panics(t, func() {
		NewRingBuffer[testEvent](0, handler)
	})

	assert.Panics(t, func() {
		NewRingBuffer[testEvent](-1, handler)
	})

	assert.NotPanics(t, func() {
		NewRingBuffer[testEvent](16, handler)
	})
}
