package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestBook builds a book with three resting levels on each side:
// bids 90/80/70, asks 110/120/130, one order of size 10 per level.
func createTestBook(t *testing.T) *Book {
	t.Helper()

	book := NewBook()

	book.AddOrder(NewOrder(GoodTillCancel, 1, Buy, 10, 90))
	book.AddOrder(NewOrder(GoodTillCancel, 2, Buy, 10, 80))
	book.AddOrder(NewOrder(GoodTillCancel, 3, Buy, 10, 70))
	book.AddOrder(NewOrder(GoodTillCancel, 4, Sell, 10, 110))
	book.AddOrder(NewOrder(GoodTillCancel, 5, Sell, 10, 120))
	book.AddOrder(NewOrder(GoodTillCancel, 6, Sell, 10, 130))

	require.Equal(t, int64(6), book.OrderCount())
	return book
}

func TestAddOrderRests(t *testing.T) {
	book := NewBook()

	trades := book.AddOrder(NewOrder(GoodTillCancel, 1, Buy, 10, 100))
	assert.Empty(t, trades)
	assert.Equal(t, int64(1), book.OrderCount())

	order := book.Order(1)
	require.NotNil(t, order)
	assert.Equal(t, Price(100), order.Price)
	assert.Equal(t, Quantity(10), order.RemainingQuantity)
	assert.Equal(t, Quantity(0), order.FilledQuantity())
}

func TestDuplicateOrderID(t *testing.T) {
	book := NewBook()

	book.AddOrder(NewOrder(GoodTillCancel, 1, Buy, 10, 100))
	trades := book.AddOrder(NewOrder(GoodTillCancel, 1, Sell, 5, 100))

	assert.Empty(t, trades)
	assert.Equal(t, int64(1), book.OrderCount())

	// The original order is untouched.
	order := book.Order(1)
	require.NotNil(t, order)
	assert.Equal(t, Buy, order.Side)
	assert.Equal(t, Quantity(10), order.RemainingQuantity)
}

func TestFullMatch(t *testing.T) {
	book := NewBook()

	book.AddOrder(NewOrder(GoodTillCancel, 1, Sell, 10, 100))
	trades := book.AddOrder(NewOrder(GoodTillCancel, 2, Buy, 10, 105))

	require.Len(t, trades, 1)
	assert.Equal(t, OrderID(2), trades[0].Bid.OrderID)
	assert.Equal(t, OrderID(1), trades[0].Ask.OrderID)
	assert.Equal(t, Quantity(10), trades[0].Bid.Quantity)
	assert.Equal(t, Quantity(10), trades[0].Ask.Quantity)

	// Each leg carries its own order's limit price.
	assert.Equal(t, Price(105), trades[0].Bid.Price)
	assert.Equal(t, Price(100), trades[0].Ask.Price)

	// Both orders are gone.
	assert.Equal(t, int64(0), book.OrderCount())
	assert.Nil(t, book.Order(1))
	assert.Nil(t, book.Order(2))
}

func TestPartialFill(t *testing.T) {
	book := NewBook()

	book.AddOrder(NewOrder(GoodTillCancel, 1, Sell, 10, 100))
	trades := book.AddOrder(NewOrder(GoodTillCancel, 2, Buy, 4, 100))

	require.Len(t, trades, 1)
	assert.Equal(t, Quantity(4), trades[0].Bid.Quantity)

	// The resting order keeps its remainder, the taker is fully filled.
	ask := book.Order(1)
	require.NotNil(t, ask)
	assert.Equal(t, Quantity(6), ask.RemainingQuantity)
	assert.Equal(t, Quantity(4), ask.FilledQuantity())
	assert.Nil(t, book.Order(2))
}

func TestTakerRemainderRests(t *testing.T) {
	book := NewBook()

	book.AddOrder(NewOrder(GoodTillCancel, 1, Sell, 4, 100))
	trades := book.AddOrder(NewOrder(GoodTillCancel, 2, Buy, 10, 100))

	require.Len(t, trades, 1)
	assert.Equal(t, Quantity(4), trades[0].Bid.Quantity)

	bid := book.Order(2)
	require.NotNil(t, bid)
	assert.Equal(t, Quantity(6), bid.RemainingQuantity)

	levels := book.Levels()
	require.Len(t, levels.Bids, 1)
	assert.Empty(t, levels.Asks)
	assert.Equal(t, LevelInfo{Price: 100, Quantity: 6}, levels.Bids[0])
}

func TestMultiLevelSweep(t *testing.T) {
	book := createTestBook(t)

	// A large buy walks the ask ladder from the best level up.
	trades := book.AddOrder(NewOrder(GoodTillCancel, 7, Buy, 25, 125))

	require.Len(t, trades, 2)
	assert.Equal(t, OrderID(4), trades[0].Ask.OrderID)
	assert.Equal(t, Price(110), trades[0].Ask.Price)
	assert.Equal(t, Quantity(10), trades[0].Ask.Quantity)
	assert.Equal(t, OrderID(5), trades[1].Ask.OrderID)
	assert.Equal(t, Price(120), trades[1].Ask.Price)
	assert.Equal(t, Quantity(10), trades[1].Ask.Quantity)

	// 5 remaining at 125: ask at 130 does not cross, so the remainder rests.
	bid := book.Order(7)
	require.NotNil(t, bid)
	assert.Equal(t, Quantity(5), bid.RemainingQuantity)

	levels := book.Levels()
	require.Len(t, levels.Asks, 1)
	assert.Equal(t, Price(130), levels.Asks[0].Price)
	require.Len(t, levels.Bids, 4)
	assert.Equal(t, Price(125), levels.Bids[0].Price)
}

func TestTimePriority(t *testing.T) {
	book := NewBook()

	// Two asks at the same level: the older one fills first.
	book.AddOrder(NewOrder(GoodTillCancel, 1, Sell, 5, 100))
	book.AddOrder(NewOrder(GoodTillCancel, 2, Sell, 5, 100))

	trades := book.AddOrder(NewOrder(GoodTillCancel, 3, Buy, 7, 100))

	require.Len(t, trades, 2)
	assert.Equal(t, OrderID(1), trades[0].Ask.OrderID)
	assert.Equal(t, Quantity(5), trades[0].Ask.Quantity)
	assert.Equal(t, OrderID(2), trades[1].Ask.OrderID)
	assert.Equal(t, Quantity(2), trades[1].Ask.Quantity)

	assert.Nil(t, book.Order(1))
	remaining := book.Order(2)
	require.NotNil(t, remaining)
	assert.Equal(t, Quantity(3), remaining.RemainingQuantity)
}

func TestCanMatch(t *testing.T) {
	book := createTestBook(t)

	assert.True(t, book.CanMatch(Buy, 110))
	assert.True(t, book.CanMatch(Buy, 200))
	assert.False(t, book.CanMatch(Buy, 109))
	assert.True(t, book.CanMatch(Sell, 90))
	assert.True(t, book.CanMatch(Sell, 1))
	assert.False(t, book.CanMatch(Sell, 91))

	empty := NewBook()
	assert.False(t, empty.CanMatch(Buy, 1000))
	assert.False(t, empty.CanMatch(Sell, 1))
}

func TestFillAndKillRejectedWhenNotCrossing(t *testing.T) {
	book := createTestBook(t)

	trades := book.AddOrder(NewOrder(FillAndKill, 7, Buy, 5, 100))

	assert.Empty(t, trades)
	assert.Nil(t, book.Order(7))
	assert.Equal(t, int64(6), book.OrderCount())
}

func TestFillAndKillRemainderKilled(t *testing.T) {
	book := NewBook()

	book.AddOrder(NewOrder(GoodTillCancel, 1, Sell, 4, 100))
	trades := book.AddOrder(NewOrder(FillAndKill, 2, Buy, 10, 100))

	require.Len(t, trades, 1)
	assert.Equal(t, Quantity(4), trades[0].Bid.Quantity)

	// The remaining 6 never rest.
	assert.Nil(t, book.Order(2))
	assert.Equal(t, int64(0), book.OrderCount())
}

func TestFillAndKillFullyFilled(t *testing.T) {
	book := NewBook()

	book.AddOrder(NewOrder(GoodTillCancel, 1, Sell, 10, 100))
	trades := book.AddOrder(NewOrder(FillAndKill, 2, Buy, 10, 100))

	require.Len(t, trades, 1)
	assert.Equal(t, Quantity(10), trades[0].Bid.Quantity)
	assert.Equal(t, int64(0), book.OrderCount())
}

func TestCancelOrder(t *testing.T) {
	book := createTestBook(t)

	order := book.CancelOrder(2)
	require.NotNil(t, order)
	assert.Equal(t, OrderID(2), order.ID)
	assert.Equal(t, int64(5), book.OrderCount())
	assert.Nil(t, book.Order(2))

	// Cancelling again, or an unknown ID, is a no-op.
	assert.Nil(t, book.CancelOrder(2))
	assert.Nil(t, book.CancelOrder(999))
	assert.Equal(t, int64(5), book.OrderCount())
}

func TestCancelRemovesDrainedLevel(t *testing.T) {
	book := NewBook()

	book.AddOrder(NewOrder(GoodTillCancel, 1, Buy, 10, 100))
	book.CancelOrder(1)

	levels := book.Levels()
	assert.Empty(t, levels.Bids)
	assert.Empty(t, levels.Asks)

	// A sell at 100 must not match against the vacated level.
	assert.False(t, book.CanMatch(Sell, 100))
}

func TestModifyOrderLosesPriority(t *testing.T) {
	book := NewBook()

	book.AddOrder(NewOrder(GoodTillCancel, 1, Sell, 5, 100))
	book.AddOrder(NewOrder(GoodTillCancel, 2, Sell, 5, 100))

	// Amending order 1 re-queues it behind order 2 at the same level.
	trades := book.ModifyOrder(OrderModify{OrderID: 1, Side: Sell, Quantity: 5, Price: 100})
	assert.Empty(t, trades)

	matched := book.AddOrder(NewOrder(GoodTillCancel, 3, Buy, 5, 100))
	require.Len(t, matched, 1)
	assert.Equal(t, OrderID(2), matched[0].Ask.OrderID)
}

func TestModifyOrderRepricesAndMatches(t *testing.T) {
	book := createTestBook(t)

	// Moving bid 3 from 70 up to 110 crosses the best ask.
	trades := book.ModifyOrder(OrderModify{OrderID: 3, Side: Buy, Quantity: 10, Price: 110})

	require.Len(t, trades, 1)
	assert.Equal(t, OrderID(3), trades[0].Bid.OrderID)
	assert.Equal(t, OrderID(4), trades[0].Ask.OrderID)
	assert.Equal(t, Quantity(10), trades[0].Bid.Quantity)

	assert.Nil(t, book.Order(3))
	assert.Nil(t, book.Order(4))
}

func TestModifyUnknownOrder(t *testing.T) {
	book := createTestBook(t)

	trades := book.ModifyOrder(OrderModify{OrderID: 999, Side: Buy, Quantity: 10, Price: 110})
	assert.Empty(t, trades)
	assert.Equal(t, int64(6), book.OrderCount())
}

func TestLevels(t *testing.T) {
	book := createTestBook(t)

	// Another order on an existing level aggregates into it.
	book.AddOrder(NewOrder(GoodTillCancel, 7, Buy, 5, 90))

	levels := book.Levels()
	require.Len(t, levels.Bids, 3)
	require.Len(t, levels.Asks, 3)

	assert.Equal(t, LevelInfo{Price: 90, Quantity: 15}, levels.Bids[0])
	assert.Equal(t, LevelInfo{Price: 80, Quantity: 10}, levels.Bids[1])
	assert.Equal(t, LevelInfo{Price: 70, Quantity: 10}, levels.Bids[2])
	assert.Equal(t, LevelInfo{Price: 110, Quantity: 10}, levels.Asks[0])
	assert.Equal(t, LevelInfo{Price: 120, Quantity: 10}, levels.Asks[1])
	assert.Equal(t, LevelInfo{Price: 130, Quantity: 10}, levels.Asks[2])
}

func TestBookNeverCrossed(t *testing.T) {
	book := createTestBook(t)

	book.AddOrder(NewOrder(GoodTillCancel, 7, Buy, 35, 200))
	book.AddOrder(NewOrder(GoodTillCancel, 8, Sell, 35, 50))

	levels := book.Levels()
	if len(levels.Bids) > 0 && len(levels.Asks) > 0 {
		assert.Less(t, levels.Bids[0].Price, levels.Asks[0].Price)
	}
}

func TestOverfillPanics(t *testing.T) {
	order := NewOrder(GoodTillCancel, 1, Buy, 5, 100)

	assert.PanicsWithValue(t, "order 1: fill 6 exceeds remaining 5", func() {
		order.Fill(6)
	})
}
