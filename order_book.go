package match

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/xid"
	"github.com/shopspring/decimal"

	"github.com/openexch/matching-engine/protocol"
)

// inputEvent is the internal wrapper for everything entering the OrderBook
// actor: either an external command envelope, or a synchronous query with a
// response channel.
type inputEvent struct {
	cmd *protocol.Command

	query any
	resp  chan any
}

// snapshotRequest asks the consumer loop for a consistent snapshot.
type snapshotRequest struct{}

// OrderBookOption configures an OrderBook.
type OrderBookOption func(*OrderBook)

// WithTickSize sets the tick size used to convert decimal prices on the
// wire into the integer ticks the matching core operates on.
func WithTickSize(tickSize decimal.Decimal) OrderBookOption {
	return func(ob *OrderBook) {
		if tickSize.Sign() > 0 {
			ob.tickSize = tickSize
		}
	}
}

// WithBufferSize sets the command ring buffer capacity (power of two).
func WithBufferSize(capacity int64) OrderBookOption {
	return func(ob *OrderBook) {
		if capacity > 0 {
			ob.bufferSize = capacity
		}
	}
}

// OrderBook is the single-instrument engine host: a Book wrapped in a
// single-consumer actor. Producers on any goroutine enqueue commands into an
// MPSC ring buffer; the consumer loop applies them to the core one at a time,
// so the trade stream for a given command sequence is deterministic. Every
// state change is published as an OrderBookLog with a monotonic sequence ID.
type OrderBook struct {
	symbol       string
	tickSize     decimal.Decimal
	bufferSize   int64
	seqID        atomic.Uint64 // Sequence ID for OrderBookLog production
	lastCmdSeqID atomic.Uint64 // Sequence ID of the last processed command
	tradeID      atomic.Uint64 // Sequential trade ID, incremented for Match events only
	isShutdown   atomic.Bool
	book         *Book
	ring         *RingBuffer[inputEvent]
	serializer   protocol.Serializer
	publisher    PublishLog
}

// NewOrderBook creates a new order book instance for one instrument.
// The default tick size is 1, i.e. wire prices are already in ticks.
func NewOrderBook(symbol string, publisher PublishLog, opts ...OrderBookOption) *OrderBook {
	ob := &OrderBook{
		symbol:     symbol,
		tickSize:   decimal.NewFromInt(1),
		bufferSize: 32768,
		book:       NewBook(),
		serializer: &protocol.DefaultJSONSerializer{},
		publisher:  publisher,
	}

	for _, opt := range opts {
		opt(ob)
	}

	ob.ring = NewRingBuffer[inputEvent](ob.bufferSize, ob)
	return ob
}

// Start launches the consumer loop. Call exactly once.
func (ob *OrderBook) Start() {
	ob.ring.Start()
}

// Shutdown stops accepting new commands and waits until everything already
// enqueued has been processed, or the context is done.
func (ob *OrderBook) Shutdown(ctx context.Context) error {
	ob.isShutdown.Store(true)
	return ob.ring.Shutdown(ctx)
}

// LastCmdSeqID returns the sequence ID of the last processed command.
// Used by snapshot recovery to know where to resume consuming from.
func (ob *OrderBook) LastCmdSeqID() uint64 {
	return ob.lastCmdSeqID.Load()
}

// EnqueueCommand submits a raw command envelope to the actor.
// Returns ErrShutdown once shutdown has begun.
func (ob *OrderBook) EnqueueCommand(cmd *protocol.Command) error {
	if ob.isShutdown.Load() {
		return ErrShutdown
	}

	if cmd == nil {
		return ErrInvalidParam
	}

	ob.ring.Publish(inputEvent{cmd: cmd})
	return nil
}

// PlaceOrder submits a new order asynchronously. The order ID is
// caller-assigned and must be unique for the engine's lifetime; duplicates
// surface as a reject event, not an error.
func (ob *OrderBook) PlaceOrder(ctx context.Context, cmd *protocol.PlaceOrderCommand) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if cmd == nil || len(cmd.OrderType) == 0 || len(cmd.Price) == 0 || len(cmd.Quantity) == 0 {
		return ErrInvalidParam
	}

	payload, err := ob.serializer.Marshal(cmd)
	if err != nil {
		return err
	}

	return ob.EnqueueCommand(ob.newCommand(protocol.CmdPlaceOrder, payload))
}

// CancelOrder submits a cancellation asynchronously. Unknown IDs are a
// silent no-op, per the book's contract.
func (ob *OrderBook) CancelOrder(ctx context.Context, orderID uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := ob.serializer.Marshal(&protocol.CancelOrderCommand{OrderID: orderID})
	if err != nil {
		return err
	}

	return ob.EnqueueCommand(ob.newCommand(protocol.CmdCancelOrder, payload))
}

// AmendOrder submits a modify request asynchronously. The amended order is
// cancelled and re-submitted through the full matching path, losing its
// time priority.
func (ob *OrderBook) AmendOrder(ctx context.Context, cmd *protocol.AmendOrderCommand) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if cmd == nil || len(cmd.NewPrice) == 0 || len(cmd.NewQuantity) == 0 {
		return ErrInvalidParam
	}

	payload, err := ob.serializer.Marshal(cmd)
	if err != nil {
		return err
	}

	return ob.EnqueueCommand(ob.newCommand(protocol.CmdAmendOrder, payload))
}

func (ob *OrderBook) newCommand(cmdType protocol.CommandType, payload []byte) *protocol.Command {
	return &protocol.Command{
		Symbol:   ob.symbol,
		Type:     cmdType,
		Payload:  payload,
		Metadata: map[string]string{"trace_id": xid.New().String()},
	}
}

// Depth returns the current depth of the order book up to the given limit.
// It is thread-safe and interacts with the consumer loop via a query event.
func (ob *OrderBook) Depth(limit uint32) (*protocol.GetDepthResponse, error) {
	if limit == 0 {
		return nil, ErrInvalidParam
	}

	res, err := ob.query(&protocol.GetDepthRequest{Symbol: ob.symbol, Limit: limit}, time.Second)
	if err != nil {
		return nil, err
	}

	depth, _ := res.(*protocol.GetDepthResponse)
	return depth, nil
}

// GetStats returns usage statistics for the order book.
func (ob *OrderBook) GetStats() (*protocol.GetStatsResponse, error) {
	res, err := ob.query(&protocol.GetStatsRequest{Symbol: ob.symbol}, time.Second)
	if err != nil {
		return nil, err
	}

	stats, _ := res.(*protocol.GetStatsResponse)
	return stats, nil
}

// TakeSnapshot captures the current state of the order book: resting orders
// in priority order plus the sequence counters needed to resume a log
// stream. Durable storage of the result is the caller's concern.
func (ob *OrderBook) TakeSnapshot() (*OrderBookSnapshot, error) {
	res, err := ob.query(snapshotRequest{}, 5*time.Second)
	if err != nil {
		return nil, err
	}

	snap, _ := res.(*OrderBookSnapshot)
	return snap, nil
}

// Restore rebuilds the book from a snapshot, resetting the sequence
// counters. Must be called before Start.
func (ob *OrderBook) Restore(snap *OrderBookSnapshot) {
	ob.seqID.Store(snap.SeqID)
	ob.lastCmdSeqID.Store(snap.LastCmdSeqID)
	ob.tradeID.Store(snap.TradeID)

	book := NewBook()

	// Snapshots list orders best level first, oldest first, so inserting at
	// the back reproduces time priority.
	for i := range snap.Bids {
		order := snap.Bids[i]
		book.bids.insertOrder(&order, false)
	}
	for i := range snap.Asks {
		order := snap.Asks[i]
		book.asks.insertOrder(&order, false)
	}

	ob.book = book
}

func (ob *OrderBook) query(q any, timeout time.Duration) (any, error) {
	if ob.isShutdown.Load() {
		return nil, ErrOrderBookClosed
	}

	respChan := make(chan any, 1)
	ob.ring.Publish(inputEvent{query: q, resp: respChan})

	select {
	case res := <-respChan:
		return res, nil
	case <-time.After(timeout):
		return nil, ErrTimeout
	}
}

// OnEvent is the ring buffer consumer entry point. It runs on the single
// consumer goroutine, so every access to the core below is serialized.
func (ob *OrderBook) OnEvent(ev inputEvent) {
	if ev.cmd != nil {
		switch ev.cmd.Type {
		case protocol.CmdPlaceOrder:
			ob.handlePlaceOrder(ev.cmd)
		case protocol.CmdCancelOrder:
			ob.handleCancelOrder(ev.cmd)
		case protocol.CmdAmendOrder:
			ob.handleAmendOrder(ev.cmd)
		case protocol.CmdUnknown:
		}

		if ev.cmd.SeqID > 0 {
			ob.lastCmdSeqID.Store(ev.cmd.SeqID)
		}
		return
	}

	if ev.resp == nil {
		return
	}

	switch q := ev.query.(type) {
	case *protocol.GetDepthRequest:
		respond(ev.resp, ob.depthResponse(q.Limit))
	case *protocol.GetStatsRequest:
		respond(ev.resp, ob.statsResponse())
	case snapshotRequest:
		respond(ev.resp, ob.createSnapshot())
	}
}

// respond sends without blocking; if no one is listening the result is dropped.
func respond(ch chan any, v any) {
	select {
	case ch <- v:
	default:
	}
}

func (ob *OrderBook) handlePlaceOrder(cmd *protocol.Command) {
	payload := &protocol.PlaceOrderCommand{}
	if err := ob.serializer.Unmarshal(cmd.Payload, payload); err != nil {
		logger.Error("failed to unmarshal PlaceOrder command", "symbol", ob.symbol, "error", err)
		return
	}

	price, err := protocol.ParsePrice(payload.Price, ob.tickSize)
	if err != nil {
		ob.publish(newRejectLog(ob.seqID.Add(1), ob.symbol, OrderID(payload.OrderID), protocol.RejectReasonInvalidPayload))
		return
	}

	quantity, err := protocol.ParseQuantity(payload.Quantity)
	if err != nil {
		ob.publish(newRejectLog(ob.seqID.Add(1), ob.symbol, OrderID(payload.OrderID), protocol.RejectReasonInvalidPayload))
		return
	}

	if payload.Side != Buy && payload.Side != Sell {
		ob.publish(newRejectLog(ob.seqID.Add(1), ob.symbol, OrderID(payload.OrderID), protocol.RejectReasonInvalidPayload))
		return
	}

	if payload.OrderType != GoodTillCancel && payload.OrderType != FillAndKill {
		ob.publish(newRejectLog(ob.seqID.Add(1), ob.symbol, OrderID(payload.OrderID), protocol.RejectReasonInvalidPayload))
		return
	}

	order := NewOrder(payload.OrderType, OrderID(payload.OrderID), payload.Side, Quantity(quantity), Price(price))
	order.Timestamp = payload.Timestamp
	if order.Timestamp == 0 {
		order.Timestamp = time.Now().UnixNano()
	}

	if ob.book.Order(order.ID) != nil {
		ob.publish(newRejectLog(ob.seqID.Add(1), ob.symbol, order.ID, protocol.RejectReasonDuplicateID))
		return
	}

	if order.Type == FillAndKill && !ob.book.CanMatch(order.Side, order.Price) {
		ob.publish(newRejectLog(ob.seqID.Add(1), ob.symbol, order.ID, ob.fakRejectReason(order.Side)))
		return
	}

	trades := ob.book.AddOrder(order)
	ob.publish(ob.resultLogs(order, trades)...)
}

func (ob *OrderBook) handleCancelOrder(cmd *protocol.Command) {
	payload := &protocol.CancelOrderCommand{}
	if err := ob.serializer.Unmarshal(cmd.Payload, payload); err != nil {
		logger.Error("failed to unmarshal CancelOrder command", "symbol", ob.symbol, "error", err)
		return
	}

	order := ob.book.CancelOrder(OrderID(payload.OrderID))
	if order == nil {
		// Unknown ID: silent no-op.
		return
	}

	ob.publish(newCancelLog(ob.seqID.Add(1), ob.symbol, order))
}

func (ob *OrderBook) handleAmendOrder(cmd *protocol.Command) {
	payload := &protocol.AmendOrderCommand{}
	if err := ob.serializer.Unmarshal(cmd.Payload, payload); err != nil {
		logger.Error("failed to unmarshal AmendOrder command", "symbol", ob.symbol, "error", err)
		return
	}

	existing := ob.book.Order(OrderID(payload.OrderID))
	if existing == nil {
		// Unknown ID: silent no-op.
		return
	}

	price, err := protocol.ParsePrice(payload.NewPrice, ob.tickSize)
	if err != nil {
		ob.publish(newRejectLog(ob.seqID.Add(1), ob.symbol, existing.ID, protocol.RejectReasonInvalidPayload))
		return
	}

	quantity, err := protocol.ParseQuantity(payload.NewQuantity)
	if err != nil {
		ob.publish(newRejectLog(ob.seqID.Add(1), ob.symbol, existing.ID, protocol.RejectReasonInvalidPayload))
		return
	}

	side := payload.Side
	if side != Buy && side != Sell {
		side = existing.Side
	}

	oldSide := existing.Side
	oldPrice := existing.Price
	oldQuantity := existing.RemainingQuantity
	orderType := existing.Type

	// Cancel-and-reinsert: the replacement shares the ID and time-in-force
	// type but joins the back of its (possibly new) level's queue.
	replacement := NewOrder(orderType, existing.ID, side, Quantity(quantity), Price(price))
	replacement.Timestamp = time.Now().UnixNano()

	// The amend event establishes the removal of the old state; the
	// replacement's fate follows as match/open events.
	ob.publish(newAmendLog(ob.seqID.Add(1), ob.symbol, replacement, oldSide, oldPrice, oldQuantity))

	ob.book.CancelOrder(existing.ID)
	trades := ob.book.AddOrder(replacement)
	ob.publish(ob.resultLogs(replacement, trades)...)
}

// resultLogs turns the outcome of a submission into its event sequence:
// one match event per trade, then either an open event for a resting
// remainder or a reject event for a FillAndKill remainder that was killed.
func (ob *OrderBook) resultLogs(taker *Order, trades Trades) []*OrderBookLog {
	logs := make([]*OrderBookLog, 0, len(trades)+1)

	for _, trade := range trades {
		maker := trade.Bid
		if maker.OrderID == taker.ID {
			maker = trade.Ask
		}

		logs = append(logs, newMatchLog(ob.seqID.Add(1), ob.tradeID.Add(1), ob.symbol, taker, maker.OrderID, maker.Price, maker.Quantity))
	}

	if ob.book.Order(taker.ID) != nil {
		logs = append(logs, newOpenLog(ob.seqID.Add(1), ob.symbol, taker))
	} else if !taker.Filled() && taker.Type == FillAndKill {
		// The remainder never rested, so this must not read as a depth change.
		logs = append(logs, newRejectLog(ob.seqID.Add(1), ob.symbol, taker.ID, ob.fakRejectReason(taker.Side)))
	}

	return logs
}

func (ob *OrderBook) fakRejectReason(side Side) RejectReason {
	opposite := ob.book.asks
	if side == Sell {
		opposite = ob.book.bids
	}

	if opposite.depthCount() == 0 {
		return protocol.RejectReasonNoLiquidity
	}
	return protocol.RejectReasonPriceMismatch
}

func (ob *OrderBook) publish(logs ...*OrderBookLog) {
	if len(logs) == 0 {
		return
	}

	ob.publisher.Publish(logs...)
	for _, log := range logs {
		releaseBookLog(log)
	}
}

func (ob *OrderBook) depthResponse(limit uint32) *protocol.GetDepthResponse {
	return &protocol.GetDepthResponse{
		UpdateID: ob.seqID.Load(),
		Asks:     ob.depthItems(ob.book.asks, limit),
		Bids:     ob.depthItems(ob.book.bids, limit),
	}
}

func (ob *OrderBook) depthItems(l *ladder, limit uint32) []*protocol.DepthItem {
	levels := l.depth(limit)
	counts := l.levelCounts(limit)

	items := make([]*protocol.DepthItem, 0, len(levels))
	for i, level := range levels {
		items = append(items, &protocol.DepthItem{
			Price: protocol.FormatPrice(int64(level.Price), ob.tickSize),
			Size:  protocol.FormatQuantity(uint64(level.Quantity)),
			Count: counts[i],
		})
	}

	return items
}

func (ob *OrderBook) statsResponse() *protocol.GetStatsResponse {
	return &protocol.GetStatsResponse{
		AskDepthCount: ob.book.asks.depthCount(),
		AskOrderCount: ob.book.asks.orderCount(),
		BidDepthCount: ob.book.bids.depthCount(),
		BidOrderCount: ob.book.bids.orderCount(),
	}
}

// createSnapshot runs on the consumer loop, so it is consistent with
// respect to command processing.
func (ob *OrderBook) createSnapshot() *OrderBookSnapshot {
	return &OrderBookSnapshot{
		SchemaVersion: SnapshotSchemaVersion,
		Symbol:        ob.symbol,
		SeqID:         ob.seqID.Load(),
		LastCmdSeqID:  ob.lastCmdSeqID.Load(),
		TradeID:       ob.tradeID.Load(),
		Bids:          ob.book.bids.toSnapshot(),
		Asks:          ob.book.asks.toSnapshot(),
	}
}
