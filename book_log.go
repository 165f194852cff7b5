package match

import (
	"sync"
	"time"

	"github.com/openexch/matching-engine/protocol"
)

type LogType = protocol.LogType

const (
	LogTypeOpen   LogType = protocol.LogTypeOpen
	LogTypeMatch  LogType = protocol.LogTypeMatch
	LogTypeCancel LogType = protocol.LogTypeCancel
	LogTypeAmend  LogType = protocol.LogTypeAmend
	LogTypeReject LogType = protocol.LogTypeReject
)

type RejectReason = protocol.RejectReason

// OrderBookLog represents an event in the order book.
// SequenceID is a monotonically increasing ID for every event, used for
// ordering, deduplication, and rebuild synchronization downstream.
// Use LogType to determine if the event affects order book state:
// - Open, Match, Cancel, Amend: affect order book state
// - Reject: does not affect order book state
type OrderBookLog struct {
	SequenceID   uint64       `json:"seq_id"`
	TradeID      uint64       `json:"trade_id,omitempty"` // Sequential trade ID, only set for Match events
	Type         LogType      `json:"type"`
	Symbol       string       `json:"symbol"`
	Side         Side         `json:"side"`
	Price        Price        `json:"price"` // For Match events, the maker's resting level
	Quantity     Quantity     `json:"quantity"`
	OldSide      Side         `json:"old_side,omitempty"` // Only set for Amend events
	OldPrice     Price        `json:"old_price,omitempty"`
	OldQuantity  Quantity     `json:"old_quantity,omitempty"`
	OrderID      OrderID      `json:"order_id"`
	OrderType    OrderType    `json:"order_type,omitempty"`
	MakerOrderID OrderID      `json:"maker_order_id,omitempty"`
	RejectReason RejectReason `json:"reject_reason,omitempty"` // Only set for Reject events
	CreatedAt    time.Time    `json:"created_at"`
}

var bookLogPool = sync.Pool{
	New: func() any {
		return new(OrderBookLog)
	},
}

func acquireBookLog() *OrderBookLog {
	return bookLogPool.Get().(*OrderBookLog)
}

func releaseBookLog(log *OrderBookLog) {
	*log = OrderBookLog{}
	bookLogPool.Put(log)
}

func newOpenLog(seqID uint64, symbol string, order *Order) *OrderBookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.Type = LogTypeOpen
	log.Symbol = symbol
	log.Side = order.Side
	log.Price = order.Price
	log.Quantity = order.RemainingQuantity
	log.OrderID = order.ID
	log.OrderType = order.Type
	log.CreatedAt = time.Now().UTC()
	return log
}

// newMatchLog prices the event at the maker's resting level, which is the
// level the executed liquidity is debited from during depth replay.
func newMatchLog(seqID uint64, tradeID uint64, symbol string, taker *Order, makerID OrderID, price Price, quantity Quantity) *OrderBookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.TradeID = tradeID
	log.Type = LogTypeMatch
	log.Symbol = symbol
	log.Side = taker.Side
	log.Price = price
	log.Quantity = quantity
	log.OrderID = taker.ID
	log.OrderType = taker.Type
	log.MakerOrderID = makerID
	log.CreatedAt = time.Now().UTC()
	return log
}

func newCancelLog(seqID uint64, symbol string, order *Order) *OrderBookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.Type = LogTypeCancel
	log.Symbol = symbol
	log.Side = order.Side
	log.Price = order.Price
	log.Quantity = order.RemainingQuantity
	log.OrderID = order.ID
	log.OrderType = order.Type
	log.CreatedAt = time.Now().UTC()
	return log
}

func newAmendLog(seqID uint64, symbol string, order *Order, oldSide Side, oldPrice Price, oldQuantity Quantity) *OrderBookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.Type = LogTypeAmend
	log.Symbol = symbol
	log.Side = order.Side
	log.Price = order.Price
	log.Quantity = order.InitialQuantity
	log.OldSide = oldSide
	log.OldPrice = oldPrice
	log.OldQuantity = oldQuantity
	log.OrderID = order.ID
	log.OrderType = order.Type
	log.CreatedAt = time.Now().UTC()
	return log
}

func newRejectLog(seqID uint64, symbol string, orderID OrderID, reason RejectReason) *OrderBookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.Type = LogTypeReject
	log.Symbol = symbol
	log.OrderID = orderID
	log.RejectReason = reason
	log.CreatedAt = time.Now().UTC()
	return log
}
