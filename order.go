package match

import (
	"fmt"

	"github.com/openexch/matching-engine/protocol"
)

type Side = protocol.Side

const (
	Buy  Side = protocol.SideBuy
	Sell Side = protocol.SideSell
)

type OrderType = protocol.OrderType

const (
	GoodTillCancel OrderType = protocol.OrderTypeGoodTillCancel
	FillAndKill    OrderType = protocol.OrderTypeFillAndKill
)

// Price is a limit price in integer ticks (smallest currency unit).
type Price int64

// Quantity is an order size in whole units.
type Quantity uint64

// OrderID uniquely identifies an order for the lifetime of an engine
// instance. IDs are caller-assigned; the engine never generates them.
type OrderID uint64

// Order is a single order resting in, or passing through, the book.
// The zero Quantity marks it as logically done.
//
// The intrusive prev/next pointers place the order in its price level's FIFO
// and double as the O(1) position handle required for cancel-by-ID.
type Order struct {
	ID                OrderID   `json:"id"`
	Side              Side      `json:"side"`
	Type              OrderType `json:"type"`
	Price             Price     `json:"price"`
	InitialQuantity   Quantity  `json:"initial_quantity"`
	RemainingQuantity Quantity  `json:"remaining_quantity"`
	Timestamp         int64     `json:"timestamp"` // Unix nano, creation time

	// Intrusive linked list pointers (ignored by JSON).
	next *Order
	prev *Order
}

// NewOrder creates an order with its full quantity unfilled.
func NewOrder(orderType OrderType, id OrderID, side Side, quantity Quantity, price Price) *Order {
	return &Order{
		ID:                id,
		Side:              side,
		Type:              orderType,
		Price:             price,
		InitialQuantity:   quantity,
		RemainingQuantity: quantity,
	}
}

// FilledQuantity returns how much of the order has executed so far.
func (o *Order) FilledQuantity() Quantity {
	return o.InitialQuantity - o.RemainingQuantity
}

// Filled reports whether the order is fully executed.
func (o *Order) Filled() bool {
	return o.RemainingQuantity == 0
}

// Fill reduces the remaining quantity by the executed amount.
//
// The matching loop always fills min(bid remaining, ask remaining), so an
// overfill is an engine defect rather than bad input and panics.
func (o *Order) Fill(quantity Quantity) {
	if quantity > o.RemainingQuantity {
		panic(fmt.Sprintf("order %d: fill %d exceeds remaining %d", o.ID, quantity, o.RemainingQuantity))
	}
	o.RemainingQuantity -= quantity
}

// OrderModify is a request to replace an order's price, side, or quantity.
// The referenced order is cancelled and re-submitted, keeping its ID and
// time-in-force type but losing its time priority.
type OrderModify struct {
	OrderID  OrderID
	Side     Side
	Quantity Quantity
	Price    Price
}

// ToOrder builds the replacement order, reusing the request's ID and the
// captured time-in-force type of the order being replaced.
func (m OrderModify) ToOrder(orderType OrderType) *Order {
	return NewOrder(orderType, m.OrderID, m.Side, m.Quantity, m.Price)
}
