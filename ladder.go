package match

import (
	"github.com/huandu/skiplist"
)

// priceLevel is one price in a ladder: a FIFO of resting orders linked
// through their intrusive pointers, plus the aggregated remaining quantity.
// Sequence order encodes arrival time. A level never exists empty.
type priceLevel struct {
	price         Price
	totalQuantity Quantity
	head          *Order
	tail          *Order
	count         int64
}

// ladder is one side of the book: price levels ordered best-first in a skip
// list, a price index for O(1) level lookup, and the registry mapping order
// IDs to their orders. An order's registry entry and its ladder slot are
// always created and retired together.
type ladder struct {
	side        Side
	totalOrders int64
	depths      int64
	levelList   *skiplist.SkipList
	priceIndex  map[Price]*skiplist.Element
	orders      map[OrderID]*Order
}

// newBidLadder creates the ladder for buy orders,
// sorted by price in descending order (highest price first).
func newBidLadder() *ladder {
	return &ladder{
		side: Buy,
		levelList: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			p1, _ := lhs.(Price)
			p2, _ := rhs.(Price)

			if p1 < p2 {
				return 1
			} else if p1 > p2 {
				return -1
			}

			return 0
		})),
		priceIndex: make(map[Price]*skiplist.Element),
		orders:     make(map[OrderID]*Order),
	}
}

// newAskLadder creates the ladder for sell orders,
// sorted by price in ascending order (lowest price first).
func newAskLadder() *ladder {
	return &ladder{
		side: Sell,
		levelList: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			p1, _ := lhs.(Price)
			p2, _ := rhs.(Price)

			if p1 > p2 {
				return 1
			} else if p1 < p2 {
				return -1
			}

			return 0
		})),
		priceIndex: make(map[Price]*skiplist.Element),
		orders:     make(map[OrderID]*Order),
	}
}

// order finds an order by its ID.
func (l *ladder) order(id OrderID) *Order {
	return l.orders[id]
}

// insertOrder inserts an order into the ladder, registering it and updating
// the price index. New orders go to the tail of their level's FIFO.
func (l *ladder) insertOrder(order *Order, isFront bool) {
	el, ok := l.priceIndex[order.Price]
	if ok {
		level, _ := el.Value.(*priceLevel)
		if isFront {
			order.next = level.head
			order.prev = nil
			if level.head != nil {
				level.head.prev = order
			}
			level.head = order
			if level.tail == nil {
				level.tail = order
			}
		} else {
			order.prev = level.tail
			order.next = nil
			if level.tail != nil {
				level.tail.next = order
			}
			level.tail = order
			if level.head == nil {
				level.head = order
			}
		}

		level.totalQuantity += order.RemainingQuantity
		level.count++
		l.orders[order.ID] = order
		l.totalOrders++
	} else {
		level := &priceLevel{
			price:         order.Price,
			head:          order,
			tail:          order,
			totalQuantity: order.RemainingQuantity,
			count:         1,
		}
		order.next = nil
		order.prev = nil

		l.orders[order.ID] = order

		el := l.levelList.Set(order.Price, level)
		l.priceIndex[order.Price] = el

		l.totalOrders++
		l.depths++
	}
}

// removeOrder unlinks an order from its level's FIFO and erases its registry
// entry in the same step. The level is dropped the instant it drains.
// Returns the removed order, or nil if the ID is unknown.
func (l *ladder) removeOrder(id OrderID) *Order {
	order, ok := l.orders[id]
	if !ok {
		return nil
	}

	skipElement, ok := l.priceIndex[order.Price]
	if !ok {
		return nil
	}
	level, _ := skipElement.Value.(*priceLevel)

	if order.prev != nil {
		order.prev.next = order.next
	} else {
		level.head = order.next
	}

	if order.next != nil {
		order.next.prev = order.prev
	} else {
		level.tail = order.prev
	}

	// Clear pointers so a stale handle cannot reach live orders.
	order.next = nil
	order.prev = nil

	level.totalQuantity -= order.RemainingQuantity
	level.count--
	delete(l.orders, id)
	l.totalOrders--

	if level.count == 0 {
		l.levelList.RemoveElement(skipElement)
		delete(l.priceIndex, order.Price)
		l.depths--
	}

	return order
}

// bestLevel returns the level at the front of the ladder, nil when empty.
func (l *ladder) bestLevel() *priceLevel {
	el := l.levelList.Front()
	if el == nil {
		return nil
	}

	level, _ := el.Value.(*priceLevel)
	return level
}

// peekHeadOrder returns the oldest order at the best price without removing it.
func (l *ladder) peekHeadOrder() *Order {
	level := l.bestLevel()
	if level == nil {
		return nil
	}
	return level.head
}

// reduceLevelQuantity debits a partial fill from the order's level total.
// Full fills are accounted for by removeOrder instead.
func (l *ladder) reduceLevelQuantity(order *Order, quantity Quantity) {
	if el, ok := l.priceIndex[order.Price]; ok {
		level, _ := el.Value.(*priceLevel)
		level.totalQuantity -= quantity
	}
}

// orderCount returns the total number of orders in the ladder.
func (l *ladder) orderCount() int64 {
	return l.totalOrders
}

// depthCount returns the number of price levels in the ladder.
func (l *ladder) depthCount() int64 {
	return l.depths
}

// levels aggregates the remaining quantity per price, best level first.
func (l *ladder) levels() []LevelInfo {
	result := make([]LevelInfo, 0, l.depths)

	el := l.levelList.Front()
	for el != nil {
		level, _ := el.Value.(*priceLevel)

		var total Quantity
		for order := level.head; order != nil; order = order.next {
			total += order.RemainingQuantity
		}

		result = append(result, LevelInfo{Price: level.price, Quantity: total})
		el = el.Next()
	}

	return result
}

// depth returns up to limit aggregated levels using the maintained totals.
func (l *ladder) depth(limit uint32) []LevelInfo {
	result := make([]LevelInfo, 0, limit)

	el := l.levelList.Front()

	var i uint32
	for i < limit && el != nil {
		level, _ := el.Value.(*priceLevel)
		result = append(result, LevelInfo{Price: level.price, Quantity: level.totalQuantity})

		el = el.Next()
		i++
	}

	return result
}

// levelCounts returns per-level order counts alongside depth, for stats and
// depth responses that expose them.
func (l *ladder) levelCounts(limit uint32) []int64 {
	counts := make([]int64, 0, limit)

	el := l.levelList.Front()
	var i uint32
	for i < limit && el != nil {
		level, _ := el.Value.(*priceLevel)
		counts = append(counts, level.count)
		el = el.Next()
		i++
	}

	return counts
}

// toSnapshot serializes the ladder into a slice of Order values, iterating
// levels best-first and each FIFO oldest-first to preserve priority.
func (l *ladder) toSnapshot() []Order {
	snapshots := make([]Order, 0, l.totalOrders)

	elem := l.levelList.Front()
	for elem != nil {
		level := elem.Value.(*priceLevel)

		order := level.head
		for order != nil {
			snapshots = append(snapshots, Order{
				ID:                order.ID,
				Side:              order.Side,
				Type:              order.Type,
				Price:             order.Price,
				InitialQuantity:   order.InitialQuantity,
				RemainingQuantity: order.RemainingQuantity,
				Timestamp:         order.Timestamp,
			})
			order = order.next
		}

		elem = elem.Next()
	}

	return snapshots
}
