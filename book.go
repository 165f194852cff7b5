package match

// LevelInfo is one aggregated price level: the price and the summed
// remaining quantity of every order resting there.
type LevelInfo struct {
	Price    Price    `json:"price"`
	Quantity Quantity `json:"quantity"`
}

// LevelBook is a read-only snapshot of both sides' aggregated levels,
// bids descending and asks ascending. It is derived on demand, never stored.
type LevelBook struct {
	Bids []LevelInfo `json:"bids"`
	Asks []LevelInfo `json:"asks"`
}

// Book is the synchronous matching core for a single instrument. It owns two
// price-ordered ladders of FIFO levels plus the order registry and keeps the
// three mutually consistent across every mutation.
//
// A Book has a single logical owner: it performs no locking and expects the
// caller to serialize access (OrderBook feeds one through a ring buffer).
// Given a fixed command sequence, the produced trade sequence is
// deterministic.
type Book struct {
	bids *ladder
	asks *ladder
}

// NewBook creates an empty book.
func NewBook() *Book {
	return &Book{
		bids: newBidLadder(),
		asks: newAskLadder(),
	}
}

// Order looks up a resting order by ID, nil if unknown.
func (b *Book) Order(id OrderID) *Order {
	if order := b.bids.order(id); order != nil {
		return order
	}
	return b.asks.order(id)
}

// AddOrder appends the order to the tail of its side/price FIFO and runs the
// matching loop, returning the trades produced (possibly none).
//
// Silent rejections, reported as an empty trade list with no state change:
// a duplicate order ID, or a FillAndKill order that cannot match on entry.
// A rejected FillAndKill never enters the book.
func (b *Book) AddOrder(order *Order) Trades {
	if b.Order(order.ID) != nil {
		return nil
	}

	if order.Type == FillAndKill && !b.CanMatch(order.Side, order.Price) {
		return nil
	}

	if order.Side == Buy {
		b.bids.insertOrder(order, false)
	} else {
		b.asks.insertOrder(order, false)
	}

	return b.matchOrders()
}

// CanMatch reports whether an order on the given side at the given price
// could execute immediately against the opposite ladder. Pure predicate,
// no mutation.
func (b *Book) CanMatch(side Side, price Price) bool {
	if side == Buy {
		best := b.asks.bestLevel()
		return best != nil && price >= best.price
	}

	best := b.bids.bestLevel()
	return best != nil && price <= best.price
}

// CancelOrder removes the order from its FIFO and the registry in one step,
// dropping the level if it drains. Unknown IDs are a no-op.
// Returns the cancelled order, nil if it was not resting.
func (b *Book) CancelOrder(id OrderID) *Order {
	if order := b.bids.removeOrder(id); order != nil {
		return order
	}
	return b.asks.removeOrder(id)
}

// ModifyOrder cancels the referenced order and re-submits a replacement with
// the same ID and its captured time-in-force type, re-entering the full
// matching path. The replacement joins the back of its price level's queue,
// so time priority is lost. Unknown IDs are a no-op with no trades.
func (b *Book) ModifyOrder(modify OrderModify) Trades {
	existing := b.Order(modify.OrderID)
	if existing == nil {
		return nil
	}

	orderType := existing.Type
	b.CancelOrder(modify.OrderID)

	return b.AddOrder(modify.ToOrder(orderType))
}

// Levels aggregates the remaining quantity per price for both sides in
// canonical order. O(number of resting orders); no mutation.
func (b *Book) Levels() *LevelBook {
	return &LevelBook{
		Bids: b.bids.levels(),
		Asks: b.asks.levels(),
	}
}

// OrderCount returns the number of resting orders across both sides.
func (b *Book) OrderCount() int64 {
	return b.bids.orderCount() + b.asks.orderCount()
}

// matchOrders runs the continuous double auction under price-time priority:
// while the market is crossed, the oldest orders at each side's best price
// fill each other for min(bid remaining, ask remaining). Filled orders leave
// their FIFO and the registry together; drained levels leave their ladder.
// The inner loop lets one large aggressor walk through several resting
// orders at a level before the level itself is removed; the outer loop then
// re-evaluates the crossing condition so it can consume further levels.
func (b *Book) matchOrders() Trades {
	var trades Trades

	for {
		bidLevel := b.bids.bestLevel()
		askLevel := b.asks.bestLevel()

		if bidLevel == nil || askLevel == nil {
			break
		}

		if bidLevel.price < askLevel.price {
			break
		}

		for bidLevel.count > 0 && askLevel.count > 0 {
			bid := bidLevel.head
			ask := askLevel.head

			quantity := min(bid.RemainingQuantity, ask.RemainingQuantity)

			bid.Fill(quantity)
			ask.Fill(quantity)
			b.bids.reduceLevelQuantity(bid, quantity)
			b.asks.reduceLevelQuantity(ask, quantity)

			// Each leg executes at its own order's limit price.
			trades = append(trades, Trade{
				Bid: TradeInfo{OrderID: bid.ID, Price: bid.Price, Quantity: quantity},
				Ask: TradeInfo{OrderID: ask.ID, Price: ask.Price, Quantity: quantity},
			})

			if bid.Filled() {
				b.bids.removeOrder(bid.ID)
			}
			if ask.Filled() {
				b.asks.removeOrder(ask.ID)
			}
		}
	}

	// A FillAndKill order must never remain in the book once matching
	// activity has settled.
	if order := b.bids.peekHeadOrder(); order != nil && order.Type == FillAndKill {
		b.CancelOrder(order.ID)
	}

	if order := b.asks.peekHeadOrder(); order != nil && order.Type == FillAndKill {
		b.CancelOrder(order.ID)
	}

	return trades
}
