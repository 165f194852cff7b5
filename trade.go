package match

// TradeInfo captures one side of an execution. Price is the limit price of
// the order on that side, matching how executions are reported per leg.
type TradeInfo struct {
	OrderID  OrderID  `json:"order_id"`
	Price    Price    `json:"price"`
	Quantity Quantity `json:"quantity"`
}

// Trade is an immutable execution record pairing the bid-side and ask-side
// fills of a single match. Both legs always carry the same quantity.
type Trade struct {
	Bid TradeInfo `json:"bid"`
	Ask TradeInfo `json:"ask"`
}

// Trades is the ordered sequence of executions produced by one operation.
type Trades []Trade
