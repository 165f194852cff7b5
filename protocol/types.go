package protocol

// Side represents the order side (Buy/Sell).
type Side int8

const (
	SideBuy  Side = 1
	SideSell Side = 2
)

// OrderType represents the time-in-force behavior of an order.
type OrderType string

const (
	// OrderTypeGoodTillCancel rests in the book until filled or cancelled.
	OrderTypeGoodTillCancel OrderType = "good_till_cancel"
	// OrderTypeFillAndKill executes immediately against resting liquidity;
	// any remainder is discarded and never rests.
	OrderTypeFillAndKill OrderType = "fill_and_kill"
)

// LogType represents the type of event log.
type LogType string

const (
	LogTypeOpen   LogType = "open"
	LogTypeMatch  LogType = "match"
	LogTypeCancel LogType = "cancel"
	LogTypeAmend  LogType = "amend"
	LogTypeReject LogType = "reject"
)

// RejectReason represents the reason why an order was rejected.
type RejectReason string

const (
	RejectReasonNone           RejectReason = ""
	RejectReasonNoLiquidity    RejectReason = "no_liquidity"   // FillAndKill: no orders available to match
	RejectReasonPriceMismatch  RejectReason = "price_mismatch" // FillAndKill: price does not cross the book
	RejectReasonDuplicateID    RejectReason = "duplicate_order_id"
	RejectReasonOrderNotFound  RejectReason = "order_not_found"
	RejectReasonInvalidPayload RejectReason = "invalid_payload"
)

// DepthItem is one aggregated price level in a depth response.
type DepthItem struct {
	Price string `json:"price"`
	Size  string `json:"size"`
	Count int64  `json:"count"`
}

// GetDepthResponse represents the state of the order book depth.
type GetDepthResponse struct {
	UpdateID uint64       `json:"update_id"`
	Asks     []*DepthItem `json:"asks"`
	Bids     []*DepthItem `json:"bids"`
}

// GetStatsResponse contains statistics about the order book ladders.
type GetStatsResponse struct {
	AskDepthCount int64 `json:"ask_depth_count"`
	AskOrderCount int64 `json:"ask_order_count"`
	BidDepthCount int64 `json:"bid_depth_count"`
	BidOrderCount int64 `json:"bid_order_count"`
}
