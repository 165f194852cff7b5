package protocol

// CommandType defines the type of the command (uint8 for compact framing).
type CommandType uint8

const (
	CmdUnknown     CommandType = 0
	CmdPlaceOrder  CommandType = 1
	CmdCancelOrder CommandType = 2
	CmdAmendOrder  CommandType = 3
)

// Command is the standard carrier for commands entering the matching engine.
// It is designed to be efficient for serialization and compatible with
// event sourcing: the payload stays opaque bytes until the owning order book
// decodes it, so routing never pays deserialization costs.
type Command struct {
	// Version is the protocol version for backward compatibility.
	Version uint8 `json:"version"`

	// Symbol is the instrument this command targets (routing header).
	Symbol string `json:"symbol"`

	// SeqID is used for global ordering and deduplication.
	SeqID uint64 `json:"seq_id"`

	// Type identifies the payload type for fast routing.
	Type CommandType `json:"type"`

	// Payload contains the serialized business data
	// (e.g. JSON bytes of PlaceOrderCommand).
	Payload []byte `json:"payload"`

	// Metadata stores non-business context (e.g. tracing ID, source IP).
	Metadata map[string]string `json:"metadata,omitempty"`
}

// PlaceOrderCommand is the payload for placing a new order.
// Price and Quantity travel as decimal strings to prevent precision loss in
// JSON; the engine converts them to integer ticks at the boundary.
type PlaceOrderCommand struct {
	OrderID   uint64    `json:"order_id"`
	Side      Side      `json:"side"`
	OrderType OrderType `json:"order_type"`
	Price     string    `json:"price"`
	Quantity  string    `json:"quantity"`
	Timestamp int64     `json:"timestamp"`
}

// CancelOrderCommand is the payload for cancelling an existing order.
type CancelOrderCommand struct {
	OrderID   uint64 `json:"order_id"`
	Timestamp int64  `json:"timestamp"`
}

// AmendOrderCommand is the payload for modifying an existing order.
// The amended order is cancelled and re-submitted, so it always loses its
// time priority.
type AmendOrderCommand struct {
	OrderID     uint64 `json:"order_id"`
	Side        Side   `json:"side"`
	NewPrice    string `json:"new_price"`
	NewQuantity string `json:"new_quantity"`
	Timestamp   int64  `json:"timestamp"`
}

// GetDepthRequest is the payload for querying order book depth.
// This is used for synchronous queries, separate from the async command stream.
type GetDepthRequest struct {
	Symbol string `json:"symbol"`
	Limit  uint32 `json:"limit"`
}

// GetStatsRequest is the payload for querying order book statistics.
type GetStatsRequest struct {
	Symbol string `json:"symbol"`
}
