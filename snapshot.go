package match

// OrderBookSnapshot contains the full state of a single OrderBook.
// Orders are listed best level first, oldest first within a level, so a
// restore that re-inserts them in sequence reproduces time priority exactly.
type OrderBookSnapshot struct {
	SchemaVersion int     `json:"schema_version"`
	Symbol        string  `json:"symbol"`
	SeqID         uint64  `json:"seq_id"`          // Current OrderBookLog sequence ID
	LastCmdSeqID  uint64  `json:"last_cmd_seq_id"` // Last processed command sequence ID
	TradeID       uint64  `json:"trade_id"`        // Current trade sequence ID
	Bids          []Order `json:"bids"`
	Asks          []Order `json:"asks"`
}
