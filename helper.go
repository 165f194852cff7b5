package match

// DepthChange represents a change in the order book depth.
type DepthChange struct {
	Side         Side
	Price        Price
	QuantityDiff int64
}

// DepthChangeFromLog converts an order book event into the depth delta it
// implies, indicating which side and price level should be updated.
// Note: for LogTypeMatch, the side returned is the maker's side (opposite of
// the log's side) — a match removes liquidity from the resting level.
func DepthChangeFromLog(log *OrderBookLog) DepthChange {
	switch log.Type {
	case LogTypeOpen:
		return DepthChange{
			Side:         log.Side,
			Price:        log.Price,
			QuantityDiff: int64(log.Quantity),
		}
	case LogTypeCancel:
		return DepthChange{
			Side:         log.Side,
			Price:        log.Price,
			QuantityDiff: -int64(log.Quantity),
		}
	case LogTypeMatch:
		makerSide := Buy
		if log.Side == Buy {
			makerSide = Sell
		}
		return DepthChange{
			Side:         makerSide,
			Price:        log.Price,
			QuantityDiff: -int64(log.Quantity),
		}
	case LogTypeAmend:
		// An amend always cancels and re-submits, so the old quantity leaves
		// its old level here; the replacement arrives through a subsequent
		// Open or Match event. An amend may also move the order to the other
		// side, so the debit targets the side it rested on, not the new one.
		return DepthChange{
			Side:         log.OldSide,
			Price:        log.OldPrice,
			QuantityDiff: -int64(log.OldQuantity),
		}
	case LogTypeReject:
		// Rejected orders never entered the book, so no depth change.
		return DepthChange{}
	}

	return DepthChange{}
}
