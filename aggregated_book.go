package match

import (
	"sync/atomic"

	"github.com/igrmk/treemap/v2"
)

// AggregatedBook maintains a simplified view of the order book, tracking
// only price levels and their aggregated quantities (depth). It is designed
// for downstream services that rebuild book state from OrderBookLog events
// received via a message stream, optionally seeded from a snapshot.
type AggregatedBook struct {
	seqID atomic.Uint64 // Last applied SequenceID, for gap detection and deduplication
	ask   *treemap.TreeMap[Price, Quantity]
	bid   *treemap.TreeMap[Price, Quantity]
}

func newSideMap() *treemap.TreeMap[Price, Quantity] {
	return treemap.NewWithKeyCompare[Price, Quantity](func(a, b Price) bool {
		return a < b
	})
}

// NewAggregatedBook creates a new AggregatedBook with empty sides.
func NewAggregatedBook() *AggregatedBook {
	return &AggregatedBook{
		ask: newSideMap(),
		bid: newSideMap(),
	}
}

// SequenceID returns the last applied sequence ID.
// Used for synchronization and gap detection during rebuild.
func (ab *AggregatedBook) SequenceID() uint64 {
	return ab.seqID.Load()
}

// Rebuild resets the aggregated book from a snapshot, summing resting
// quantities per price. Call this before replaying events newer than the
// snapshot's sequence ID.
func (ab *AggregatedBook) Rebuild(snap *OrderBookSnapshot) {
	bid := newSideMap()
	for i := range snap.Bids {
		order := &snap.Bids[i]
		current, _ := bid.Get(order.Price)
		bid.Set(order.Price, current+order.RemainingQuantity)
	}

	ask := newSideMap()
	for i := range snap.Asks {
		order := &snap.Asks[i]
		current, _ := ask.Get(order.Price)
		ask.Set(order.Price, current+order.RemainingQuantity)
	}

	ab.bid = bid
	ab.ask = ask
	ab.seqID.Store(snap.SeqID)
}

// Replay applies an OrderBookLog event to the aggregated state.
// Events at or below the current sequence ID are duplicates and are skipped;
// an event further ahead than the next expected ID returns ErrSequenceGap.
// Reject events do not change depth but still advance the sequence ID.
func (ab *AggregatedBook) Replay(log *OrderBookLog) error {
	last := ab.seqID.Load()

	if log.SequenceID <= last {
		return nil
	}

	if last != 0 && log.SequenceID != last+1 {
		return ErrSequenceGap
	}

	change := DepthChangeFromLog(log)
	if change.QuantityDiff != 0 {
		ab.apply(change)
	}

	ab.seqID.Store(log.SequenceID)
	return nil
}

func (ab *AggregatedBook) apply(change DepthChange) {
	side := ab.bid
	if change.Side == Sell {
		side = ab.ask
	}

	current, _ := side.Get(change.Price)
	next := int64(current) + change.QuantityDiff

	if next <= 0 {
		side.Del(change.Price)
		return
	}

	side.Set(change.Price, Quantity(next))
}

// Depth returns the aggregated quantity at a specific price level for the
// given side. Returns zero if the price level does not exist.
func (ab *AggregatedBook) Depth(side Side, price Price) Quantity {
	m := ab.bid
	if side == Sell {
		m = ab.ask
	}

	quantity, _ := m.Get(price)
	return quantity
}

// Levels returns up to limit aggregated levels for the side in canonical
// order: bids descending by price, asks ascending. limit <= 0 means all.
func (ab *AggregatedBook) Levels(side Side, limit int) []LevelInfo {
	var result []LevelInfo

	if side == Buy {
		for it := ab.bid.Reverse(); it.Valid(); it.Next() {
			if limit > 0 && len(result) == limit {
				break
			}
			result = append(result, LevelInfo{Price: it.Key(), Quantity: it.Value()})
		}
		return result
	}

	for it := ab.ask.Iterator(); it.Valid(); it.Next() {
		if limit > 0 && len(result) == limit {
			break
		}
		result = append(result, LevelInfo{Price: it.Key(), Quantity: it.Value()})
	}
	return result
}
