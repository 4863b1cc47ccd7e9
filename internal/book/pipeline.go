package book

import (
	"github.com/MJRob1/fx-sim-agg/internal/infra/metrics"
	"github.com/MJRob1/fx-sim-agg/internal/quote"
)

// Apply runs one quote record through the update pipeline. On success every
// book invariant holds: sides sorted, no crossed book, spread above the
// configured minimum, and at most one (provider, tier) contribution per
// side. On failure the book is untouched.
//
// The book has a single writer, so Apply must never run concurrently with
// itself or with Snapshot.
func (b *Book) Apply(rec quote.Record) error {
	if rec.Pair != b.pair {
		return &PairMismatchError{Want: b.pair, Got: rec.Pair}
	}

	// Arrival order is authoritative; the timestamp is informational,
	// last write wins.
	b.lastTS = rec.Timestamp

	// Expire-then-insert per tier, buy before sell. Expiry first so a
	// provider re-quoting the same price does not double-contribute and a
	// provider moving price leaves no stale residue.
	for i, tier := range Tiers {
		b.buys.removeProviderTier(rec.Provider, tier)
		b.buys.insertOrMerge(rec.Provider, tier, rec.Buys[i])
		b.sells.removeProviderTier(rec.Provider, tier)
		b.sells.insertOrMerge(rec.Provider, tier, rec.Sells[i])
	}

	b.buys.sortLevels()
	b.sells.sortLevels()

	if n := b.resolveCrossed(); n > 0 {
		metrics.CrossedLevelsRemoved.Add(float64(n))
	}
	if n := b.enforceMinSpread(); n > 0 {
		metrics.SpreadTrimsTotal.Add(float64(n))
	}

	metrics.BookDepth.WithLabelValues(Buy.String()).Set(float64(b.buys.depth()))
	metrics.BookDepth.WithLabelValues(Sell.String()).Set(float64(b.sells.depth()))
	if l := b.buys.best(); l != nil {
		metrics.BestBid.Set(l.Price.InexactFloat64())
	}
	if l := b.sells.best(); l != nil {
		metrics.BestAsk.Set(l.Price.InexactFloat64())
	}
	return nil
}

// resolveCrossed removes the entire leading run of sell levels priced at or
// below the best buy. A single aggressive quote can cross several levels at
// once, so the whole run goes, not just the top. Returns levels removed.
func (b *Book) resolveCrossed() int {
	bestBuy := b.buys.best()
	if bestBuy == nil || b.sells.depth() == 0 {
		return 0
	}
	// Scan from the worst sell backward; the first crossing index marks the
	// boundary of the run since sells are ascending.
	boundary := -1
	for i := b.sells.depth() - 1; i >= 0; i-- {
		if b.sells.levels[i].Price.LessThanOrEqual(bestBuy.Price) {
			boundary = i
			break
		}
	}
	if boundary < 0 {
		return 0
	}
	b.sells.removeFrontRun(boundary + 1)
	return boundary + 1
}

// enforceMinSpread removes top-of-book levels one at a time until the spread
// exceeds the configured minimum. Each removal comes from the side chosen by
// the trim policy. An emptied side ends the loop; the narrower spread is
// tolerated until the next quote repopulates it. Returns levels removed.
func (b *Book) enforceMinSpread() int {
	removed := 0
	for {
		bestBuy := b.buys.best()
		bestSell := b.sells.best()
		if bestBuy == nil || bestSell == nil {
			return removed
		}
		if bestSell.Price.Sub(bestBuy.Price).GreaterThan(b.minSpread) {
			return removed
		}
		if b.trim(b.buys.depth(), b.sells.depth()) == Buy {
			b.buys.removeFrontRun(1)
		} else {
			b.sells.removeFrontRun(1)
		}
		removed++
	}
}
