package book

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TrimPolicy picks which side loses its top level when the spread is too
// narrow. The default removes from the longer side, ties favoring the buy
// side. This is a heuristic carried over from the prototype, kept pluggable
// until product confirms it.
type TrimPolicy func(buyDepth, sellDepth int) Side

func LongerSideTrim(buyDepth, sellDepth int) Side {
	if buyDepth >= sellDepth {
		return Buy
	}
	return Sell
}

// Book is the aggregated order book for a single currency pair. It has one
// writer, the update pipeline; readers take snapshots between applies.
type Book struct {
	pair      string
	precision int32
	minSpread decimal.Decimal
	trim      TrimPolicy
	buys      sideStore
	sells     sideStore
	lastTS    uint64
}

type Option func(*Book)

func WithTrimPolicy(p TrimPolicy) Option {
	return func(b *Book) { b.trim = p }
}

// New creates an empty book for pair. precision is the instrument's pip
// precision in decimal places (4 for non-JPY pairs); minSpreadPips is the
// minimum allowed spread expressed in pips.
func New(pair string, precision int32, minSpreadPips decimal.Decimal, opts ...Option) *Book {
	b := &Book{
		pair:      pair,
		precision: precision,
		minSpread: minSpreadPips.Shift(-precision),
		trim:      LongerSideTrim,
		buys:      sideStore{side: Buy},
		sells:     sideStore{side: Sell},
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

func (b *Book) Pair() string       { return b.pair }
func (b *Book) Precision() int32   { return b.precision }
func (b *Book) LastUpdate() uint64 { return b.lastTS }

// BestBid returns the top buy level price, ok=false when the side is empty.
func (b *Book) BestBid() (decimal.Decimal, bool) {
	if l := b.buys.best(); l != nil {
		return l.Price, true
	}
	return decimal.Decimal{}, false
}

// BestAsk returns the top sell level price, ok=false when the side is empty.
func (b *Book) BestAsk() (decimal.Decimal, bool) {
	if l := b.sells.best(); l != nil {
		return l.Price, true
	}
	return decimal.Decimal{}, false
}

// Depth returns the number of levels on side.
func (b *Book) Depth(side Side) int {
	if side == Buy {
		return b.buys.depth()
	}
	return b.sells.depth()
}

// PairMismatchError reports a record quoting a different currency pair than
// the book aggregates.
type PairMismatchError struct {
	Want, Got string
}

func (e *PairMismatchError) Error() string {
	return fmt.Sprintf("currency pair mismatch: book is %s, record quotes %s", e.Want, e.Got)
}

// ContributionView is a read-only copy of one provider's share of a level.
type ContributionView struct {
	Provider string
	Volume   int64
}

// LevelView is a read-only copy of one aggregated level.
type LevelView struct {
	Price         decimal.Decimal
	Volume        int64
	Contributions []ContributionView
}

// Snapshot is a deep copy of the externally observable book state. Buys are
// best-to-worst, sells best-to-worst (ascending); display stacking is the
// renderer's job.
type Snapshot struct {
	Pair       string
	Precision  int32
	LastUpdate uint64
	Buys       []LevelView
	Sells      []LevelView
}

// Snapshot copies the current book state. Must only be called between
// pipeline applies; the single-writer model makes that the only safe window.
func (b *Book) Snapshot() Snapshot {
	return Snapshot{
		Pair:       b.pair,
		Precision:  b.precision,
		LastUpdate: b.lastTS,
		Buys:       copyLevels(b.buys.levels),
		Sells:      copyLevels(b.sells.levels),
	}
}

func copyLevels(levels []*Level) []LevelView {
	out := make([]LevelView, len(levels))
	for i, l := range levels {
		views := make([]ContributionView, len(l.Contributions))
		for j, c := range l.Contributions {
			views[j] = ContributionView{Provider: c.Provider, Volume: c.Tier.Millions()}
		}
		out[i] = LevelView{Price: l.Price, Volume: l.Volume, Contributions: views}
	}
	return out
}
