package book

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/MJRob1/fx-sim-agg/internal/quote"
)

func mustParse(t *testing.T, raw string) quote.Record {
	t.Helper()
	rec, err := quote.Parse(raw, 4)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return rec
}

// checkInvariants asserts the post-apply book invariants: strict sort order
// on both sides, no crossed book, spread above minimum, volume conservation
// and the one-contribution-per-provider-tier rule.
func checkInvariants(t *testing.T, b *Book, minSpread decimal.Decimal) {
	t.Helper()
	for i := 1; i < b.buys.depth(); i++ {
		if !b.buys.levels[i].Price.LessThan(b.buys.levels[i-1].Price) {
			t.Fatalf("buy side not strictly descending at index %d", i)
		}
	}
	for i := 1; i < b.sells.depth(); i++ {
		if !b.sells.levels[i].Price.GreaterThan(b.sells.levels[i-1].Price) {
			t.Fatalf("sell side not strictly ascending at index %d", i)
		}
	}
	bid, okB := b.BestBid()
	ask, okA := b.BestAsk()
	if okB && okA {
		if !bid.LessThan(ask) {
			t.Fatalf("crossed book: best bid %s >= best ask %s", bid, ask)
		}
		if !ask.Sub(bid).GreaterThan(minSpread) {
			t.Fatalf("spread %s not above minimum %s", ask.Sub(bid), minSpread)
		}
	}
	for _, s := range []*sideStore{&b.buys, &b.sells} {
		seen := map[Contribution]bool{}
		for _, l := range s.levels {
			if len(l.Contributions) == 0 {
				t.Fatalf("level %s on %s side has no contributions", l.Price, s.side)
			}
			var sum int64
			for _, c := range l.Contributions {
				if seen[c] {
					t.Fatalf("provider %s tier %d appears twice on %s side", c.Provider, c.Tier, s.side)
				}
				seen[c] = true
				sum += c.Tier.Millions()
			}
			if sum != l.Volume {
				t.Fatalf("level %s: aggregate volume %d != contribution sum %d", l.Price, l.Volume, sum)
			}
		}
	}
}

const citiRecord = "CITI|USD/EUR|1.2000|1.2010|1.1998|1.2012|1.1995|1.2015|100"

func TestApplyFirstQuotePopulatesBothSides(t *testing.T) {
	b := New("USD/EUR", 4, d("2"))
	if err := b.Apply(mustParse(t, citiRecord)); err != nil {
		t.Fatalf("unexpected apply error: %v", err)
	}

	wantBuys := []struct {
		price string
		vol   int64
	}{{"1.2000", 1}, {"1.1998", 3}, {"1.1995", 5}}
	if b.buys.depth() != 3 {
		t.Fatalf("expected 3 buy levels, got %d", b.buys.depth())
	}
	for i, w := range wantBuys {
		l := b.buys.levels[i]
		if !l.Price.Equal(d(w.price)) || l.Volume != w.vol {
			t.Fatalf("buy level %d: expected %s vol %d, got %s vol %d", i, w.price, w.vol, l.Price, l.Volume)
		}
		if len(l.Contributions) != 1 || l.Contributions[0].Provider != "CITI" {
			t.Fatalf("buy level %d: expected single CITI contribution", i)
		}
	}

	wantSells := []struct {
		price string
		vol   int64
	}{{"1.2010", 1}, {"1.2012", 3}, {"1.2015", 5}}
	if b.sells.depth() != 3 {
		t.Fatalf("expected 3 sell levels, got %d", b.sells.depth())
	}
	for i, w := range wantSells {
		l := b.sells.levels[i]
		if !l.Price.Equal(d(w.price)) || l.Volume != w.vol {
			t.Fatalf("sell level %d: expected %s vol %d, got %s vol %d", i, w.price, w.vol, l.Price, l.Volume)
		}
	}

	if b.LastUpdate() != 100 {
		t.Fatalf("expected book timestamp 100, got %d", b.LastUpdate())
	}
	checkInvariants(t, b, d("2").Shift(-4))
}

func TestApplySecondProviderBecomesBestBid(t *testing.T) {
	b := New("USD/EUR", 4, d("2"))
	if err := b.Apply(mustParse(t, citiRecord)); err != nil {
		t.Fatalf("unexpected apply error: %v", err)
	}
	// RBS 1M buy at 1.2005: above CITI's best bid, below CITI's best ask.
	rbs := "RBS|USD/EUR|1.2005|1.2011|1.2003|1.2013|1.2001|1.2016|101"
	if err := b.Apply(mustParse(t, rbs)); err != nil {
		t.Fatalf("unexpected apply error: %v", err)
	}
	bid, ok := b.BestBid()
	if !ok || !bid.Equal(d("1.2005")) {
		t.Fatalf("expected RBS 1.2005 as best bid, got %s", bid)
	}
	top := b.buys.levels[0]
	if len(top.Contributions) != 1 || top.Contributions[0].Provider != "RBS" {
		t.Fatalf("expected best bid contributed by RBS")
	}
	// RBS's three buy tiers all sort above CITI's previous best of 1.2000.
	if !b.buys.levels[3].Price.Equal(d("1.2000")) {
		t.Fatalf("expected CITI 1.2000 below RBS tiers, got %s", b.buys.levels[3].Price)
	}
	checkInvariants(t, b, d("2").Shift(-4))
}

func TestApplyRequoteIsIdempotent(t *testing.T) {
	b := New("USD/EUR", 4, d("2"))
	rec := mustParse(t, citiRecord)
	if err := b.Apply(rec); err != nil {
		t.Fatalf("unexpected apply error: %v", err)
	}
	once := b.Snapshot()
	if err := b.Apply(rec); err != nil {
		t.Fatalf("unexpected apply error: %v", err)
	}
	twice := b.Snapshot()
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("applying the same record twice changed the book:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestApplyResolvesCrossedBook(t *testing.T) {
	b := New("USD/EUR", 4, d("2"))
	if err := b.Apply(mustParse(t, citiRecord)); err != nil {
		t.Fatalf("unexpected apply error: %v", err)
	}
	// RBS's aggressive 1M buy at 1.2012 crosses CITI's sells at 1.2010 and
	// 1.2012. The whole crossing run must go, not just the top level.
	rbs := "RBS|USD/EUR|1.2012|1.2020|1.2010|1.2022|1.2008|1.2025|101"
	if err := b.Apply(mustParse(t, rbs)); err != nil {
		t.Fatalf("unexpected apply error: %v", err)
	}
	bid, _ := b.BestBid()
	if !bid.Equal(d("1.2012")) {
		t.Fatalf("expected best bid 1.2012, got %s", bid)
	}
	ask, ok := b.BestAsk()
	if !ok || !ask.Equal(d("1.2015")) {
		t.Fatalf("expected crossing sells removed and best ask 1.2015, got %s", ask)
	}
	for _, l := range b.sells.levels {
		if l.Price.LessThanOrEqual(bid) {
			t.Fatalf("crossing sell level %s left in book", l.Price)
		}
	}
	checkInvariants(t, b, d("2").Shift(-4))
}

func TestApplyEnforcesMinimumSpread(t *testing.T) {
	// 12 pip minimum: CITI's 10 pip spread must be widened by trimming.
	b := New("USD/EUR", 4, d("12"))
	if err := b.Apply(mustParse(t, citiRecord)); err != nil {
		t.Fatalf("unexpected apply error: %v", err)
	}
	// First trim hits the buy side (3v3 tie favors buy), second the sell
	// side (2v3), leaving 1.2012 - 1.1998 = 14 pips.
	bid, _ := b.BestBid()
	ask, _ := b.BestAsk()
	if !bid.Equal(d("1.1998")) || !ask.Equal(d("1.2012")) {
		t.Fatalf("expected 1.1998/1.2012 after trimming, got %s/%s", bid, ask)
	}
	if b.buys.depth() != 2 || b.sells.depth() != 2 {
		t.Fatalf("expected 2 levels per side, got %d/%d", b.buys.depth(), b.sells.depth())
	}
	checkInvariants(t, b, d("12").Shift(-4))
}

func TestApplyMinimumSpreadToleratesEmptiedSide(t *testing.T) {
	// Impossibly wide minimum: trimming stops when a side empties instead
	// of failing the update.
	b := New("USD/EUR", 4, d("500"))
	if err := b.Apply(mustParse(t, citiRecord)); err != nil {
		t.Fatalf("unexpected apply error: %v", err)
	}
	if b.buys.depth() != 0 && b.sells.depth() != 0 {
		t.Fatalf("expected one side emptied, got %d/%d", b.buys.depth(), b.sells.depth())
	}
}

func TestApplyRejectsPairMismatch(t *testing.T) {
	b := New("USD/EUR", 4, d("2"))
	if err := b.Apply(mustParse(t, citiRecord)); err != nil {
		t.Fatalf("unexpected apply error: %v", err)
	}
	before := b.Snapshot()

	wrong := "UBS|EUR/GBP|0.8600|0.8610|0.8598|0.8612|0.8595|0.8615|200"
	err := b.Apply(mustParse(t, wrong))
	var pm *PairMismatchError
	if !errors.As(err, &pm) {
		t.Fatalf("expected PairMismatchError, got %v", err)
	}
	after := b.Snapshot()
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("rejected record mutated the book")
	}
}

func TestApplyProviderMovingPriceLeavesNoResidue(t *testing.T) {
	b := New("USD/EUR", 4, d("2"))
	if err := b.Apply(mustParse(t, citiRecord)); err != nil {
		t.Fatalf("unexpected apply error: %v", err)
	}
	moved := "CITI|USD/EUR|1.2002|1.2011|1.1999|1.2013|1.1996|1.2016|102"
	if err := b.Apply(mustParse(t, moved)); err != nil {
		t.Fatalf("unexpected apply error: %v", err)
	}
	if b.buys.depth() != 3 || b.sells.depth() != 3 {
		t.Fatalf("expected 3 levels per side after requote, got %d/%d", b.buys.depth(), b.sells.depth())
	}
	if _, ok := b.BestBid(); !ok {
		t.Fatalf("expected non-empty buy side")
	}
	for _, l := range b.buys.levels {
		if l.Price.Equal(d("1.2000")) || l.Price.Equal(d("1.1998")) || l.Price.Equal(d("1.1995")) {
			t.Fatalf("stale CITI buy level %s left behind", l.Price)
		}
	}
	checkInvariants(t, b, d("2").Shift(-4))
}

func TestApplyMergesEqualPricesAcrossProviders(t *testing.T) {
	b := New("USD/EUR", 4, d("2"))
	if err := b.Apply(mustParse(t, citiRecord)); err != nil {
		t.Fatalf("unexpected apply error: %v", err)
	}
	// RBS quotes identical prices: every level merges instead of duplicating.
	rbs := "RBS|USD/EUR|1.2000|1.2010|1.1998|1.2012|1.1995|1.2015|101"
	if err := b.Apply(mustParse(t, rbs)); err != nil {
		t.Fatalf("unexpected apply error: %v", err)
	}
	if b.buys.depth() != 3 || b.sells.depth() != 3 {
		t.Fatalf("expected merged levels, got %d/%d", b.buys.depth(), b.sells.depth())
	}
	top := b.buys.levels[0]
	if top.Volume != 2 || len(top.Contributions) != 2 {
		t.Fatalf("expected best bid volume 2 from two contributions, got %d from %d", top.Volume, len(top.Contributions))
	}
	checkInvariants(t, b, d("2").Shift(-4))
}

func TestTrimPolicyIsConfigurable(t *testing.T) {
	// Always trim the sell side: the buy side must survive intact.
	b := New("USD/EUR", 4, d("12"), WithTrimPolicy(func(buyDepth, sellDepth int) Side {
		return Sell
	}))
	if err := b.Apply(mustParse(t, citiRecord)); err != nil {
		t.Fatalf("unexpected apply error: %v", err)
	}
	if b.buys.depth() != 3 {
		t.Fatalf("expected untouched buy side, got %d levels", b.buys.depth())
	}
	bid, _ := b.BestBid()
	ask, _ := b.BestAsk()
	if !bid.Equal(d("1.2000")) || !ask.Equal(d("1.2015")) {
		t.Fatalf("expected 1.2000/1.2015, got %s/%s", bid, ask)
	}
}
