package ladder

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/MJRob1/fx-sim-agg/internal/book"
)

func testSnapshot() book.Snapshot {
	d := decimal.RequireFromString
	return book.Snapshot{
		Pair:       "USD/EUR",
		Precision:  4,
		LastUpdate: 1700000000000000000,
		Buys: []book.LevelView{
			{Price: d("1.2000"), Volume: 1, Contributions: []book.ContributionView{{Provider: "CITI", Volume: 1}}},
			{Price: d("1.1998"), Volume: 4, Contributions: []book.ContributionView{{Provider: "CITI", Volume: 3}, {Provider: "RBS", Volume: 1}}},
		},
		Sells: []book.LevelView{
			{Price: d("1.2010"), Volume: 1, Contributions: []book.ContributionView{{Provider: "CITI", Volume: 1}}},
			{Price: d("1.2015"), Volume: 5, Contributions: []book.ContributionView{{Provider: "CITI", Volume: 5}}},
		},
	}
}

func TestRenderStacksSellsAboveBuys(t *testing.T) {
	out := Render(testSnapshot())
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "USD/EUR") {
		t.Fatalf("header missing pair: %q", lines[0])
	}
	// Sells worst-to-best on top so the best ask sits nearest the spread.
	if !strings.Contains(lines[1], "1.2015") || !strings.Contains(lines[2], "1.2010") {
		t.Fatalf("sells not stacked worst-to-best:\n%s", out)
	}
	if !strings.HasPrefix(lines[3], "---") {
		t.Fatalf("expected separator between sides, got %q", lines[3])
	}
	// Buys best-to-worst below.
	if !strings.Contains(lines[4], "1.2000") || !strings.Contains(lines[5], "1.1998") {
		t.Fatalf("buys not stacked best-to-worst:\n%s", out)
	}
}

func TestRenderShowsContributions(t *testing.T) {
	out := Render(testSnapshot())
	if !strings.Contains(out, "(CITI: 3, RBS: 1)") {
		t.Fatalf("contribution list not rendered:\n%s", out)
	}
	if !strings.Contains(out, "Sell 1.2015   5  (CITI: 5)") {
		t.Fatalf("sell line not rendered as expected:\n%s", out)
	}
}

func TestRenderEmptyBook(t *testing.T) {
	out := Render(book.Snapshot{Pair: "USD/EUR", Precision: 4})
	if !strings.Contains(out, "no quotes yet") {
		t.Fatalf("expected empty-book header, got:\n%s", out)
	}
}
