// Package ladder renders aggregated book snapshots for humans: a plain text
// ladder and an optional live terminal dashboard.
package ladder

import (
	"fmt"
	"strings"
	"time"

	"github.com/MJRob1/fx-sim-agg/internal/book"
)

// Render stacks the book around the spread: sells worst-to-best on top, a
// separator, then buys best-to-worst. Pure function of the snapshot.
func Render(snap book.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s book at %s\n", snap.Pair, renderTime(snap.LastUpdate))
	for i := len(snap.Sells) - 1; i >= 0; i-- {
		writeLevel(&b, "Sell", snap.Sells[i], snap.Precision)
	}
	b.WriteString(strings.Repeat("-", 40))
	b.WriteByte('\n')
	for _, l := range snap.Buys {
		writeLevel(&b, "Buy ", l, snap.Precision)
	}
	return b.String()
}

func writeLevel(b *strings.Builder, label string, l book.LevelView, precision int32) {
	parts := make([]string, len(l.Contributions))
	for i, c := range l.Contributions {
		parts[i] = fmt.Sprintf("%s: %d", c.Provider, c.Volume)
	}
	fmt.Fprintf(b, "%s %s %3d  (%s)\n", label, l.Price.StringFixed(precision), l.Volume, strings.Join(parts, ", "))
}

func renderTime(ts uint64) string {
	if ts == 0 {
		return "no quotes yet"
	}
	return time.Unix(0, int64(ts)).UTC().Format("15:04:05.000000")
}
