package replay

import (
	"bufio"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/MJRob1/fx-sim-agg/internal/book"
	"github.com/MJRob1/fx-sim-agg/internal/config"
	"github.com/MJRob1/fx-sim-agg/internal/quote"
)

// Offline audit-log replay harness. Feeds a previously captured audit log
// through the parser and pipeline against a fresh book and prints a summary.
// Env var: FXAGG_REPLAY_LOG=/path/to/fix.log
func RunAuditLog(cfg config.Config) error {
	path := os.Getenv("FXAGG_REPLAY_LOG")
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bk := book.New(cfg.Book.Pair, cfg.Book.PipPrecision, decimal.NewFromFloat(cfg.Book.MinSpreadPips))
	var applied, rejected int
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		rec, err := quote.Parse(line, bk.Precision())
		if err != nil {
			rejected++
			continue
		}
		if err := bk.Apply(rec); err != nil {
			rejected++
			continue
		}
		applied++
	}
	if err := sc.Err(); err != nil {
		return err
	}

	bid := "-"
	if p, ok := bk.BestBid(); ok {
		bid = p.StringFixed(bk.Precision())
	}
	ask := "-"
	if p, ok := bk.BestAsk(); ok {
		ask = p.StringFixed(bk.Precision())
	}
	fmt.Printf("replay applied=%d rejected=%d best_bid=%s best_ask=%s depth=%d/%d\n",
		applied, rejected, bid, ask, bk.Depth(book.Buy), bk.Depth(book.Sell))
	return nil
}
