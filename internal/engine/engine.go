// Package engine is the single consumer of the multiplexed quote feed. It
// audit-logs, parses, and applies each record to the book, run to
// completion, before accepting the next. That discipline is what lets the
// book go lock-free: no two mutations ever interleave.
package engine

import (
	"errors"
	"time"

	"github.com/MJRob1/fx-sim-agg/internal/audit"
	"github.com/MJRob1/fx-sim-agg/internal/book"
	"github.com/MJRob1/fx-sim-agg/internal/config"
	"github.com/MJRob1/fx-sim-agg/internal/infra/log"
	"github.com/MJRob1/fx-sim-agg/internal/infra/metrics"
	"github.com/MJRob1/fx-sim-agg/internal/quote"
)

// Publisher receives a fresh snapshot after each successful apply. Called
// from the consumer goroutine, never concurrently.
type Publisher func(book.Snapshot)

type Engine struct {
	cfg     config.Config
	logger  log.Logger
	book    *book.Book
	audit   *audit.Writer
	publish Publisher
}

func New(cfg config.Config, logger log.Logger, bk *book.Book, auditW *audit.Writer, publish Publisher) *Engine {
	return &Engine{cfg: cfg, logger: logger, book: bk, audit: auditW, publish: publish}
}

// Run consumes records until the channel closes. The feed mux closes the
// channel only after every producer has stopped, so whatever is queued at
// shutdown still drains through here; no record is dropped mid-drain.
// Rejected records are logged and skipped; the book is untouched by them.
func (e *Engine) Run(records <-chan string) error {
	for raw := range records {
		metrics.QuotesReceivedTotal.Inc()

		if e.audit != nil {
			if err := e.audit.Write(raw); err != nil {
				// A dropped audit line must not stop aggregation.
				e.logger.Error().Err(err).Msg("audit log write failed")
			}
		}

		rec, err := quote.Parse(raw, e.book.Precision())
		if err != nil {
			metrics.QuotesRejectedTotal.WithLabelValues(rejectReason(err)).Inc()
			e.logger.Warn().Err(err).Str("record", raw).Msg("market data not processed")
			continue
		}

		start := time.Now()
		if err := e.book.Apply(rec); err != nil {
			metrics.QuotesRejectedTotal.WithLabelValues(rejectReason(err)).Inc()
			e.logger.Warn().Err(err).Str("provider", rec.Provider).Msg("market data not processed")
			continue
		}
		metrics.ApplyLatencyUs.Observe(float64(time.Since(start).Microseconds()))
		metrics.QuotesAppliedTotal.Inc()

		if e.publish != nil {
			e.publish(e.book.Snapshot())
		}
	}
	return nil
}

func rejectReason(err error) string {
	var (
		fieldCount *quote.FieldCountError
		emptyField *quote.EmptyFieldError
		numeric    *quote.NumericFormatError
		pair       *book.PairMismatchError
	)
	switch {
	case errors.As(err, &fieldCount):
		return "field_count"
	case errors.As(err, &emptyField):
		return "empty_field"
	case errors.As(err, &numeric):
		return "numeric_format"
	case errors.As(err, &pair):
		return "pair_mismatch"
	}
	return "other"
}
