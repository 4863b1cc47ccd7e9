// Package feed generates per-provider simulated FX quote streams and merges
// them into one arrival-ordered sequence for the aggregation pipeline.
package feed

import (
	"context"
	"hash/fnv"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MJRob1/fx-sim-agg/internal/config"
	"github.com/MJRob1/fx-sim-agg/internal/infra/metrics"
	"github.com/MJRob1/fx-sim-agg/internal/quote"
)

// Source is one stream of raw quote records. Run blocks until ctx is
// cancelled, sending records on out; sends block when the queue is full so
// producers are paced by the consumer.
type Source interface {
	Name() string
	Run(ctx context.Context, out chan<- string) error
}

// Simulator emits simulated quotes for one liquidity provider: a random walk
// of up to maxPips on the 1M buy each tick, sell at the provider's spread,
// and tier prices marked up away from the 1M prices (larger size, worse
// price).
type Simulator struct {
	provider  config.Provider
	precision int32
	interval  time.Duration
	maxPips   int
	rng       *rand.Rand
	buy       decimal.Decimal
}

// NewSimulator builds a simulator for one provider. seed zero derives a
// per-provider seed from the provider name and wall clock; non-zero seeds
// are deterministic per provider for tests.
func NewSimulator(p config.Provider, precision int32, interval time.Duration, maxPips int, seed int64) *Simulator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(p.Name))
	return &Simulator{
		provider:  p,
		precision: precision,
		interval:  interval,
		maxPips:   maxPips,
		rng:       rand.New(rand.NewSource(seed ^ int64(h.Sum64()))),
		buy:       p.InitialBuy,
	}
}

func (s *Simulator) Name() string { return s.provider.Name }

func (s *Simulator) Run(ctx context.Context, out chan<- string) error {
	tick := time.NewTicker(s.interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			rec := s.next()
			select {
			case out <- rec:
				metrics.FeedRecordsTotal.WithLabelValues(s.provider.Name).Inc()
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// next advances the random walk and renders the 9-field wire record.
func (s *Simulator) next() string {
	pips := int64(1 + s.rng.Intn(s.maxPips))
	change := decimal.New(pips, -s.precision)
	if s.rng.Intn(2) == 0 {
		s.buy = s.buy.Add(change)
	} else {
		s.buy = s.buy.Sub(change)
	}
	s.buy = s.buy.Round(s.precision)

	p := s.provider
	sell := s.buy.Add(p.Spread)
	buy3 := s.buy.Sub(p.ThreeMillMarkup)
	sell3 := sell.Add(p.ThreeMillMarkup)
	buy5 := s.buy.Sub(p.FiveMillMarkup)
	sell5 := sell.Add(p.FiveMillMarkup)

	fields := []string{
		p.Name,
		p.Pair,
		s.buy.StringFixed(s.precision),
		sell.StringFixed(s.precision),
		buy3.StringFixed(s.precision),
		sell3.StringFixed(s.precision),
		buy5.StringFixed(s.precision),
		sell5.StringFixed(s.precision),
		timestamp(),
	}
	return strings.Join(fields, quote.Delimiter)
}

func timestamp() string {
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}
