package book

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// sideStore holds one side's levels. Buy levels are kept descending by
// price, sell levels ascending, so index 0 is always top of book. Lookups
// are linear scans, which is fine at tens of providers.
type sideStore struct {
	side   Side
	levels []*Level
}

func (s *sideStore) findByPrice(price decimal.Decimal) *Level {
	for _, l := range s.levels {
		if l.Price.Equal(price) {
			return l
		}
	}
	return nil
}

// removeProviderTier expires the provider's previous quote at this tier,
// wherever it currently sits. If the holding level dies with it, the level
// is deleted and its index returned; otherwise -1.
func (s *sideStore) removeProviderTier(provider string, tier Tier) int {
	for i, l := range s.levels {
		if !l.remove(provider, tier) {
			continue
		}
		if l.empty() {
			s.levels = append(s.levels[:i], s.levels[i+1:]...)
			return i
		}
		return -1
	}
	return -1
}

// insertOrMerge adds the contribution to the level at price, creating the
// level if absent. New levels are appended; ordering is restored by the
// pipeline's sort step.
func (s *sideStore) insertOrMerge(provider string, tier Tier, price decimal.Decimal) {
	if l := s.findByPrice(price); l != nil {
		l.add(provider, tier)
		return
	}
	s.levels = append(s.levels, newLevel(s.side, price, provider, tier))
}

func (s *sideStore) sortLevels() {
	if s.side == Buy {
		sort.SliceStable(s.levels, func(i, j int) bool {
			return s.levels[i].Price.GreaterThan(s.levels[j].Price)
		})
		return
	}
	sort.SliceStable(s.levels, func(i, j int) bool {
		return s.levels[i].Price.LessThan(s.levels[j].Price)
	})
}

// removeFrontRun drops the first count levels. Asking for more levels than
// exist is an aggregation bug, not bad input, so it panics rather than
// returning an error.
func (s *sideStore) removeFrontRun(count int) {
	if count > len(s.levels) {
		panic(fmt.Sprintf("book: remove %d levels from %s side holding %d", count, s.side, len(s.levels)))
	}
	s.levels = append(s.levels[:0], s.levels[count:]...)
}

func (s *sideStore) depth() int { return len(s.levels) }

// best returns the top-of-book level, nil when the side is empty.
func (s *sideStore) best() *Level {
	if len(s.levels) == 0 {
		return nil
	}
	return s.levels[0]
}
