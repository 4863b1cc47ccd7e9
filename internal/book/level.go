package book

import (
	"github.com/shopspring/decimal"
)

// Contribution is one provider's quote resting at a level. A provider holds
// at most one contribution per (tier, side) across the whole book; the
// pipeline expires the previous one before each insert.
type Contribution struct {
	Provider string
	Tier     Tier
}

// Level is one aggregated price point on one side of the book. Volume is the
// sum of contribution tier sizes in millions; a level with no contributions
// must not exist.
type Level struct {
	Price         decimal.Decimal
	Volume        int64
	Side          Side
	Contributions []Contribution
}

func newLevel(side Side, price decimal.Decimal, provider string, tier Tier) *Level {
	return &Level{
		Price:         price,
		Volume:        tier.Millions(),
		Side:          side,
		Contributions: []Contribution{{Provider: provider, Tier: tier}},
	}
}

func (l *Level) add(provider string, tier Tier) {
	l.Contributions = append(l.Contributions, Contribution{Provider: provider, Tier: tier})
	l.Volume += tier.Millions()
}

// remove drops the (provider, tier) contribution if present and returns
// whether it was found.
func (l *Level) remove(provider string, tier Tier) bool {
	for i, c := range l.Contributions {
		if c.Provider == provider && c.Tier == tier {
			l.Contributions = append(l.Contributions[:i], l.Contributions[i+1:]...)
			l.Volume -= tier.Millions()
			return true
		}
	}
	return false
}

func (l *Level) empty() bool { return len(l.Contributions) == 0 }
