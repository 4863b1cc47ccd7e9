package book

// Side selects one half of the book.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "Buy"
	}
	return "Sell"
}

// Tier is a quoted volume bucket in millions of base currency.
type Tier int64

const (
	Tier1M Tier = 1
	Tier3M Tier = 3
	Tier5M Tier = 5
)

// Tiers lists the quoted volume buckets in wire order.
var Tiers = [3]Tier{Tier1M, Tier3M, Tier5M}

// Millions returns the tier's notional size in millions.
func (t Tier) Millions() int64 { return int64(t) }
