package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
	Server struct {
		Addr                string   `yaml:"addr"`
		Pprof               bool     `yaml:"pprof"`
		ReadTimeoutSeconds  int      `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int      `yaml:"write_timeout_seconds"`
		IdleTimeoutSeconds  int      `yaml:"idle_timeout_seconds"`
		AdminAllowCIDRs     []string `yaml:"admin_allow_cidrs"`
	} `yaml:"server"`
	Book struct {
		Pair          string  `yaml:"pair"`
		PipPrecision  int32   `yaml:"pip_precision"`
		MinSpreadPips float64 `yaml:"min_spread_pips"`
	} `yaml:"book"`
	Feed struct {
		IntervalMillis int   `yaml:"interval_millis"`
		QueueSize      int   `yaml:"queue_size"`
		MaxPipsChange  int   `yaml:"max_pips_change"`
		Seed           int64 `yaml:"seed"`
	} `yaml:"feed"`
	Audit struct {
		Path string `yaml:"path"`
	} `yaml:"audit"`
	UI struct {
		Dashboard bool `yaml:"dashboard"`
		Ladder    bool `yaml:"ladder"`
	} `yaml:"ui"`
}

func defaultConfig() Config {
	var c Config
	c.Logging.Level = "info"
	c.Logging.Pretty = false
	c.Server.Addr = ":9090"
	c.Server.Pprof = false
	c.Server.ReadTimeoutSeconds = 5
	c.Server.WriteTimeoutSeconds = 10
	c.Server.IdleTimeoutSeconds = 60
	c.Server.AdminAllowCIDRs = []string{"127.0.0.0/8", "::1/128"}
	c.Book.Pair = "USD/EUR"
	c.Book.PipPrecision = 4
	c.Book.MinSpreadPips = 2
	c.Feed.IntervalMillis = 50
	c.Feed.QueueSize = 256
	c.Feed.MaxPipsChange = 5
	c.Feed.Seed = 0
	c.Audit.Path = "logs/fix.log"
	c.UI.Dashboard = false
	c.UI.Ladder = true
	return c
}

func Load() Config {
	c := defaultConfig()
	if path := os.Getenv("FXAGG_CONFIG"); path != "" {
		if b, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal(b, &c)
		}
	}
	if v := os.Getenv("FXAGG_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("FXAGG_HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("FXAGG_PPROF"); v == "1" || v == "true" {
		c.Server.Pprof = true
	}
	if v := os.Getenv("FXAGG_ADMIN_ALLOW_CIDRS"); v != "" {
		c.Server.AdminAllowCIDRs = splitCSV(v)
	}
	if v := os.Getenv("FXAGG_PAIR"); v != "" {
		c.Book.Pair = v
	}
	if v := os.Getenv("FXAGG_MIN_SPREAD_PIPS"); v != "" {
		var f float64
		_, _ = fmt.Sscan(v, &f)
		if f >= 0 {
			c.Book.MinSpreadPips = f
		}
	}
	if v := os.Getenv("FXAGG_FEED_INTERVAL_MS"); v != "" {
		var n int
		_, _ = fmt.Sscan(v, &n)
		if n > 0 {
			c.Feed.IntervalMillis = n
		}
	}
	if v := os.Getenv("FXAGG_QUEUE_SIZE"); v != "" {
		var n int
		_, _ = fmt.Sscan(v, &n)
		if n > 0 {
			c.Feed.QueueSize = n
		}
	}
	if v := os.Getenv("FXAGG_AUDIT_PATH"); v != "" {
		c.Audit.Path = v
	}
	if v := os.Getenv("FXAGG_DASHBOARD"); v == "1" || v == "true" {
		c.UI.Dashboard = true
	}
	return c
}

// Provider is one liquidity provider's simulation parameters, read from the
// comma-delimited providers file:
// provider, currency_pair, initial_buy_price, spread_pips, three_mill_markup_pips, five_mill_markup_pips
type Provider struct {
	Name            string
	Pair            string
	InitialBuy      decimal.Decimal
	Spread          decimal.Decimal // price offset, already converted from pips
	ThreeMillMarkup decimal.Decimal
	FiveMillMarkup  decimal.Decimal
}

// LoadProviders reads the providers file. The header line is skipped; pip
// columns are converted to price offsets at the given pip precision.
func LoadProviders(path string, precision int32) ([]Provider, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read providers file: %w", err)
	}
	var providers []Provider
	lines := strings.Split(string(b), "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || i == 0 { // header line ignored
			continue
		}
		p, err := parseProviderLine(line, precision)
		if err != nil {
			return nil, fmt.Errorf("providers file line %d: %w", i+1, err)
		}
		providers = append(providers, p)
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("providers file %s holds no provider entries", path)
	}
	return providers, nil
}

func parseProviderLine(line string, precision int32) (Provider, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 6 {
		return Provider{}, fmt.Errorf("have %d fields, need 6", len(fields))
	}
	name := strings.TrimSpace(fields[0])
	pair := strings.TrimSpace(fields[1])
	if name == "" || pair == "" {
		return Provider{}, fmt.Errorf("provider and currency pair must not be empty")
	}
	price, err := decimal.NewFromString(strings.TrimSpace(fields[2]))
	if err != nil {
		return Provider{}, fmt.Errorf("initial buy price: %w", err)
	}
	spread, err := pipsToPrice(fields[3], precision)
	if err != nil {
		return Provider{}, fmt.Errorf("spread pips: %w", err)
	}
	three, err := pipsToPrice(fields[4], precision)
	if err != nil {
		return Provider{}, fmt.Errorf("three mill markup pips: %w", err)
	}
	five, err := pipsToPrice(fields[5], precision)
	if err != nil {
		return Provider{}, fmt.Errorf("five mill markup pips: %w", err)
	}
	return Provider{
		Name:            name,
		Pair:            pair,
		InitialBuy:      price.Round(precision),
		Spread:          spread,
		ThreeMillMarkup: three,
		FiveMillMarkup:  five,
	}, nil
}

// pipsToPrice converts a pip count (possibly fractional, e.g. ".25") to a
// decimal price offset: pips / 10^precision.
func pipsToPrice(s string, precision int32) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, err
	}
	return d.Shift(-precision), nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
