package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	QuotesReceivedTotal = prometheus.NewCounter(prometheus.CounterOpts{Name: "quotes_received_total", Help: "Raw quote records received from the feed"})
	QuotesAppliedTotal  = prometheus.NewCounter(prometheus.CounterOpts{Name: "quotes_applied_total", Help: "Quote records applied to the book"})
	QuotesRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "quotes_rejected_total", Help: "Quote records rejected by reason"}, []string{"reason"})

	ApplyLatencyUs = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "apply_latency_us", Help: "Book update latency in microseconds", Buckets: prometheus.ExponentialBuckets(1, 2, 16)})

	CrossedLevelsRemoved = prometheus.NewCounter(prometheus.CounterOpts{Name: "crossed_levels_removed_total", Help: "Sell levels removed by crossed-book resolution"})
	SpreadTrimsTotal     = prometheus.NewCounter(prometheus.CounterOpts{Name: "spread_trims_total", Help: "Top-of-book levels removed by minimum-spread enforcement"})

	BookDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "book_depth_levels", Help: "Current level count by side"}, []string{"side"})
	BestBid   = prometheus.NewGauge(prometheus.GaugeOpts{Name: "best_bid_price", Help: "Best bid price"})
	BestAsk   = prometheus.NewGauge(prometheus.GaugeOpts{Name: "best_ask_price", Help: "Best ask price"})

	AuditWriteErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{Name: "audit_write_errors_total", Help: "Audit log write failures (non-fatal)"})
	FeedRecordsTotal      = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "feed_records_total", Help: "Records emitted per provider"}, []string{"provider"})
)

func Init(logger zerolog.Logger) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	toRegister := []prometheus.Collector{
		QuotesReceivedTotal, QuotesAppliedTotal, QuotesRejectedTotal,
		ApplyLatencyUs, CrossedLevelsRemoved, SpreadTrimsTotal,
		BookDepth, BestBid, BestAsk,
		AuditWriteErrorsTotal, FeedRecordsTotal,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister {
		_ = reg.Register(c)
	}
	logger.Info().Msg("Prometheus metrics initialized")
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
