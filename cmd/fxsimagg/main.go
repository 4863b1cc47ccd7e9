package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/MJRob1/fx-sim-agg/internal/audit"
	"github.com/MJRob1/fx-sim-agg/internal/book"
	"github.com/MJRob1/fx-sim-agg/internal/config"
	"github.com/MJRob1/fx-sim-agg/internal/engine"
	"github.com/MJRob1/fx-sim-agg/internal/feed"
	"github.com/MJRob1/fx-sim-agg/internal/infra/health"
	"github.com/MJRob1/fx-sim-agg/internal/infra/http/middleware"
	"github.com/MJRob1/fx-sim-agg/internal/infra/log"
	"github.com/MJRob1/fx-sim-agg/internal/infra/metrics"
	"github.com/MJRob1/fx-sim-agg/internal/infra/netutil"
	"github.com/MJRob1/fx-sim-agg/internal/infra/runner"
	"github.com/MJRob1/fx-sim-agg/internal/infra/version"
	"github.com/MJRob1/fx-sim-agg/internal/ladder"
	"github.com/MJRob1/fx-sim-agg/internal/replay"
)

func main() {
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()
	logger := log.NewLogger(cfg)

	// Offline replay mode: feed a captured audit log through the pipeline
	// and exit.
	if os.Getenv("FXAGG_REPLAY_LOG") != "" {
		if err := replay.RunAuditLog(cfg); err != nil {
			logger.Error().Err(err).Msg("replay failed")
			os.Exit(1)
		}
		return
	}

	// Providers file path is the only CLI argument.
	providersPath := "providers.csv"
	if len(os.Args) > 1 {
		providersPath = os.Args[1]
	}
	providers, err := config.LoadProviders(providersPath, cfg.Book.PipPrecision)
	if err != nil {
		logger.Error().Err(err).Str("path", providersPath).Msg("config input file not processed")
		os.Exit(1)
	}

	auditW, err := audit.NewWriter(cfg.Audit.Path)
	if err != nil {
		logger.Error().Err(err).Str("path", cfg.Audit.Path).Msg("problem creating audit log file")
		os.Exit(1)
	}

	// Init metrics and start admin HTTP endpoint
	registry := metrics.Init(logger)
	mux := http.NewServeMux()
	adminCIDRs := netutil.MustParseCIDRs(cfg.Server.AdminAllowCIDRs)
	mux.Handle("/metrics", middleware.AdminGate(adminCIDRs, metrics.Handler(registry)))
	mux.HandleFunc("/healthz", health.Healthz)
	mux.HandleFunc("/readyz", health.Readyz)
	mux.HandleFunc("/version", version.Handler)
	if cfg.Server.Pprof {
		mux.Handle("/debug/pprof/", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Index)))
		mux.Handle("/debug/pprof/cmdline", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Cmdline)))
		mux.Handle("/debug/pprof/profile", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Profile)))
		mux.Handle("/debug/pprof/symbol", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Symbol)))
		mux.Handle("/debug/pprof/trace", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Trace)))
	}
	handler := middleware.RequestID(middleware.Logger(logger)(mux))

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	bk := book.New(cfg.Book.Pair, cfg.Book.PipPrecision, decimal.NewFromFloat(cfg.Book.MinSpreadPips))

	g := &runner.Group{}

	// Snapshot consumers: live dashboard or plain ladder printing.
	var publish engine.Publisher
	var dashErrCh <-chan error
	if cfg.UI.Dashboard {
		dash := ladder.NewDashboard()
		publish = dash.Update
		dashErrCh = g.Go(ctx, func(ctx context.Context) error {
			return dash.Run(ctx, cfg.Book.Pair)
		})
	} else if cfg.UI.Ladder {
		publish = func(snap book.Snapshot) {
			fmt.Println(ladder.Render(snap))
		}
	}

	// Producers share one bounded queue; the consumer drains it to
	// completion after producers stop.
	interval := time.Duration(cfg.Feed.IntervalMillis) * time.Millisecond
	sources := make([]feed.Source, 0, len(providers))
	for _, p := range providers {
		sources = append(sources, feed.NewSimulator(p, cfg.Book.PipPrecision, interval, cfg.Feed.MaxPipsChange, cfg.Feed.Seed))
	}
	fm := feed.Start(ctx, sources, cfg.Feed.QueueSize)

	eng := engine.New(cfg, logger, bk, auditW, publish)
	workerErrCh := g.Go(ctx, func(ctx context.Context) error {
		return eng.Run(fm.Records())
	})

	health.SetReady(true)
	logger.Info().
		Str("pair", cfg.Book.Pair).
		Int("providers", len(providers)).
		Str("addr", cfg.Server.Addr).
		Msg("FX aggregator started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-ctx.Done():
	case s := <-sigCh:
		logger.Info().Str("signal", s.String()).Msg("shutdown signal received")
	case err := <-workerErrCh:
		if err != nil {
			logger.Error().Err(err).Msg("aggregation worker error")
			health.SetReady(false)
		}
	case err := <-dashErrCh:
		if err != nil {
			logger.Error().Err(err).Msg("dashboard error")
		}
	}

	health.SetReady(false)

	// Stop producers first, then let the consumer drain the queue before
	// anything else shuts down.
	cancel()
	if err := <-workerErrCh; err != nil {
		logger.Error().Err(err).Msg("aggregation worker error during drain")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := auditW.Close(); err != nil {
		logger.Error().Err(err).Msg("problem closing audit log")
	}
	g.Wait()
	logger.Info().Msg("shutdown complete")
}
