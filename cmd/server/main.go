// Package main runs the ledger service: the HTTP API for minting,
// trading, profit distribution and lucky payouts, the Prometheus
// metrics endpoint, and the optional ClickHouse activity mirror.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"token-ledger-engine/internal/api"
	"token-ledger-engine/internal/archive"
	"token-ledger-engine/internal/config"
	"token-ledger-engine/internal/eligibility"
	"token-ledger-engine/internal/logging"
	"token-ledger-engine/internal/lucky"
	"token-ledger-engine/internal/mint"
	"token-ledger-engine/internal/observability"
	"token-ledger-engine/internal/profit"
	"token-ledger-engine/internal/storage"
	chstore "token-ledger-engine/internal/storage/clickhouse"
	"token-ledger-engine/internal/storage/memory"
	"token-ledger-engine/internal/storage/migrations"
	pgstore "token-ledger-engine/internal/storage/postgres"
	"token-ledger-engine/internal/trade"
)

// realRand adapts the process-wide random source to the selector's
// injectable interface.
type realRand struct{}

func (realRand) Float64() float64 { return rand.Float64() }

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// Parse flags (env vars as defaults)
	listenAddr := flag.String("listen-addr", cfg.ListenAddr, "HTTP API address")
	metricsAddr := flag.String("metrics-addr", cfg.MetricsAddr, "Prometheus metrics HTTP address")
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.ClickhouseDSN, "ClickHouse connection string (optional)")
	useMemory := flag.Bool("use-memory", cfg.UseMemory, "Use in-memory storage instead of PostgreSQL")
	verbose := flag.Bool("verbose", cfg.Verbose, "Enable debug logging")
	luckyWindow := flag.Int("lucky-window", cfg.LuckyWindow, "Activity window for lucky candidate selection")
	archiveInterval := flag.Duration("archive-interval", time.Minute, "ClickHouse mirror sweep interval")
	flag.Parse()

	cfg.ListenAddr = *listenAddr
	cfg.MetricsAddr = *metricsAddr
	cfg.PostgresDSN = *postgresDSN
	cfg.ClickhouseDSN = *clickhouseDSN
	cfg.UseMemory = *useMemory
	cfg.Verbose = *verbose
	cfg.LuckyWindow = *luckyWindow

	logger := logging.New(cfg.Verbose)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()

		// A second signal, or a stuck shutdown, forces exit.
		select {
		case sig := <-sigCh:
			logger.Warn("received second signal, forcing exit", "signal", sig.String())
			os.Exit(1)
		case <-time.After(cfg.ShutdownGrace + 5*time.Second):
			logger.Warn("graceful shutdown timed out, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err = run(ctx, cfg, *archiveInterval, logger)
	close(done)

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, archiveInterval time.Duration, logger *slog.Logger) error {
	ledger, archiver, cleanup, err := createStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	clock := clockwork.NewRealClock()
	server := api.NewServer(cfg.ListenAddr,
		ledger,
		mint.NewDistributor(ledger, clock, logger),
		trade.NewProcessor(ledger, clock, logger),
		eligibility.NewTracker(ledger.Eligibility()),
		profit.NewDistributor(ledger, clock, logger),
		lucky.NewSelector(ledger, clock, logger, realRand{}, cfg.LuckyWindow),
		logger,
	)

	errCh := make(chan error, 2)

	go func() {
		if err := server.Start(); err != nil {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()

	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux()}
	go func() {
		logger.Info("starting metrics server", "addr", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	if archiver != nil {
		go archiver.Run(ctx, archiveInterval)
	}

	var runErr error
	select {
	case <-ctx.Done():
		runErr = ctx.Err()
	case err := <-errCh:
		runErr = err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api shutdown failed", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics shutdown failed", "error", err)
	}

	return runErr
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

// createStorage builds the ledger and, when a ClickHouse DSN is set, the
// archiver that mirrors the activity log into it. Migrations run on
// every start; they are idempotent.
func createStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Ledger, *archive.Archiver, func(), error) {
	if cfg.UseMemory {
		logger.Info("using in-memory storage")
		return memory.NewLedger(), nil, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}
	ledger := pgstore.NewLedger(pool)

	if cfg.ClickhouseDSN == "" {
		return ledger, nil, pool.Close, nil
	}

	conn, err := chstore.NewConn(ctx, cfg.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
		conn.Close()
		pool.Close()
		return nil, nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
	}

	archiver := archive.NewArchiver(ledger, chstore.NewActivityArchiveStore(conn), logger)
	cleanup := func() {
		conn.Close()
		pool.Close()
	}
	return ledger, archiver, cleanup, nil
}
