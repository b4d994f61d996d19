// Package main is the entry point for the Tantika lifecycle server.
// It wires all dependencies together and starts the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ESAditya1729/tantika/internal/config"
	"github.com/ESAditya1729/tantika/internal/idempotency"
	"github.com/ESAditya1729/tantika/internal/notify"
	"github.com/ESAditya1729/tantika/internal/observability"
	"github.com/ESAditya1729/tantika/internal/store"
	"github.com/ESAditya1729/tantika/internal/transport"
	"github.com/ESAditya1729/tantika/internal/workflow"
)

// Build-time variables set via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc1234"
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Step 1: Parse CLI flags. A local .env is a convenience for development
	// and is ignored when absent.
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()
	_ = godotenv.Load()

	// Step 2: Load configuration.
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}

	// Step 3: Initialize telemetry (logger, tracer, metrics).
	observability.Version = version
	observability.Commit = commit

	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	tracingShutdown, err := observability.InitTracing(ctx, cfg.Observability.Tracing, "tantika", version)
	if err != nil {
		logger.Error("tracing initialization failed", zap.Error(err))
		return 1
	}

	metrics := observability.InitMetrics(prometheus.DefaultRegisterer)

	// Step 4: Initialize entity stores.
	orders, artisans, storeCloser, err := buildStores(ctx, cfg.Store, logger)
	if err != nil {
		logger.Error("store initialization failed", zap.Error(err))
		return 1
	}

	// Step 5: Initialize the notifier.
	notifier, notifierCloser, err := buildNotifier(cfg.Notifier, metrics, logger)
	if err != nil {
		logger.Error("notifier initialization failed", zap.Error(err))
		return 1
	}

	// Step 6: Initialize the idempotency store.
	idemStore, idemCloser := buildIdempotencyStore(cfg.Idempotency, logger)

	// Step 7: Build the lifecycle engine.
	engine := workflow.NewEngine(orders, artisans, notifier, metrics, logger)

	// Step 8: Build the HTTP router.
	readiness := observability.ReadinessChecks{}
	if hc, ok := orders.(observability.HealthChecker); ok {
		readiness.OrderStore = hc
	}
	if hc, ok := artisans.(observability.HealthChecker); ok {
		readiness.ArtisanStore = hc
	}
	if hc, ok := notifier.(observability.HealthChecker); ok {
		readiness.Notifier = hc
	}
	if hc, ok := idemStore.(observability.HealthChecker); ok {
		readiness.IdempotencyStore = hc
	}

	router := transport.NewRouter(transport.Dependencies{
		Config:      cfg,
		Engine:      engine,
		Logger:      logger,
		Metrics:     metrics,
		Idempotency: idemStore,
		Readiness:   readiness,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Step 9: Start the HTTP server.
	logger.Info("server started",
		zap.Int("port", cfg.Server.Port),
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("store", cfg.Store.Driver),
		zap.String("notifier", cfg.Notifier.Driver),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info("shutdown initiated")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		return 1
	}

	// Graceful shutdown sequence.
	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// Stop accepting new connections and drain in-flight requests.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// Flush pending notifications, then close stores.
	if notifierCloser != nil {
		notifierCloser()
	}
	if idemCloser != nil {
		idemCloser()
	}
	if storeCloser != nil {
		storeCloser()
	}

	// Flush telemetry.
	if err := tracingShutdown(shutdownCtx); err != nil {
		logger.Error("tracing shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return 0
}

// buildStores creates the order and artisan stores based on config.
func buildStores(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (store.OrderStore, store.ArtisanStore, func(), error) {
	switch cfg.Driver {
	case "memory":
		logger.Info("using in-memory entity stores")
		return store.NewMemoryOrderStore(), store.NewMemoryArtisanStore(), nil, nil
	case "postgres":
		dsn := os.Getenv(cfg.DSNEnv)
		if dsn == "" {
			return nil, nil, nil, fmt.Errorf("store: %s environment variable not set", cfg.DSNEnv)
		}

		poolCfg, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("store: parse DSN: %w", err)
		}
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("store: connect: %w", err)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("store: ping: %w", err)
		}

		if cfg.Migrate {
			if err := store.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, nil, fmt.Errorf("store: migrate: %w", err)
			}
		}

		return store.NewPgOrderStore(pool), store.NewPgArtisanStore(pool), pool.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("unsupported store driver: %q", cfg.Driver)
	}
}

// buildNotifier creates the notification publisher based on config.
func buildNotifier(cfg config.NotifierConfig, metrics *observability.Metrics, logger *zap.Logger) (notify.Notifier, func(), error) {
	switch cfg.Driver {
	case "log", "":
		logger.Info("using log notifier")
		return notify.NewLogNotifier(logger), nil, nil
	case "kafka":
		if len(cfg.Brokers) == 0 {
			return nil, nil, fmt.Errorf("notifier: kafka driver requires brokers")
		}
		kn := notify.NewKafkaNotifier(notify.KafkaOptions{
			Brokers: cfg.Brokers,
			Topic:   cfg.Topic,
			Buffer:  cfg.Buffer,
			OnError: func() { metrics.NotificationFailuresTotal.Inc() },
		}, logger)
		return kn, kn.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported notifier driver: %q", cfg.Driver)
	}
}

// buildIdempotencyStore creates the idempotency store based on config.
// Returns a nil store when the concern is disabled.
func buildIdempotencyStore(cfg config.IdempotencyConfig, logger *zap.Logger) (idempotency.Store, func()) {
	if !cfg.Enabled {
		return nil, nil
	}

	switch cfg.Driver {
	case "redis":
		addr := os.Getenv(cfg.AddrEnv)
		if addr == "" {
			logger.Warn("idempotency: redis address not configured, using in-memory store")
			return idempotency.NewMemoryStore(), nil
		}
		client := redis.NewClient(&redis.Options{Addr: addr, DB: cfg.DB})
		logger.Info("using redis idempotency store", zap.String("addr", addr))
		return idempotency.NewRedisStore(client), func() { _ = client.Close() }
	default:
		logger.Info("using in-memory idempotency store")
		return idempotency.NewMemoryStore(), nil
	}
}
