package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	httpapi "tallyman/internal/http"
	ledgerhandler "tallyman/internal/ledger/handler"
	ledgermetrics "tallyman/internal/ledger/metrics"
	"tallyman/internal/ledger/publisher"
	"tallyman/internal/ledger/service"
	keystore "tallyman/internal/ledger/store/keys"
	txstore "tallyman/internal/ledger/store/transaction"
	"tallyman/internal/platform/config"
	"tallyman/internal/platform/httpserver"
	"tallyman/internal/platform/kafka"
	"tallyman/internal/platform/logger"
	httpmetrics "tallyman/internal/platform/metrics"
	"tallyman/internal/platform/postgres"
	platformredis "tallyman/internal/platform/redis"
	"tallyman/internal/platform/tracing"
	"tallyman/pkg/platform/circuit"
)

// main wires the ledger service to its configured backends and serves the
// HTTP API until SIGINT or SIGTERM.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

// infra holds the connections opened for the configured backends.
type infra struct {
	db    *sql.DB
	redis *platformredis.Client
	kafka *kgo.Client
}

func (i *infra) close(log *slog.Logger) {
	if i.kafka != nil {
		i.kafka.Close()
	}
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			log.Warn("failed to close redis", "error", err)
		}
	}
	if i.db != nil {
		if err := i.db.Close(); err != nil {
			log.Warn("failed to close database", "error", err)
		}
	}
}

func (i *infra) readiness() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{}
	if i.db != nil {
		checks["postgres"] = i.db.PingContext
	}
	if i.redis != nil {
		checks["redis"] = i.redis.Health
	}
	return checks
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return err
	}

	var deps infra
	defer deps.close(log)

	if cfg.UsesPostgres() {
		deps.db, err = postgres.Open(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return err
		}
		if err := postgres.Migrate(ctx, deps.db); err != nil {
			return err
		}
	}
	if cfg.UsesRedis() {
		deps.redis, err = platformredis.New(cfg.Redis)
		if err != nil {
			return err
		}
	}

	transactions, err := newTransactionStore(cfg, deps)
	if err != nil {
		return err
	}
	keys, err := newKeyStore(cfg, deps)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	pub, err := newPublisher(ctx, cfg, log, &deps)
	if err != nil {
		return err
	}

	svc := service.New(transactions, keys,
		service.WithLogger(log),
		service.WithMetrics(ledgermetrics.New(reg)),
		service.WithPublisher(pub),
		service.WithTx(newStoreTx(cfg, deps)),
	)

	router := httpapi.NewRouter(ledgerhandler.New(svc, log), httpapi.Config{
		Logger:         log,
		Metrics:        httpmetrics.New(reg),
		Gatherer:       reg,
		RequestTimeout: cfg.Server.RequestTimeout,
		Readiness:      deps.readiness(),
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting tallyman",
			"addr", cfg.Server.Addr,
			"store", cfg.Store.Transactions,
			"key_store", cfg.Store.Keys,
			"append_lock", cfg.Store.AppendLock,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warn("failed to flush traces", "error", err)
		}
		return nil
	})
	return g.Wait()
}

func newTransactionStore(cfg config.Config, deps infra) (service.TransactionStore, error) {
	switch cfg.Store.Transactions {
	case config.BackendFile:
		return txstore.NewFile(cfg.Store.DataDir)
	case config.BackendPostgres:
		return txstore.NewPostgres(deps.db), nil
	default:
		return txstore.NewInMemory(), nil
	}
}

func newKeyStore(cfg config.Config, deps infra) (service.KeyStore, error) {
	switch cfg.Store.Keys {
	case config.BackendFile:
		return keystore.NewFile(cfg.Store.DataDir)
	case config.BackendPostgres:
		return keystore.NewPostgres(deps.db), nil
	case config.BackendRedis:
		return keystore.NewRedis(deps.redis.Client), nil
	default:
		return keystore.NewInMemory(), nil
	}
}

// newStoreTx picks the append boundary. PostgreSQL ledgers lock inside the
// database; the Redis lock, when enabled, wraps whichever boundary is chosen.
func newStoreTx(cfg config.Config, deps infra) service.StoreTx {
	var tx service.StoreTx = service.NewLocalStoreTx()
	if cfg.Store.Transactions == config.BackendPostgres {
		tx = postgres.NewAdvisoryTx(deps.db)
	}
	if cfg.Store.AppendLock == config.LockRedis {
		tx = platformredis.NewLockedTx(deps.redis.Client, tx,
			platformredis.WithLockTTL(cfg.Store.AppendLockTTL),
		)
	}
	return tx
}

func newPublisher(ctx context.Context, cfg config.Config, log *slog.Logger, deps *infra) (service.Publisher, error) {
	client, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return nil, err
	}
	if client == nil {
		log.Info("kafka brokers not configured, append events disabled")
		return publisher.Noop{}, nil
	}
	deps.kafka = client
	if err := kafka.EnsureTopic(ctx, client, cfg.Kafka.Topic, 1, 1); err != nil {
		// Topic creation may be forbidden on managed clusters; producing can still work.
		log.Warn("failed to ensure kafka topic", "topic", cfg.Kafka.Topic, "error", err)
	}
	return publisher.NewKafka(client, cfg.Kafka.Topic,
		publisher.WithBreaker(circuit.New("ledger-events")),
		publisher.WithLogger(log),
	), nil
}
