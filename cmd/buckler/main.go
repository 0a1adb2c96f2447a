package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"buckler/internal/app/bootstrap"
	"buckler/internal/app/middleware"
	appoutbox "buckler/internal/app/outbox"
	"buckler/internal/app/schedule"
	"buckler/internal/app/uow"
	"buckler/internal/infra/broker/kafka"
	"buckler/internal/infra/config"
	mongostore "buckler/internal/infra/db/mongo"
	sqlstore "buckler/internal/infra/db/sql"
	ginserver "buckler/internal/infra/http/gin"
	"buckler/internal/infra/obs"
	infraoutbox "buckler/internal/infra/outbox"
	"buckler/internal/infra/storage/memory"
	"buckler/internal/infra/validation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("buckler stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("buckler stopped")
}

// storage bundles what a driver contributes to the application.
type storage struct {
	factory     uow.UoWFactory
	outbox      appoutbox.Outbox
	idempotency middleware.IdempotencyStore
	checks      map[string]func(ctx context.Context) error
	worker      *infraoutbox.Worker
	close       func(ctx context.Context) error
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	var producer *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		p, err := kafka.NewProducer(cfg.KafkaBrokers, "buckler")
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		defer p.Close()
		producer = p
	}
	envelope := infraoutbox.Envelope{TopicPrefix: cfg.KafkaTopicPrefix}

	st, err := openStorage(ctx, cfg, logger, producer, envelope)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			logger.Warn("storage close failed", "error", err)
		}
	}()

	buses := bootstrap.Build(bootstrap.Deps{
		UoWFactory:  st.factory,
		Outbox:      st.outbox,
		Idempotency: st.idempotency,
		Validator:   validation.New(),
		Rates:       cfg.Rates,
		Currency:    cfg.DefaultCurrency,
		Logger:      logger,
	})

	if path := cfg.CatalogFixtures; path != "" {
		if err := loadCatalogFixtures(ctx, buses.Commands, path, logger); err != nil {
			logger.Warn("catalog fixtures load failed", "error", err, "path", path)
		}
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Checks: st.checks}, ginserver.Handlers{
		Booking:      ginserver.BookingHandler{Commands: buses.Commands, Queries: buses.Queries},
		Availability: ginserver.AvailabilityHandler{Commands: buses.Commands, Queries: buses.Queries},
		Catalog:      ginserver.CatalogHandler{Commands: buses.Commands, Queries: buses.Queries},
		Earnings:     ginserver.EarningsHandler{Queries: buses.Queries},
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if st.worker != nil {
		g.Go(func() error {
			logger.Info("outbox worker starting", "interval", cfg.OutboxPollInterval)
			return ignoreCancel(st.worker.Run(gctx))
		})
	}
	if cfg.CompletionSweepInterval > 0 {
		completer := &schedule.Completer{Bus: buses.Commands, Interval: cfg.CompletionSweepInterval, Logger: logger}
		g.Go(func() error {
			return ignoreCancel(completer.Run(gctx))
		})
	}
	return g.Wait()
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger, producer *kafka.Producer, envelope infraoutbox.Envelope) (storage, error) {
	var publisher memory.Publisher
	if producer != nil {
		publisher = &infraoutbox.Relay{Producer: producer, Envelope: envelope, Logger: logger}
	}

	switch cfg.StorageDriver {
	case config.DriverMongo:
		client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return storage{}, fmt.Errorf("mongo connect: %w", err)
		}
		if err := client.EnsureIndexes(ctx); err != nil {
			return storage{}, fmt.Errorf("mongo indexes: %w", err)
		}
		box, err := infraoutbox.NewStore(ctx, client.DB)
		if err != nil {
			return storage{}, fmt.Errorf("outbox store: %w", err)
		}
		idem, err := mongostore.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
		if err != nil {
			return storage{}, fmt.Errorf("idempotency store: %w", err)
		}
		var worker *infraoutbox.Worker
		if producer != nil {
			worker = &infraoutbox.Worker{
				Queue:    box,
				Producer: producer,
				Envelope: envelope,
				Interval: cfg.OutboxPollInterval,
				Backoff:  cfg.RetryBackoff,
				Logger:   logger,
			}
		} else {
			logger.Warn("no kafka brokers configured; outbox records stay queued")
		}
		return storage{
			factory:     mongostore.NewFactory(client.DB),
			outbox:      box,
			idempotency: idem,
			checks:      map[string]func(context.Context) error{"mongo": client.Ping},
			worker:      worker,
			close:       client.Close,
		}, nil

	case config.DriverPostgres, config.DriverSQLite:
		db, err := sqlstore.Connect(cfg.DatabaseDSN, logger)
		if err != nil {
			return storage{}, fmt.Errorf("sql connect: %w", err)
		}
		if err := sqlstore.Migrate(ctx, db); err != nil {
			return storage{}, fmt.Errorf("sql migrate: %w", err)
		}
		return storage{
			factory:     sqlstore.Factory{DB: db},
			outbox:      memory.NewOutbox(publisher),
			idempotency: sqlstore.NewIdempotencyStore(db, cfg.IdempotencyTTL),
			checks: map[string]func(context.Context) error{
				"sql": func(ctx context.Context) error { return sqlstore.Ping(ctx, db) },
			},
			close: func(context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.Close()
			},
		}, nil

	default:
		logger.Warn("using in-memory storage; data is lost on restart")
		return storage{
			factory:     memory.NewStore(),
			outbox:      memory.NewOutbox(publisher),
			idempotency: memory.NewIdempotencyStore(cfg.IdempotencyTTL),
			close:       func(context.Context) error { return nil },
		}, nil
	}
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
