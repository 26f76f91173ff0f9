// Command filesvc runs the chat file ingestion service.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/filesvc/internal/auth"
	"github.com/dmitrymomot/filesvc/internal/events"
	"github.com/dmitrymomot/filesvc/internal/filesvc"
	"github.com/dmitrymomot/filesvc/internal/httpapi"
	"github.com/dmitrymomot/filesvc/internal/metadata"
	"github.com/dmitrymomot/filesvc/internal/policy"
	"github.com/dmitrymomot/filesvc/pkg/config"
	"github.com/dmitrymomot/filesvc/pkg/file"
	"github.com/dmitrymomot/filesvc/pkg/httpserver"
	"github.com/dmitrymomot/filesvc/pkg/logger"
	"github.com/dmitrymomot/filesvc/pkg/pg"
	"github.com/dmitrymomot/filesvc/pkg/redis"
)

type appConfig struct {
	Log      logger.Config
	HTTP     httpserver.Config
	Postgres pg.Config
	Redis    redis.Config
	Storage  file.Config
	Metadata metadata.Config
	Events   events.Config
	Auth     auth.Config
	Policy   policy.Config
	Files    filesvc.Config
}

func main() {
	if err := run(); err != nil {
		slog.Error("filesvc stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load[appConfig](".env")
	if err != nil {
		return err
	}

	logOpts, err := logger.FromConfig(cfg.Log)
	if err != nil {
		return err
	}
	log := logger.New(append(logOpts, logger.WithContextExtractors(
		httpapi.RequestIDExtractor(),
		httpapi.UserIDExtractor(),
	))...)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]httpapi.HealthCheck{}

	var store metadata.Store
	if cfg.Metadata.Driver == metadata.DriverPostgres {
		pool, err := pg.Connect(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := pg.Migrate(ctx, pool, cfg.Postgres, metadata.Migrations, metadata.MigrationsDir, log); err != nil {
			return err
		}
		if store, err = metadata.New(cfg.Metadata, pool); err != nil {
			return err
		}
	} else if store, err = metadata.New(cfg.Metadata, nil); err != nil {
		return err
	}

	storage, err := file.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	if err := storage.EnsureNamespace(ctx); err != nil {
		return err
	}
	checks["storage"] = storage.CheckNamespace

	var rdb *goredis.Client
	if cfg.Events.Broker == events.BrokerRedis {
		if rdb, err = redis.Connect(ctx, cfg.Redis); err != nil {
			return err
		}
		defer rdb.Close()
		checks["redis"] = redis.Healthcheck(rdb)
	}

	var redisClient goredis.UniversalClient
	if rdb != nil {
		redisClient = rdb
	}
	publisher, err := events.NewPublisher(cfg.Events, redisClient, log)
	if err != nil {
		return err
	}
	if c, ok := publisher.(io.Closer); ok {
		defer func() {
			if err := c.Close(); err != nil {
				log.Warn("close event publisher", logger.Error(err))
			}
		}()
	}
	if amqpPub, ok := publisher.(*events.AMQPPublisher); ok {
		checks["amqp"] = amqpPub.Healthcheck
	}

	metrics := httpapi.NewMetrics()
	dispatcher := events.NewDispatcher(publisher,
		events.WithBuffer(cfg.Events.Buffer),
		events.WithWorkers(cfg.Events.Workers),
		events.WithPublishTimeout(cfg.Events.PublishTimeout),
		events.WithDispatcherLogger(log),
		events.WithObserver(metrics),
	)

	verifier, err := auth.NewVerifier(ctx, cfg.Auth, log)
	if err != nil {
		return err
	}

	engine, err := policy.NewEngine(cfg.Policy)
	if err != nil {
		return err
	}

	svc, err := filesvc.New(engine, store, storage, dispatcher, cfg.Files, filesvc.WithLogger(log))
	if err != nil {
		return err
	}
	checks["metadata"] = svc.Ping

	routerCfg := httpapi.Config{
		Files:    svc,
		Verifier: verifier,
		Metrics:  metrics,
		Logger:   log,
		Checks:   checks,
	}
	if local, ok := storage.(*file.LocalStorage); ok {
		routerCfg.Blobs = local
	}

	log.InfoContext(ctx, "starting filesvc",
		slog.String("addr", cfg.HTTP.Addr),
		slog.String("storage", storage.Kind()),
		slog.String("metadata", cfg.Metadata.Driver),
		slog.String("events", cfg.Events.Broker),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.New(cfg.HTTP, log).Run(gctx, httpapi.NewRouter(routerCfg))
	})
	g.Go(dispatcher.Run(gctx))

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("filesvc stopped")
	return nil
}
