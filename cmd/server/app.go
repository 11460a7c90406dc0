package main

import (
	"context"
	"fmt"
	"io"

	"currency-rates-service/internal/adapter/cache"
	httpRouter "currency-rates-service/internal/adapter/http"
	"currency-rates-service/internal/adapter/repository"
	"currency-rates-service/internal/adapter/store"
	"currency-rates-service/internal/config"
	"currency-rates-service/internal/domain/ports"
	"currency-rates-service/internal/metrics"
	"currency-rates-service/internal/service"
	"currency-rates-service/pkg/logger"
)

// app holds the wired services for one process. Exactly one of exchange and
// writeThrough drives /api/rates, depending on RATES_MODE.
type app struct {
	cfg          *config.Config
	log          *logger.Logger
	metrics      *metrics.Metrics
	exchange     *service.ExchangeService
	writeThrough *service.WriteThroughService
	closers      []io.Closer
}

func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	a := &app{
		cfg:     cfg,
		log:     log,
		metrics: metrics.NewMetrics(nil),
	}

	rateRepo := repository.NewExchangeAPI(
		cfg.ExchangeAPI.URL,
		cfg.ExchangeAPI.Timeout,
		cfg.ExchangeAPI.Budget,
		cfg.ExchangeAPI.Retries,
		log.Named("rter"),
	)

	if cfg.UsesDatabase() {
		db, err := store.OpenPostgres(cfg.Store.DSN, log.Named("store"))
		if err != nil {
			return nil, fmt.Errorf("open rate store: %w", err)
		}
		rateStore := store.NewPostgresStore(db, log.Named("store"))
		a.closers = append(a.closers, rateStore)

		a.writeThrough = service.NewWriteThroughService(
			rateRepo,
			rateStore,
			cfg.Store.UpsertConcurrency,
			a.metrics,
			log.Named("write-through"),
		)
	}

	if cfg.Rates.Mode == config.ModeCache {
		historyStore, err := a.openHistoryStore(ctx)
		if err != nil {
			a.Close()
			return nil, err
		}

		a.exchange = service.NewExchangeService(
			rateRepo,
			historyStore,
			cfg.Rates.RetentionDays,
			a.metrics,
			log.Named("rates"),
		)
	}

	return a, nil
}

func (a *app) openHistoryStore(ctx context.Context) (ports.HistoryStore, error) {
	log := a.log.Named("cache")

	switch a.cfg.Cache.Backend {
	case config.BackendBolt:
		boltStore, err := cache.NewBoltStore(a.cfg.Cache.BoltPath, log)
		if err != nil {
			return nil, fmt.Errorf("open bolt cache: %w", err)
		}
		a.closers = append(a.closers, boltStore)
		return boltStore, nil
	case config.BackendRedis:
		client, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
			Key:      a.cfg.Redis.Key,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis cache: %w", err)
		}
		redisStore := cache.NewRedisStore(client, a.cfg.Redis.Key, log)
		a.closers = append(a.closers, redisStore)
		return redisStore, nil
	case config.BackendMemory:
		return cache.NewMemoryStore(log), nil
	default:
		return cache.NewFileStore(a.cfg.Cache.File, log), nil
	}
}

// refresh runs one refresh through whichever service serves /api/rates.
func (a *app) refresh(ctx context.Context) error {
	if a.exchange != nil {
		envelope, err := a.exchange.RefreshRates(ctx)
		if err != nil {
			return err
		}
		a.log.Info("Rates refreshed", "snapshots", len(envelope.History), "last_updated", envelope.LastUpdatedTime())
		return nil
	}

	report, err := a.writeThrough.RefreshRates(ctx)
	if err != nil {
		return err
	}
	a.log.Info(report.Message, "date", report.Date, "stored", report.Stored, "failed", report.Failed)
	return nil
}

func (a *app) handler() *httpRouter.Handler {
	log := a.log.Named("http")

	// Pass untyped nils for absent services so the router can tell.
	switch {
	case a.exchange != nil && a.writeThrough != nil:
		return httpRouter.NewHandler(a.exchange, a.writeThrough, log, a.metrics)
	case a.exchange != nil:
		return httpRouter.NewHandler(a.exchange, nil, log, a.metrics)
	default:
		return httpRouter.NewHandler(nil, a.writeThrough, log, a.metrics)
	}
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.log.Error("Failed to close resource", "error", err)
		}
	}
	a.closers = nil
}
