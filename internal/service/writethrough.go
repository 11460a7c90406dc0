package service

import (
	"context"
	"fmt"
	"time"

	"currency-rates-service/internal/domain/model"
	"currency-rates-service/internal/domain/ports"
	"currency-rates-service/internal/domain/rates"
	"currency-rates-service/internal/metrics"
	"currency-rates-service/pkg/logger"
	"currency-rates-service/pkg/utils"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultUpsertConcurrency = 8

	refreshedMessage = "Rates updated in DB"
	timestampLayout  = "2006-01-02T15:04:05.000Z07:00"
)

var _ ports.WriteThroughService = (*WriteThroughService)(nil)

// WriteThroughService keeps one row per (date, from, to) in the rate store
// and answers pair queries straight from it.
type WriteThroughService struct {
	repository  ports.RateRepository
	store       ports.RateStore
	concurrency int
	now         func() time.Time
	metrics     *metrics.Metrics
	log         *logger.Logger
}

func NewWriteThroughService(
	repository ports.RateRepository,
	store ports.RateStore,
	concurrency int,
	metrics *metrics.Metrics,
	log *logger.Logger,
	opts ...Option,
) *WriteThroughService {
	if concurrency <= 0 {
		concurrency = DefaultUpsertConcurrency
	}
	o := buildOptions(opts)

	return &WriteThroughService{
		repository:  repository,
		store:       store,
		concurrency: concurrency,
		now:         o.now,
		metrics:     metrics,
		log:         log,
	}
}

func (s *WriteThroughService) GetRate(ctx context.Context, from, to model.Currency, date string) (*model.StoredPairRate, error) {
	date, err := s.resolveDate(date)
	if err != nil {
		return nil, err
	}

	if from == to {
		return &model.StoredPairRate{From: from, To: to, Rate: 1, Date: date, UpdatedAt: date}, nil
	}
	if !from.IsSupported() || !to.IsSupported() {
		return nil, ErrCurrencyNotFound
	}

	row, err := s.store.Get(ctx, date, from, to)
	if err != nil {
		s.log.Error("Failed to read rate from store", "from", from, "to", to, "date", date, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	if row == nil {
		return nil, ErrCurrencyNotFound
	}

	return &model.StoredPairRate{
		From:      row.From,
		To:        row.To,
		Rate:      row.Rate,
		Date:      row.Date,
		UpdatedAt: row.UpdatedAt.UTC().Format(timestampLayout),
	}, nil
}

func (s *WriteThroughService) ListDay(ctx context.Context, date string) (*model.DayRates, error) {
	date, err := s.resolveDate(date)
	if err != nil {
		return nil, err
	}

	rows, err := s.store.Find(ctx, model.RateFilter{Date: date})
	if err != nil {
		s.log.Error("Failed to list rates from store", "date", date, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	return &model.DayRates{Date: date, Rates: rows}, nil
}

// RefreshRates fetches the current table and upserts every resolvable
// ordered pair for today. Individual upsert failures are logged and counted
// but never abort the batch.
func (s *WriteThroughService) RefreshRates(ctx context.Context) (*model.RefreshReport, error) {
	table, err := s.repository.FetchRates(ctx)
	if err != nil {
		s.metrics.UpstreamFetchesTotal.WithLabelValues(fetchOutcome(err)).Inc()
		s.log.Error("Failed to fetch exchange rates", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	s.metrics.UpstreamFetchesTotal.WithLabelValues("success").Inc()

	today := utils.Today(s.now())
	pairs := rates.Pairs(model.SupportedCurrencies, table)

	// The batch outlives a disconnected caller.
	batchCtx := context.WithoutCancel(ctx)
	failures := make([]error, len(pairs))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, pair := range pairs {
		i, pair := i, pair
		g.Go(func() error {
			_, failures[i] = s.store.Upsert(batchCtx, model.PersistedRate{
				Date: today,
				From: pair.From,
				To:   pair.To,
				Rate: pair.Rate,
			})
			return nil
		})
	}
	_ = g.Wait()

	report := &model.RefreshReport{Message: refreshedMessage, Date: today, Pairs: len(pairs)}
	for i, err := range failures {
		if err != nil {
			report.Failed++
			s.metrics.StoreUpsertsTotal.WithLabelValues("error").Inc()
			s.log.Warn("Failed to upsert rate", "from", pairs[i].From, "to", pairs[i].To, "date", today, "error", err)
			continue
		}
		report.Stored++
		s.metrics.StoreUpsertsTotal.WithLabelValues("success").Inc()
	}

	s.log.Info("Rates written to store",
		"date", today,
		"pairs", report.Pairs,
		"stored", report.Stored,
		"failed", report.Failed,
	)

	return report, nil
}

func (s *WriteThroughService) FindRates(ctx context.Context, filter model.RateFilter) ([]model.PersistedRate, error) {
	if filter.Date != "" && !utils.ValidateDate(filter.Date) {
		return nil, ErrInvalidDate
	}

	rows, err := s.store.Find(ctx, filter)
	if err != nil {
		s.log.Error("Failed to query rate store", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	return rows, nil
}

func (s *WriteThroughService) SaveRate(ctx context.Context, rate model.PersistedRate) (*model.PersistedRate, error) {
	if !utils.ValidateDate(rate.Date) {
		return nil, ErrInvalidDate
	}
	if !rate.From.IsSupported() || !rate.To.IsSupported() {
		return nil, ErrCurrencyNotFound
	}

	saved, err := s.store.Upsert(ctx, rate)
	if err != nil {
		s.log.Error("Failed to save rate", "from", rate.From, "to", rate.To, "date", rate.Date, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	return saved, nil
}

func (s *WriteThroughService) resolveDate(date string) (string, error) {
	if date == "" {
		return utils.Today(s.now()), nil
	}
	if !utils.ValidateDate(date) {
		return "", ErrInvalidDate
	}
	return date, nil
}
