package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"currency-rates-service/internal/domain/model"
	"currency-rates-service/internal/domain/ports"
	"currency-rates-service/internal/domain/rates"
	"currency-rates-service/internal/metrics"
	"currency-rates-service/pkg/logger"
	"currency-rates-service/pkg/utils"

	"golang.org/x/sync/singleflight"
)

var (
	ErrCurrencyNotFound = errors.New("currency not found")
	ErrFetchFailed      = errors.New("failed to fetch rates")
	ErrSnapshotNotFound = errors.New("no rates stored for date")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidDateRange = errors.New("invalid date range")
	ErrStoreFailure     = errors.New("failed to fetch rates from DB")
	ErrRefreshFailed    = errors.New("failed to fetch or update rates")
)

var _ ports.ExchangeService = (*ExchangeService)(nil)

type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the wall clock used to decide what "today" is.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ExchangeService answers rate queries from the rolling history cache,
// fetching from upstream at most once per day under normal operation.
type ExchangeService struct {
	repository    ports.RateRepository
	cache         ports.HistoryStore
	retentionDays int
	now           func() time.Time
	fetches       singleflight.Group
	metrics       *metrics.Metrics
	log           *logger.Logger
}

func NewExchangeService(
	repository ports.RateRepository,
	cache ports.HistoryStore,
	retentionDays int,
	metrics *metrics.Metrics,
	log *logger.Logger,
	opts ...Option,
) *ExchangeService {
	if retentionDays <= 0 {
		retentionDays = rates.DefaultRetentionDays
	}
	o := buildOptions(opts)

	return &ExchangeService{
		repository:    repository,
		cache:         cache,
		retentionDays: retentionDays,
		now:           o.now,
		metrics:       metrics,
		log:           log,
	}
}

func (s *ExchangeService) GetRates(ctx context.Context, query model.RatesQuery) (*model.RatesResult, error) {
	if query.Date != "" && !utils.ValidateDate(query.Date) {
		return nil, ErrInvalidDate
	}

	today := utils.Today(s.now())
	if query.Date != "" && query.Date != today {
		return s.getPastRates(ctx, query)
	}

	envelope := s.readCache(ctx)
	if envelope != nil && envelope.History.Has(today) {
		s.metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
		s.log.Debug("Today's rates found in cache", "date", today)
		return s.serve(envelope, today, query)
	}
	s.metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()

	s.log.Info("Fetching rates from provider", "date", today)
	fresh, err := s.fetchAndMerge(ctx, today, false)
	if err != nil {
		if envelope != nil {
			return s.serveStale(envelope, err), nil
		}
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	return s.serve(fresh, today, query)
}

// RefreshRates always fetches and replaces today's snapshot. On upstream
// failure the existing cache, if any, is returned unchanged.
func (s *ExchangeService) RefreshRates(ctx context.Context) (*model.CacheEnvelope, error) {
	today := utils.Today(s.now())
	envelope := s.readCache(ctx)

	s.log.Info("Refreshing exchange rates", "date", today)
	fresh, err := s.fetchAndMerge(ctx, today, true)
	if err != nil {
		if envelope != nil {
			return s.serveStale(envelope, err).Envelope, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	return fresh, nil
}

// GetHistory returns the pair's rate for every cached snapshot in
// [Start, End]. Snapshots where the pair does not resolve are skipped.
func (s *ExchangeService) GetHistory(ctx context.Context, query model.HistoryQuery) (*model.RateSeries, error) {
	if err := validateDateRange(query.Start, query.End); err != nil {
		return nil, err
	}

	current, err := s.GetRates(ctx, model.RatesQuery{})
	if err != nil {
		return nil, err
	}

	series := &model.RateSeries{
		From:   query.From,
		To:     query.To,
		Points: make([]model.HistoryPoint, 0, len(current.Envelope.History)),
	}
	for _, snapshot := range current.Envelope.History {
		if query.Start != "" && snapshot.Date < query.Start {
			continue
		}
		if query.End != "" && snapshot.Date > query.End {
			continue
		}
		rate, ok := rates.Rate(query.From, query.To, snapshot.Rates)
		if !ok {
			continue
		}
		series.Points = append(series.Points, model.HistoryPoint{Date: snapshot.Date, Rate: rate})
	}

	if len(series.Points) == 0 && len(current.Envelope.History) > 0 {
		return nil, ErrCurrencyNotFound
	}

	return series, nil
}

func (s *ExchangeService) getPastRates(ctx context.Context, query model.RatesQuery) (*model.RatesResult, error) {
	envelope := s.readCache(ctx)
	if envelope == nil {
		return nil, ErrSnapshotNotFound
	}

	snapshot, ok := envelope.History.Find(query.Date)
	if !ok {
		return nil, ErrSnapshotNotFound
	}

	if query.HasPair() {
		return s.serve(envelope, query.Date, query)
	}
	return &model.RatesResult{Snapshot: &snapshot}, nil
}

// fetchAndMerge collapses concurrent calls for the same day into a single
// upstream fetch. The cache is read again inside the flight so the merge
// builds on the most recent history, and an unforced call that lost the race
// to another flight reuses what that flight stored.
func (s *ExchangeService) fetchAndMerge(ctx context.Context, today string, force bool) (*model.CacheEnvelope, error) {
	key := today
	if force {
		key = "refresh:" + today
	}

	result, err, shared := s.fetches.Do(key, func() (interface{}, error) {
		flightCtx := context.WithoutCancel(ctx)

		existing := s.readCache(flightCtx)
		if !force && existing != nil && existing.History.Has(today) {
			return existing, nil
		}

		table, err := s.repository.FetchRates(flightCtx)
		if err != nil {
			s.metrics.UpstreamFetchesTotal.WithLabelValues(fetchOutcome(err)).Inc()
			s.log.Error("Failed to fetch exchange rates", "error", err)
			return nil, err
		}
		s.metrics.UpstreamFetchesTotal.WithLabelValues("success").Inc()

		var history model.RateHistory
		if existing != nil {
			history = existing.History
		}

		snapshot := model.RateSnapshot{Date: today, Rates: table}
		merged := rates.Merge(history, snapshot, s.retentionDays, today)
		envelope := model.NewCacheEnvelope(merged, s.now())

		if err := s.cache.Write(flightCtx, envelope); err != nil {
			s.log.Error("Failed to write rate cache", "error", err)
		}

		return envelope, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.log.Debug("Joined in-flight rate fetch", "date", today)
	}

	return result.(*model.CacheEnvelope), nil
}

func (s *ExchangeService) serve(envelope *model.CacheEnvelope, date string, query model.RatesQuery) (*model.RatesResult, error) {
	if !query.HasPair() {
		return &model.RatesResult{Envelope: envelope}, nil
	}

	snapshot, _ := envelope.History.Find(date)
	rate, ok := rates.Rate(query.From, query.To, snapshot.Rates)
	if !ok {
		return nil, ErrCurrencyNotFound
	}

	return &model.RatesResult{
		Pair: &model.PairRate{
			From:        query.From,
			To:          query.To,
			Rate:        rate,
			LastUpdated: envelope.LastUpdated,
		},
	}, nil
}

func (s *ExchangeService) serveStale(envelope *model.CacheEnvelope, cause error) *model.RatesResult {
	s.metrics.StaleResponsesTotal.Inc()
	s.log.Warn("Serving cached rates after fetch failure",
		"error", cause,
		"last_updated", envelope.LastUpdatedTime(),
		"snapshots", len(envelope.History),
	)

	return &model.RatesResult{Envelope: envelope, Stale: true}
}

// readCache treats a backend failure like an empty cache.
func (s *ExchangeService) readCache(ctx context.Context) *model.CacheEnvelope {
	envelope, err := s.cache.Read(ctx)
	if err != nil {
		s.log.Error("Failed to read rate cache", "error", err)
		return nil
	}
	return envelope
}

func fetchOutcome(err error) string {
	if errors.Is(err, rates.ErrUpstreamFormat) {
		return "format_error"
	}
	return "fetch_error"
}

func validateDateRange(start, end string) error {
	if start != "" && !utils.ValidateDate(start) {
		return ErrInvalidDate
	}
	if end != "" && !utils.ValidateDate(end) {
		return ErrInvalidDate
	}
	if start != "" && end != "" && start > end {
		return ErrInvalidDateRange
	}
	return nil
}
