package ports

import (
	"context"

	"currency-rates-service/internal/domain/model"
)

type ExchangeService interface {
	GetRates(ctx context.Context, query model.RatesQuery) (*model.RatesResult, error)
	GetHistory(ctx context.Context, query model.HistoryQuery) (*model.RateSeries, error)
	RefreshRates(ctx context.Context) (*model.CacheEnvelope, error)
}

type WriteThroughService interface {
	GetRate(ctx context.Context, from, to model.Currency, date string) (*model.StoredPairRate, error)
	ListDay(ctx context.Context, date string) (*model.DayRates, error)
	RefreshRates(ctx context.Context) (*model.RefreshReport, error)
	FindRates(ctx context.Context, filter model.RateFilter) ([]model.PersistedRate, error)
	SaveRate(ctx context.Context, rate model.PersistedRate) (*model.PersistedRate, error)
}
