package ports

import (
	"context"

	"currency-rates-service/internal/domain/model"
)

// RateStore is the keyed per-pair store used by the write-through mode.
// Get returns nil, nil when no row matches.
type RateStore interface {
	Get(ctx context.Context, date string, from, to model.Currency) (*model.PersistedRate, error)
	Find(ctx context.Context, filter model.RateFilter) ([]model.PersistedRate, error)
	Upsert(ctx context.Context, rate model.PersistedRate) (*model.PersistedRate, error)
}
