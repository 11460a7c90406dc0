package ports

import (
	"context"

	"currency-rates-service/internal/domain/model"
)

// HistoryStore persists the rolling rate cache as a single document.
// Read returns nil, nil when nothing usable is stored; a corrupt document
// counts as nothing stored.
type HistoryStore interface {
	Read(ctx context.Context) (*model.CacheEnvelope, error)
	Write(ctx context.Context, envelope *model.CacheEnvelope) error
}
