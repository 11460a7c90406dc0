package ports

import (
	"context"

	"currency-rates-service/internal/domain/model"
)

// RateRepository fetches today's normalized rate table from the upstream
// provider.
type RateRepository interface {
	FetchRates(ctx context.Context) (model.Rates, error)
}
