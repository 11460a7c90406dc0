package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"currency-rates-service/internal/domain/model"
	"currency-rates-service/internal/domain/ports"
	"currency-rates-service/internal/domain/rates"
	"currency-rates-service/pkg/logger"

	"github.com/sethvargo/go-retry"
)

const (
	defaultRetryBackoff = 500 * time.Millisecond
	maxResponseBytes    = 4 << 20
)

var _ ports.RateRepository = (*ExchangeAPI)(nil)

// ExchangeAPI reads the RTER cross-rate feed, a JSON object keyed by
// "USD<CODE>" with an Exrate per entry.
type ExchangeAPI struct {
	url          string
	httpClient   *http.Client
	budget       time.Duration
	retries      uint64
	retryBackoff time.Duration
	currencies   []model.Currency
	log          *logger.Logger
}

// NewExchangeAPI builds a client whose attempts each time out after timeout.
// budget caps a whole FetchRates call, retries and backoff included; zero
// leaves it unbounded.
func NewExchangeAPI(url string, timeout, budget time.Duration, retries uint64, log *logger.Logger) *ExchangeAPI {
	return &ExchangeAPI{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		budget:       budget,
		retries:      retries,
		retryBackoff: defaultRetryBackoff,
		currencies:   model.SupportedCurrencies,
		log:          log,
	}
}

// FetchRates downloads the feed and normalizes it against the supported
// currency set. Network errors and 5xx responses are retried until the
// budget runs out.
func (e *ExchangeAPI) FetchRates(ctx context.Context) (model.Rates, error) {
	if e.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.budget)
		defer cancel()
	}

	var doc rates.Document

	backoff := retry.WithMaxRetries(e.retries, retry.NewExponential(e.retryBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		doc, err = e.fetchDocument(ctx)
		return err
	})
	if err != nil {
		if !errors.Is(err, rates.ErrUpstreamFetch) && !errors.Is(err, rates.ErrUpstreamFormat) {
			err = fmt.Errorf("%w: %v", rates.ErrUpstreamFetch, err)
		}
		return nil, err
	}

	return rates.Normalize(doc, e.currencies, model.Pivot, model.Base)
}

func (e *ExchangeAPI) fetchDocument(ctx context.Context) (rates.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", rates.ErrUpstreamFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		e.log.Warn("Rate provider request failed", "error", err)
		return nil, retry.RetryableError(fmt.Errorf("%w: failed to send request: %v", rates.ErrUpstreamFetch, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("%w: API returned non-OK status: %d", rates.ErrUpstreamFetch, resp.StatusCode)
		if resp.StatusCode >= http.StatusInternalServerError {
			e.log.Warn("Rate provider returned server error", "status", resp.StatusCode)
			return nil, retry.RetryableError(err)
		}
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, retry.RetryableError(fmt.Errorf("%w: failed to read response: %v", rates.ErrUpstreamFetch, err))
	}

	return rates.ParseDocument(body)
}
