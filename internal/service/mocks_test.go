package service

import (
	"context"
	"sync/atomic"

	"currency-rates-service/internal/domain/model"
)

type MockRateRepository struct {
	FetchRatesFunc func(ctx context.Context) (model.Rates, error)

	calls atomic.Int32
}

func (m *MockRateRepository) FetchRates(ctx context.Context) (model.Rates, error) {
	m.calls.Add(1)
	return m.FetchRatesFunc(ctx)
}

func (m *MockRateRepository) Calls() int {
	return int(m.calls.Load())
}

type MockHistoryStore struct {
	ReadFunc  func(ctx context.Context) (*model.CacheEnvelope, error)
	WriteFunc func(ctx context.Context, envelope *model.CacheEnvelope) error
}

func (m *MockHistoryStore) Read(ctx context.Context) (*model.CacheEnvelope, error) {
	return m.ReadFunc(ctx)
}

func (m *MockHistoryStore) Write(ctx context.Context, envelope *model.CacheEnvelope) error {
	return m.WriteFunc(ctx, envelope)
}

type MockRateStore struct {
	GetFunc    func(ctx context.Context, date string, from, to model.Currency) (*model.PersistedRate, error)
	FindFunc   func(ctx context.Context, filter model.RateFilter) ([]model.PersistedRate, error)
	UpsertFunc func(ctx context.Context, rate model.PersistedRate) (*model.PersistedRate, error)
}

func (m *MockRateStore) Get(ctx context.Context, date string, from, to model.Currency) (*model.PersistedRate, error) {
	return m.GetFunc(ctx, date, from, to)
}

func (m *MockRateStore) Find(ctx context.Context, filter model.RateFilter) ([]model.PersistedRate, error) {
	return m.FindFunc(ctx, filter)
}

func (m *MockRateStore) Upsert(ctx context.Context, rate model.PersistedRate) (*model.PersistedRate, error) {
	return m.UpsertFunc(ctx, rate)
}
