package store

import (
	"context"
	"testing"
	"time"

	"currency-rates-service/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Upsert(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	clock := time.Date(2024, 7, 24, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	created, err := store.Upsert(ctx, model.PersistedRate{Date: "2024-07-24", From: model.USD, To: model.TWD, Rate: 32.5})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, 32.5, created.Rate)
	assert.Equal(t, clock, created.CreatedAt)

	clock = clock.Add(time.Hour)

	updated, err := store.Upsert(ctx, model.PersistedRate{Date: "2024-07-24", From: model.USD, To: model.TWD, Rate: 33})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, 33.0, updated.Rate)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, clock, updated.UpdatedAt)
	assert.Equal(t, 1, store.Len())

	got, err := store.Get(ctx, "2024-07-24", model.USD, model.TWD)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	missing, err := store.Get(ctx, "2024-07-24", model.TWD, model.USD)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryStore_Find(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for _, r := range []model.PersistedRate{
		{Date: "2024-07-24", From: model.USD, To: model.TWD, Rate: 32.5},
		{Date: "2024-07-24", From: model.EUR, To: model.TWD, Rate: 35.2},
		{Date: "2024-07-24", From: model.USD, To: model.EUR, Rate: 0.85},
		{Date: "2024-07-23", From: model.USD, To: model.TWD, Rate: 31.8},
	} {
		_, err := store.Upsert(ctx, r)
		require.NoError(t, err)
	}

	testCases := []struct {
		name   string
		filter model.RateFilter
		want   int
	}{
		{"no filter", model.RateFilter{}, 4},
		{"by from", model.RateFilter{From: model.USD}, 3},
		{"by to", model.RateFilter{To: model.TWD}, 3},
		{"by date", model.RateFilter{Date: "2024-07-23"}, 1},
		{"all fields", model.RateFilter{Date: "2024-07-24", From: model.USD, To: model.TWD}, 1},
		{"no match", model.RateFilter{From: model.GBP, To: model.CNY}, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rows, err := store.Find(ctx, tc.filter)
			require.NoError(t, err)
			assert.Len(t, rows, tc.want)
			assert.NotNil(t, rows)
		})
	}

	rows, err := store.Find(ctx, model.RateFilter{})
	require.NoError(t, err)
	assert.Equal(t, "2024-07-23", rows[0].Date)
}

func TestRateModelMapping(t *testing.T) {
	now := time.Date(2024, 7, 24, 10, 0, 0, 0, time.UTC)
	rate := &model.PersistedRate{
		ID:        "7d3c2d38-3f55-4b4b-8c1e-6f3f0c1d9a11",
		Date:      "2024-07-24",
		From:      model.EUR,
		To:        model.USD,
		Rate:      1.0856,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m := ToRateModel(rate)
	assert.Equal(t, "EUR", m.From)
	assert.Equal(t, "USD", m.To)
	assert.Equal(t, "rates", m.TableName())

	assert.Equal(t, rate, ToDomainRate(m))
}
