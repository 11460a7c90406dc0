package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"currency-rates-service/internal/domain/model"
	"currency-rates-service/internal/domain/ports"
	"currency-rates-service/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnvelope() *model.CacheEnvelope {
	return model.NewCacheEnvelope(model.RateHistory{
		{Date: "2024-07-23", Rates: model.Rates{model.TWD: 1, model.USD: 31.9}},
		{Date: "2024-07-24", Rates: model.Rates{model.TWD: 1, model.USD: 32}},
	}, time.UnixMilli(1721815200000))
}

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)

	store := NewRedisStore(client, "", logger.NewNullLogger())
	t.Cleanup(func() { _ = store.Close() })

	return store, mr
}

func TestHistoryStores(t *testing.T) {
	log := logger.NewNullLogger()

	stores := map[string]func(t *testing.T) ports.HistoryStore{
		"memory": func(t *testing.T) ports.HistoryStore {
			return NewMemoryStore(log)
		},
		"file": func(t *testing.T) ports.HistoryStore {
			return NewFileStore(filepath.Join(t.TempDir(), "nested", "rates.json"), log)
		},
		"bolt": func(t *testing.T) ports.HistoryStore {
			store, err := NewBoltStore(filepath.Join(t.TempDir(), "rates.db"), log)
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })

			return store
		},
		"redis": func(t *testing.T) ports.HistoryStore {
			store, _ := newTestRedisStore(t)
			return store
		},
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)

			got, err := store.Read(ctx)
			require.NoError(t, err)
			assert.Nil(t, got)

			require.NoError(t, store.Write(ctx, testEnvelope()))

			got, err = store.Read(ctx)
			require.NoError(t, err)
			assert.Equal(t, testEnvelope(), got)

			replacement := model.NewCacheEnvelope(model.RateHistory{
				{Date: "2024-07-25", Rates: model.Rates{model.TWD: 1}},
			}, time.UnixMilli(1721901600000))
			require.NoError(t, store.Write(ctx, replacement))

			got, err = store.Read(ctx)
			require.NoError(t, err)
			assert.Equal(t, replacement, got)
		})
	}
}

func TestFileStore_Layout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.json")
	store := NewFileStore(path, logger.NewNullLogger())

	require.NoError(t, store.Write(context.Background(), testEnvelope()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"history": [
			{"date": "2024-07-23", "rates": {"TWD": 1, "USD": 31.9}},
			{"date": "2024-07-24", "rates": {"TWD": 1, "USD": 32}}
		],
		"lastUpdated": 1721815200000
	}`, string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestFileStore_CorruptIsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"history": [`), 0o644))

	got, err := NewFileStore(path, logger.NewNullLogger()).Read(context.Background())

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_CorruptIsAbsent(t *testing.T) {
	store := NewMemoryStore(logger.NewNullLogger())
	store.SetRaw([]byte(`garbage`))

	got, err := store.Read(context.Background())

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_CorruptIsAbsent(t *testing.T) {
	store, mr := newTestRedisStore(t)
	require.NoError(t, mr.Set(DefaultRedisKey, "garbage"))

	got, err := store.Read(context.Background())

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_Unreachable(t *testing.T) {
	store, mr := newTestRedisStore(t)
	mr.Close()

	_, err := store.Read(context.Background())

	assert.Error(t, err)
}
