package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"currency-rates-service/internal/domain/model"
	"currency-rates-service/internal/domain/ports"

	"github.com/google/uuid"
)

var _ ports.RateStore = (*MemoryStore)(nil)

type rowKey struct {
	date string
	from model.Currency
	to   model.Currency
}

// MemoryStore is a process-local RateStore with the same upsert semantics as
// PostgresStore.
type MemoryStore struct {
	mutex sync.RWMutex
	rows  map[rowKey]model.PersistedRate
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows: make(map[rowKey]model.PersistedRate),
		now:  time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, date string, from, to model.Currency) (*model.PersistedRate, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	row, ok := s.rows[rowKey{date, from, to}]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (s *MemoryStore) Find(ctx context.Context, filter model.RateFilter) ([]model.PersistedRate, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make([]model.PersistedRate, 0)
	for _, row := range s.rows {
		if filter.Date != "" && row.Date != filter.Date {
			continue
		}
		if filter.From != "" && row.From != filter.From {
			continue
		}
		if filter.To != "" && row.To != filter.To {
			continue
		}
		result = append(result, row)
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.From != b.From {
			return a.From < b.From
		}
		return a.To < b.To
	})
	return result, nil
}

func (s *MemoryStore) Upsert(ctx context.Context, rate model.PersistedRate) (*model.PersistedRate, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now().UTC()
	key := rowKey{rate.Date, rate.From, rate.To}

	row, ok := s.rows[key]
	if ok {
		row.Rate = rate.Rate
		row.UpdatedAt = now
	} else {
		row = rate
		row.ID = uuid.NewString()
		row.CreatedAt = now
		row.UpdatedAt = now
	}
	s.rows[key] = row

	return &row, nil
}

func (s *MemoryStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.rows)
}
