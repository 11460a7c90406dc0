package cache

import (
	"context"
	"sync"

	"currency-rates-service/internal/domain/model"
	"currency-rates-service/internal/domain/ports"
	"currency-rates-service/pkg/logger"
)

var _ ports.HistoryStore = (*MemoryStore)(nil)

// MemoryStore keeps the encoded envelope in process memory so readers never
// share state with writers.
type MemoryStore struct {
	data  []byte
	mutex sync.RWMutex
	log   *logger.Logger
}

func NewMemoryStore(log *logger.Logger) *MemoryStore {
	return &MemoryStore{log: log}
}

func (c *MemoryStore) Read(ctx context.Context) (*model.CacheEnvelope, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.data == nil {
		c.log.Debug("Cache miss", "backend", "memory")
		return nil, nil
	}

	return decodeEnvelope(c.data, c.log), nil
}

func (c *MemoryStore) Write(ctx context.Context, envelope *model.CacheEnvelope) error {
	data, err := encodeEnvelope(envelope)
	if err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data = data
	c.log.Debug("Cache set", "backend", "memory", "snapshots", len(envelope.History))

	return nil
}

// SetRaw replaces the stored bytes verbatim.
func (c *MemoryStore) SetRaw(data []byte) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data = data
}
