package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"currency-rates-service/internal/domain/model"
	"currency-rates-service/internal/domain/ports"
	"currency-rates-service/pkg/logger"

	"go.etcd.io/bbolt"
)

var (
	RateHistoryBucket = []byte("RateHistory")
	envelopeKey       = []byte("envelope")
)

var _ ports.HistoryStore = (*BoltStore)(nil)

type BoltStore struct {
	db  *bbolt.DB
	log *logger.Logger
}

func NewBoltStore(filePath string, log *logger.Logger) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o770); err != nil {
		return nil, fmt.Errorf("failed to create directory for rate database: %w", err)
	}

	db, err := bbolt.Open(filePath, 0o660, nil)
	if err != nil {
		return nil, fmt.Errorf("could not open db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(RateHistoryBucket); err != nil {
			return fmt.Errorf("could not bucket: %s, err: %w", string(RateHistoryBucket), err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db, log: log}, nil
}

func (b *BoltStore) Read(ctx context.Context) (*model.CacheEnvelope, error) {
	var data []byte

	err := b.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(RateHistoryBucket).Get(envelopeKey); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read rate history: %w", err)
	}

	return decodeEnvelope(data, b.log), nil
}

func (b *BoltStore) Write(ctx context.Context, envelope *model.CacheEnvelope) error {
	data, err := encodeEnvelope(envelope)
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(RateHistoryBucket).Put(envelopeKey, data)
	})
}

func (b *BoltStore) Close() error {
	return b.db.Close()
}
