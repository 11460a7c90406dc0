package cache

import (
	"context"
	"errors"
	"fmt"

	"currency-rates-service/internal/domain/model"
	"currency-rates-service/internal/domain/ports"
	"currency-rates-service/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisKey = "rates:envelope"

var _ ports.HistoryStore = (*RedisStore)(nil)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// RedisStore keeps the envelope under a single key; each write is one SET.
type RedisStore struct {
	client *redis.Client
	key    string
	log    *logger.Logger
}

// NewRedisClient connects and verifies the connection with a ping.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func NewRedisStore(client *redis.Client, key string, log *logger.Logger) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key, log: log}
}

func (r *RedisStore) Read(ctx context.Context) (*model.CacheEnvelope, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.log.Debug("Cache miss", "backend", "redis", "key", r.key)
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	return decodeEnvelope(data, r.log), nil
}

func (r *RedisStore) Write(ctx context.Context, envelope *model.CacheEnvelope) error {
	data, err := encodeEnvelope(envelope)
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}

	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
