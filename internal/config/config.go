package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	ModeCache = "cache"
	ModeDB    = "db"

	BackendFile   = "file"
	BackendBolt   = "bolt"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Config struct {
	Server      ServerConfig
	ExchangeAPI ExchangeAPIConfig
	Rates       RatesConfig
	Cache       CacheConfig
	Redis       RedisConfig
	Store       StoreConfig
	Log         LogConfig
}

type ServerConfig struct {
	Port           int           `env:"SERVER_PORT" env-default:"8080"`
	ReadTimeout    time.Duration `env:"SERVER_READ_TIMEOUT" env-default:"5s"`
	WriteTimeout   time.Duration `env:"SERVER_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout    time.Duration `env:"SERVER_IDLE_TIMEOUT" env-default:"120s"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" env-default:"*" env-separator:","`
}

type ExchangeAPIConfig struct {
	URL     string        `env:"RTER_API_URL" env-required:"true"`
	Timeout time.Duration `env:"RTER_API_TIMEOUT" env-default:"10s"`
	Budget  time.Duration `env:"RTER_API_BUDGET" env-default:"20s"`
	Retries uint64        `env:"RTER_API_RETRIES" env-default:"2"`
}

type RatesConfig struct {
	Mode            string        `env:"RATES_MODE" env-default:"cache"`
	RetentionDays   int           `env:"RATES_RETENTION_DAYS" env-default:"30"`
	RefreshInterval time.Duration `env:"RATES_REFRESH_INTERVAL" env-default:"0s"`
}

type CacheConfig struct {
	Backend  string `env:"CACHE_BACKEND" env-default:"file"`
	File     string `env:"CACHE_FILE" env-default:"data/rates.json"`
	BoltPath string `env:"CACHE_BOLT_PATH" env-default:"data/rates.db"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
	Key      string `env:"REDIS_KEY" env-default:"rates:envelope"`
}

type StoreConfig struct {
	DSN               string `env:"DATABASE_DSN"`
	UpsertConcurrency int    `env:"STORE_UPSERT_CONCURRENCY" env-default:"8"`
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL" env-default:"info"`
	JSON  bool   `env:"LOG_JSON" env-default:"false"`
}

// LoadConfig reads the environment, after loading envFiles (default ".env")
// when they exist. Variables already set in the environment win.
func LoadConfig(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Rates.Mode {
	case ModeCache:
	case ModeDB:
		if c.Store.DSN == "" {
			return errors.New("DATABASE_DSN is required when RATES_MODE=db")
		}
	default:
		return fmt.Errorf("unknown RATES_MODE %q", c.Rates.Mode)
	}

	switch c.Cache.Backend {
	case BackendFile, BackendBolt, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.Cache.Backend)
	}

	if c.Rates.RetentionDays <= 0 {
		return fmt.Errorf("RATES_RETENTION_DAYS must be positive, got %d", c.Rates.RetentionDays)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT out of range: %d", c.Server.Port)
	}

	// A fetch that outlives the write deadline leaves no time to answer from
	// the cache.
	if c.ExchangeAPI.Budget <= 0 {
		return fmt.Errorf("RTER_API_BUDGET must be positive, got %s", c.ExchangeAPI.Budget)
	}
	if wt := c.Server.WriteTimeout; wt > 0 && c.ExchangeAPI.Budget >= wt {
		return fmt.Errorf("RTER_API_BUDGET (%s) must be shorter than SERVER_WRITE_TIMEOUT (%s)", c.ExchangeAPI.Budget, wt)
	}

	return nil
}

func (c *Config) UsesDatabase() bool {
	return c.Store.DSN != ""
}
