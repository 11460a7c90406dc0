package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("RTER_API_URL", "https://tw.rter.info/capi.php")

	cfg, err := LoadConfig(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 10*time.Second, cfg.ExchangeAPI.Timeout)
	assert.Equal(t, 20*time.Second, cfg.ExchangeAPI.Budget)
	assert.Less(t, cfg.ExchangeAPI.Budget, cfg.Server.WriteTimeout)
	assert.Equal(t, uint64(2), cfg.ExchangeAPI.Retries)
	assert.Equal(t, ModeCache, cfg.Rates.Mode)
	assert.Equal(t, 30, cfg.Rates.RetentionDays)
	assert.Zero(t, cfg.Rates.RefreshInterval)
	assert.Equal(t, BackendFile, cfg.Cache.Backend)
	assert.Equal(t, "data/rates.json", cfg.Cache.File)
	assert.Equal(t, 8, cfg.Store.UpsertConcurrency)
	assert.False(t, cfg.UsesDatabase())
}

func TestLoadConfig_MissingURL(t *testing.T) {
	t.Setenv("RTER_API_URL", "")
	require.NoError(t, os.Unsetenv("RTER_API_URL"))

	_, err := LoadConfig(missingEnvFile(t))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "URL")
}

func TestLoadConfig_EnvFile(t *testing.T) {
	t.Setenv("RTER_API_URL", "")
	require.NoError(t, os.Unsetenv("RTER_API_URL"))
	t.Setenv("SERVER_PORT", "9090")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("RTER_API_URL=http://localhost/capi.php\nSERVER_PORT=7000\nCACHE_BACKEND=bolt\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("CACHE_BACKEND")
	})

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost/capi.php", cfg.ExchangeAPI.URL)
	assert.Equal(t, 9090, cfg.Server.Port, "environment wins over the file")
	assert.Equal(t, BackendBolt, cfg.Cache.Backend)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server: ServerConfig{Port: 8080},
			Rates:  RatesConfig{Mode: ModeCache, RetentionDays: 30},
			Cache:  CacheConfig{Backend: BackendFile},
		}
	}

	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"db mode without dsn", func(c *Config) { c.Rates.Mode = ModeDB }, "DATABASE_DSN"},
		{"db mode with dsn", func(c *Config) {
			c.Rates.Mode = ModeDB
			c.Store.DSN = "postgres://localhost/rates"
		}, ""},
		{"unknown mode", func(c *Config) { c.Rates.Mode = "hybrid" }, "RATES_MODE"},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "s3" }, "CACHE_BACKEND"},
		{"zero retention", func(c *Config) { c.Rates.RetentionDays = 0 }, "RATES_RETENTION_DAYS"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "SERVER_PORT"},
		{"zero fetch budget", func(c *Config) { c.ExchangeAPI.Budget = 0 }, "RTER_API_BUDGET"},
		{"fetch budget outlives write timeout", func(c *Config) { c.ExchangeAPI.Budget = 30 * time.Second }, "SERVER_WRITE_TIMEOUT"},
		{"no write timeout", func(c *Config) {
			c.Server.WriteTimeout = 0
			c.ExchangeAPI.Budget = time.Minute
		}, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)

			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
