package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"STOCKBRIDGE_APP_NAME":                      os.Getenv("STOCKBRIDGE_APP_NAME"),
		"STOCKBRIDGE_APP_ENV":                       os.Getenv("STOCKBRIDGE_APP_ENV"),
		"STOCKBRIDGE_APP_PORT":                      os.Getenv("STOCKBRIDGE_APP_PORT"),
		"STOCKBRIDGE_DATABASE_HOST":                 os.Getenv("STOCKBRIDGE_DATABASE_HOST"),
		"STOCKBRIDGE_DATABASE_PASSWORD":             os.Getenv("STOCKBRIDGE_DATABASE_PASSWORD"),
		"STOCKBRIDGE_DATABASE_SSLMODE":              os.Getenv("STOCKBRIDGE_DATABASE_SSLMODE"),
		"STOCKBRIDGE_DATABASE_MAX_OPEN_CONNS":       os.Getenv("STOCKBRIDGE_DATABASE_MAX_OPEN_CONNS"),
		"STOCKBRIDGE_DATABASE_MAX_IDLE_CONNS":       os.Getenv("STOCKBRIDGE_DATABASE_MAX_IDLE_CONNS"),
		"STOCKBRIDGE_CRYPTO_CREDENTIAL_KEY":         os.Getenv("STOCKBRIDGE_CRYPTO_CREDENTIAL_KEY"),
		"STOCKBRIDGE_SYNC_ORDER_LOOKBACK":           os.Getenv("STOCKBRIDGE_SYNC_ORDER_LOOKBACK"),
		"STOCKBRIDGE_SYNC_CREDENTIAL_CONCURRENCY":   os.Getenv("STOCKBRIDGE_SYNC_CREDENTIAL_CONCURRENCY"),
		"STOCKBRIDGE_MARKETPLACE_SHOPEE_PARTNER_ID": os.Getenv("STOCKBRIDGE_MARKETPLACE_SHOPEE_PARTNER_ID"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "stockbridge-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "stockbridge", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 30*24*time.Hour, cfg.Sync.OrderLookback)
		assert.Equal(t, 5*time.Minute, cfg.Sync.WatermarkOverlap)
		assert.Equal(t, 3, cfg.Sync.CredentialConcurrency)
		assert.Equal(t, 15*time.Minute, cfg.Scheduler.SyncInterval)
		assert.Equal(t, "https://api.mercadolibre.com", cfg.Marketplace.MercadoLivre.APIBaseURL)
		assert.Equal(t, "https://partner.shopeemobile.com", cfg.Marketplace.Shopee.APIBaseURL)
	})

	t.Run("loads values from environment variables with STOCKBRIDGE prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("STOCKBRIDGE_APP_PORT", "9000")
		os.Setenv("STOCKBRIDGE_DATABASE_HOST", "testdb.local")
		os.Setenv("STOCKBRIDGE_SYNC_ORDER_LOOKBACK", "72h")
		os.Setenv("STOCKBRIDGE_SYNC_CREDENTIAL_CONCURRENCY", "8")
		os.Setenv("STOCKBRIDGE_MARKETPLACE_SHOPEE_PARTNER_ID", "2005001")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 72*time.Hour, cfg.Sync.OrderLookback)
		assert.Equal(t, 8, cfg.Sync.CredentialConcurrency)
		assert.Equal(t, int64(2005001), cfg.Marketplace.Shopee.PartnerID)
	})

	t.Run("rejects idle conns exceeding open conns", func(t *testing.T) {
		clearEnv()
		os.Setenv("STOCKBRIDGE_DATABASE_MAX_OPEN_CONNS", "5")
		os.Setenv("STOCKBRIDGE_DATABASE_MAX_IDLE_CONNS", "10")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("rejects wrong-size credential key", func(t *testing.T) {
		clearEnv()
		os.Setenv("STOCKBRIDGE_CRYPTO_CREDENTIAL_KEY", "too-short")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "credential_key")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	envVars := []string{
		"STOCKBRIDGE_APP_ENV",
		"STOCKBRIDGE_CRYPTO_CREDENTIAL_KEY",
		"STOCKBRIDGE_DATABASE_PASSWORD",
		"STOCKBRIDGE_DATABASE_SSLMODE",
	}
	original := map[string]string{}
	for _, k := range envVars {
		original[k] = os.Getenv(k)
	}
	defer func() {
		for k, v := range original {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	setProductionBase := func() {
		os.Setenv("STOCKBRIDGE_APP_ENV", "production")
		os.Setenv("STOCKBRIDGE_CRYPTO_CREDENTIAL_KEY", "0123456789abcdef0123456789abcdef")
		os.Setenv("STOCKBRIDGE_DATABASE_PASSWORD", "secret")
		os.Setenv("STOCKBRIDGE_DATABASE_SSLMODE", "require")
	}

	t.Run("accepts complete production config", func(t *testing.T) {
		setProductionBase()
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})

	t.Run("requires credential key", func(t *testing.T) {
		setProductionBase()
		os.Unsetenv("STOCKBRIDGE_CRYPTO_CREDENTIAL_KEY")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "credential_key")
	})

	t.Run("requires database password", func(t *testing.T) {
		setProductionBase()
		os.Unsetenv("STOCKBRIDGE_DATABASE_PASSWORD")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password")
	})

	t.Run("rejects disabled SSL", func(t *testing.T) {
		setProductionBase()
		os.Setenv("STOCKBRIDGE_DATABASE_SSLMODE", "disable")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sslmode")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "sync",
		Password: "p@ss/word",
		DBName:   "stockbridge",
		SSLMode:  "require",
	}

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.internal:5433")
	assert.Contains(t, dsn, "sslmode=require")
	// Special characters in the password must be escaped
	assert.NotContains(t, dsn, "p@ss/word")
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "cache.internal", Port: 6380}
	assert.Equal(t, "cache.internal:6380", cfg.Addr())
}
