package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Crypto      CryptoConfig
	Sync        SyncConfig
	Scheduler   SchedulerConfig
	Marketplace MarketplaceConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// CryptoConfig holds credential encryption settings
type CryptoConfig struct {
	// CredentialKey is the AES-256 key used to encrypt marketplace tokens
	// at rest; must be exactly 32 bytes
	CredentialKey string
}

// SyncConfig holds sync sweep tuning
type SyncConfig struct {
	// OrderLookback is the fetch horizon for a credential's first sync
	OrderLookback time.Duration
	// WatermarkOverlap is re-fetched below the watermark on every sweep
	WatermarkOverlap time.Duration
	// CredentialConcurrency bounds parallel credential syncs within one sweep
	CredentialConcurrency int
	// RetryAttempts is the number of attempts for transient platform errors
	RetryAttempts int
	// RetryBaseDelay is the initial retry backoff delay
	RetryBaseDelay time.Duration
	// RetryMaxDelay caps the retry backoff delay
	RetryMaxDelay time.Duration
	// LockTTL bounds how long a crashed instance keeps a seller locked
	LockTTL time.Duration
}

// SchedulerConfig holds sweep scheduler configuration
type SchedulerConfig struct {
	Enabled           bool
	MaxConcurrentJobs int
	JobTimeout        time.Duration
	CheckInterval     time.Duration
	SyncInterval      time.Duration
}

// MarketplaceConfig holds per-platform adapter settings
type MarketplaceConfig struct {
	MercadoLivre MercadoLivreConfig
	Shopee       ShopeeConfig
}

// MercadoLivreConfig holds Mercado Livre adapter settings
type MercadoLivreConfig struct {
	Enabled           bool
	APIBaseURL        string
	TimeoutSeconds    int
	PageSize          int
	RequestsPerSecond float64
}

// ShopeeConfig holds Shopee adapter settings
type ShopeeConfig struct {
	Enabled           bool
	PartnerID         int64
	PartnerKey        string
	APIBaseURL        string
	TimeoutSeconds    int
	PageSize          int
	RequestsPerSecond float64
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with STOCKBRIDGE_ prefix (e.g., STOCKBRIDGE_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("STOCKBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Crypto: CryptoConfig{
			CredentialKey: v.GetString("crypto.credential_key"),
		},
		Sync: SyncConfig{
			OrderLookback:         v.GetDuration("sync.order_lookback"),
			WatermarkOverlap:      v.GetDuration("sync.watermark_overlap"),
			CredentialConcurrency: v.GetInt("sync.credential_concurrency"),
			RetryAttempts:         v.GetInt("sync.retry_attempts"),
			RetryBaseDelay:        v.GetDuration("sync.retry_base_delay"),
			RetryMaxDelay:         v.GetDuration("sync.retry_max_delay"),
			LockTTL:               v.GetDuration("sync.lock_ttl"),
		},
		Scheduler: SchedulerConfig{
			Enabled:           v.GetBool("scheduler.enabled"),
			MaxConcurrentJobs: v.GetInt("scheduler.max_concurrent_jobs"),
			JobTimeout:        v.GetDuration("scheduler.job_timeout"),
			CheckInterval:     v.GetDuration("scheduler.check_interval"),
			SyncInterval:      v.GetDuration("scheduler.sync_interval"),
		},
		Marketplace: MarketplaceConfig{
			MercadoLivre: MercadoLivreConfig{
				Enabled:           v.GetBool("marketplace.mercadolivre.enabled"),
				APIBaseURL:        v.GetString("marketplace.mercadolivre.api_base_url"),
				TimeoutSeconds:    v.GetInt("marketplace.mercadolivre.timeout_seconds"),
				PageSize:          v.GetInt("marketplace.mercadolivre.page_size"),
				RequestsPerSecond: v.GetFloat64("marketplace.mercadolivre.requests_per_second"),
			},
			Shopee: ShopeeConfig{
				Enabled:           v.GetBool("marketplace.shopee.enabled"),
				PartnerID:         v.GetInt64("marketplace.shopee.partner_id"),
				PartnerKey:        v.GetString("marketplace.shopee.partner_key"),
				APIBaseURL:        v.GetString("marketplace.shopee.api_base_url"),
				TimeoutSeconds:    v.GetInt("marketplace.shopee.timeout_seconds"),
				PageSize:          v.GetInt("marketplace.shopee.page_size"),
				RequestsPerSecond: v.GetFloat64("marketplace.shopee.requests_per_second"),
			},
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "stockbridge-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "stockbridge"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	// NOTE: CORS origins are intentionally not given a default fallback to "*".
	// An empty list means no cross-origin requests are allowed until explicitly
	// configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID", "X-Seller-ID"}
	}
	if cfg.Sync.OrderLookback == 0 {
		cfg.Sync.OrderLookback = 30 * 24 * time.Hour
	}
	if cfg.Sync.WatermarkOverlap == 0 {
		cfg.Sync.WatermarkOverlap = 5 * time.Minute
	}
	if cfg.Sync.CredentialConcurrency == 0 {
		cfg.Sync.CredentialConcurrency = 3
	}
	if cfg.Sync.RetryAttempts == 0 {
		cfg.Sync.RetryAttempts = 3
	}
	if cfg.Sync.RetryBaseDelay == 0 {
		cfg.Sync.RetryBaseDelay = 500 * time.Millisecond
	}
	if cfg.Sync.RetryMaxDelay == 0 {
		cfg.Sync.RetryMaxDelay = 5 * time.Second
	}
	if cfg.Sync.LockTTL == 0 {
		cfg.Sync.LockTTL = 10 * time.Minute
	}
	if cfg.Scheduler.MaxConcurrentJobs == 0 {
		cfg.Scheduler.MaxConcurrentJobs = 5
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 15 * time.Minute
	}
	if cfg.Scheduler.CheckInterval == 0 {
		cfg.Scheduler.CheckInterval = time.Minute
	}
	if cfg.Scheduler.SyncInterval == 0 {
		cfg.Scheduler.SyncInterval = 15 * time.Minute
	}
	if cfg.Marketplace.MercadoLivre.APIBaseURL == "" {
		cfg.Marketplace.MercadoLivre.APIBaseURL = "https://api.mercadolibre.com"
	}
	if cfg.Marketplace.Shopee.APIBaseURL == "" {
		cfg.Marketplace.Shopee.APIBaseURL = "https://partner.shopeemobile.com"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	// The cipher key gates every credential read, so reject a wrong-size key
	// at startup rather than on the first sweep
	if c.Crypto.CredentialKey != "" && len(c.Crypto.CredentialKey) != 32 {
		return fmt.Errorf("crypto.credential_key must be exactly 32 bytes, got %d", len(c.Crypto.CredentialKey))
	}

	if c.App.Env == "production" {
		if c.Crypto.CredentialKey == "" {
			return fmt.Errorf("crypto.credential_key is required in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Marketplace.Shopee.Enabled && c.Marketplace.Shopee.PartnerKey == "" {
			return fmt.Errorf("marketplace.shopee.partner_key is required when the Shopee adapter is enabled in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the Redis address in host:port form
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
