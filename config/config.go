package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"

	"quizbot/database"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken string `env:"DISCORD_TOKEN"`

	// Database configuration
	DatabaseURL      string        `env:"DATABASE_URL"`
	DatabaseName     string        `env:"DATABASE_NAME"`
	DatabaseMaxConns int32         `env:"DATABASE_MAX_CONNS" envDefault:"10"`
	LockTimeout      time.Duration `env:"DATABASE_LOCK_TIMEOUT" envDefault:"3s"`

	// NATS configuration
	NATSEnabled bool   `env:"NATS_ENABLED" envDefault:"true"`
	NATSServers string `env:"NATS_SERVERS" envDefault:"nats://nats:4222"` // comma-separated

	// Redis configuration (sweep leases and guild config cache)
	RedisEnabled   bool          `env:"REDIS_ENABLED" envDefault:"false"`
	RedisAddr      string        `env:"REDIS_ADDR" envDefault:"redis:6379"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RedisDB        int           `env:"REDIS_DB" envDefault:"0"`
	GuildConfigTTL time.Duration `env:"GUILD_CONFIG_CACHE_TTL" envDefault:"1m"`

	// Metrics configuration
	MetricsExporter string        `env:"METRICS_EXPORTER" envDefault:"none"` // none, stdout or otlp
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"otel-collector:4317"`
	MetricsInterval time.Duration `env:"METRICS_INTERVAL" envDefault:"30s"`

	// Sweep intervals
	GoldenSweepInterval       time.Duration `env:"GOLDEN_SWEEP_INTERVAL" envDefault:"1m"`
	GrantSweepInterval        time.Duration `env:"GRANT_SWEEP_INTERVAL" envDefault:"1m"`
	SpecialEventSweepInterval time.Duration `env:"SPECIAL_EVENT_SWEEP_INTERVAL" envDefault:"1m"`
	TopRoleInterval           time.Duration `env:"TOP_ROLE_INTERVAL" envDefault:"5m"`
	LedgerAuditInterval       time.Duration `env:"LEDGER_AUDIT_INTERVAL" envDefault:"1h"`
	DailyResetInterval        time.Duration `env:"DAILY_RESET_INTERVAL" envDefault:"10m"`

	// Retry budget for serialization failures and deadlocks
	TransactionRetries uint64 `env:"TRANSACTION_RETRIES" envDefault:"3"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Environment
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// NATSServerList splits the configured NATS servers
func (c *Config) NATSServerList() []string {
	var servers []string
	for _, s := range strings.Split(c.NATSServers, ",") {
		if s = strings.TrimSpace(s); s != "" {
			servers = append(servers, s)
		}
	}
	return servers
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the settings a running process cannot do without
func (c *Config) Validate() error {
	if c.Environment == "test" {
		return nil
	}
	if c.DiscordToken == "" {
		return errors.New("DISCORD_TOKEN is required")
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	switch c.MetricsExporter {
	case "none", "stdout", "otlp":
	default:
		return fmt.Errorf("METRICS_EXPORTER must be none, stdout or otlp, got %q", c.MetricsExporter)
	}
	if c.TransactionRetries == 0 {
		return errors.New("TRANSACTION_RETRIES must be at least 1")
	}
	return nil
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:               "test",
		DatabaseMaxConns:          5,
		LockTimeout:               3 * time.Second,
		MetricsExporter:           "none",
		GoldenSweepInterval:       time.Minute,
		GrantSweepInterval:        time.Minute,
		SpecialEventSweepInterval: time.Minute,
		TopRoleInterval:           5 * time.Minute,
		LedgerAuditInterval:       time.Hour,
		DailyResetInterval:        10 * time.Minute,
		TransactionRetries:        3,
		LogLevel:                  "debug",
	}
}
