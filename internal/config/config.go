// Package config assembles the service configuration from environment variables
package config

import (
	"fmt"
	"time"

	envconfig "github.com/tryonlabs/tryon/config"
	"github.com/tryonlabs/tryon/internal/constants"
)

// Provider modes
const (
	ProviderModeHTTP = "http"
	ProviderModeMock = "mock"
)

// Media backends
const (
	MediaBackendLocal = "local"
	MediaBackendS3    = "s3"
)

// Config is the full service configuration
type Config struct {
	Port      string
	LogLevel  string
	DB        DBConfig
	Providers ProviderConfig
	Media     MediaConfig
	Quota     QuotaConfig
	Sweep     SweepConfig
	// TaskRetention is stamped on new tasks as ExpiresAt; zero disables it
	TaskRetention time.Duration
}

// DBConfig holds database connection settings
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// NewDBConfig reads the database settings from the environment
func NewDBConfig() DBConfig {
	return DBConfig{
		Host:     envconfig.GetEnv(constants.EnvDBHost, "localhost"),
		Port:     envconfig.GetEnvInt(constants.EnvDBPort, 5432),
		User:     envconfig.GetEnv(constants.EnvDBUser, "postgres"),
		Password: envconfig.GetEnv(constants.EnvDBPassword, "postgres"),
		Name:     envconfig.GetEnv(constants.EnvDBName, "postgres"),
		SSLMode:  envconfig.GetEnv(constants.EnvDBSSLMode, "disable"),
	}
}

// SSLEnabled reports whether the connection should use TLS
func (c DBConfig) SSLEnabled() bool {
	return c.SSLMode != "" && c.SSLMode != "disable"
}

// QuotaConfig holds plan allowances and cache settings
type QuotaConfig struct {
	FreeTrialLimit   int
	MonthlyAllowance int
	YearlyAllowance  int
	RedisAddr        string
	RedisPassword    string
	CacheTTL         time.Duration
}

// SweepConfig controls the background completion sweep
type SweepConfig struct {
	Enabled     bool
	Interval    time.Duration
	Limit       int
	Concurrency int
	CronSecret  string
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{
		Port:      envconfig.GetEnv(constants.EnvPort, "8080"),
		LogLevel:  envconfig.GetEnv(constants.EnvLogLevel, "info"),
		DB:        NewDBConfig(),
		Providers: NewProviderConfig(),
		Media:     NewMediaConfig(),
		Quota: QuotaConfig{
			FreeTrialLimit:   envconfig.GetEnvInt(constants.EnvFreeTrialLimit, 3),
			MonthlyAllowance: envconfig.GetEnvInt(constants.EnvMonthlyAllowance, 100),
			YearlyAllowance:  envconfig.GetEnvInt(constants.EnvYearlyAllowance, 1200),
			RedisAddr:        envconfig.GetEnv(constants.EnvRedisAddr, ""),
			RedisPassword:    envconfig.GetEnv(constants.EnvRedisPassword, ""),
			CacheTTL:         envconfig.GetEnvDuration(constants.EnvQuotaCacheTTL, 5*time.Minute),
		},
		Sweep: SweepConfig{
			Enabled:     envconfig.GetEnvBool(constants.EnvSweepEnabled, true),
			Interval:    envconfig.GetEnvDuration(constants.EnvSweepInterval, 30*time.Second),
			Limit:       envconfig.GetEnvInt(constants.EnvSweepLimit, 50),
			Concurrency: envconfig.GetEnvInt(constants.EnvSweepConcurrency, 4),
			CronSecret:  envconfig.GetEnv(constants.EnvCronSecret, ""),
		},
		TaskRetention: envconfig.GetEnvDuration(constants.EnvTaskRetention, 0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Quota.FreeTrialLimit < 0 || c.Quota.MonthlyAllowance < 0 || c.Quota.YearlyAllowance < 0 {
		return fmt.Errorf("quota allowances cannot be negative")
	}
	if c.Sweep.Limit <= 0 {
		return fmt.Errorf("sweep limit must be positive")
	}
	if c.Sweep.Concurrency <= 0 {
		return fmt.Errorf("sweep concurrency must be positive")
	}
	if err := c.Providers.Validate(); err != nil {
		return fmt.Errorf("invalid provider configuration: %w", err)
	}
	if err := c.Media.Validate(); err != nil {
		return fmt.Errorf("invalid media configuration: %w", err)
	}
	return nil
}
