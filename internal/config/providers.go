package config

import (
	"fmt"
	"time"

	envconfig "github.com/tryonlabs/tryon/config"
	"github.com/tryonlabs/tryon/internal/constants"
)

// ProviderConfig represents the configuration for both try-on providers
type ProviderConfig struct {
	Mode string

	SyncURL   string
	SyncToken string
	SyncModel string

	AsyncURL   string
	AsyncToken string

	Timeout time.Duration
}

// NewProviderConfig creates a new provider configuration from the environment
func NewProviderConfig() ProviderConfig {
	return ProviderConfig{
		Mode:       envconfig.GetEnv(constants.EnvProviderMode, ProviderModeHTTP),
		SyncURL:    envconfig.GetEnv(constants.EnvSyncProviderURL, ""),
		SyncToken:  envconfig.GetEnv(constants.EnvSyncProviderToken, ""),
		SyncModel:  envconfig.GetEnv(constants.EnvSyncProviderModel, ""),
		AsyncURL:   envconfig.GetEnv(constants.EnvAsyncProviderURL, ""),
		AsyncToken: envconfig.GetEnv(constants.EnvAsyncProviderToken, ""),
		Timeout:    envconfig.GetEnvDuration(constants.EnvProviderTimeout, 90*time.Second),
	}
}

// Validate validates the provider configuration
func (c ProviderConfig) Validate() error {
	switch c.Mode {
	case ProviderModeMock:
		return nil
	case ProviderModeHTTP:
	default:
		return fmt.Errorf("unknown provider mode %q", c.Mode)
	}
	if c.SyncURL == "" {
		return fmt.Errorf("%s is required", constants.EnvSyncProviderURL)
	}
	if c.SyncToken == "" {
		return fmt.Errorf("%s is required", constants.EnvSyncProviderToken)
	}
	if c.AsyncURL == "" {
		return fmt.Errorf("%s is required", constants.EnvAsyncProviderURL)
	}
	if c.AsyncToken == "" {
		return fmt.Errorf("%s is required", constants.EnvAsyncProviderToken)
	}
	return nil
}

// MediaConfig represents the configuration for the media store
type MediaConfig struct {
	Backend       string
	LocalDir      string
	PublicBaseURL string

	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string

	MaxImageBytes     int64
	MaxImageDimension int
	// MaxImagePixels caps width*height of an upload before it is decoded
	MaxImagePixels int64
}

// NewMediaConfig creates a new media configuration from the environment
func NewMediaConfig() MediaConfig {
	return MediaConfig{
		Backend:           envconfig.GetEnv(constants.EnvMediaBackend, MediaBackendLocal),
		LocalDir:          envconfig.GetEnv(constants.EnvMediaLocalDir, "./data/media"),
		PublicBaseURL:     envconfig.GetEnv(constants.EnvMediaPublicBaseURL, "http://localhost:8080/media"),
		S3Bucket:          envconfig.GetEnv(constants.EnvS3Bucket, ""),
		S3Region:          envconfig.GetEnv(constants.EnvS3Region, "auto"),
		S3Endpoint:        envconfig.GetEnv(constants.EnvS3Endpoint, ""),
		S3AccessKeyID:     envconfig.GetEnv(constants.EnvS3AccessKeyID, ""),
		S3SecretAccessKey: envconfig.GetEnv(constants.EnvS3SecretAccessKey, ""),
		MaxImageBytes:     envconfig.GetEnvInt64(constants.EnvMaxImageBytes, 10<<20),
		MaxImageDimension: envconfig.GetEnvInt(constants.EnvMaxImageDimension, 2048),
		MaxImagePixels:    envconfig.GetEnvInt64(constants.EnvMaxImagePixels, 40_000_000),
	}
}

// Validate validates the media configuration
func (c MediaConfig) Validate() error {
	if c.PublicBaseURL == "" {
		return fmt.Errorf("%s is required", constants.EnvMediaPublicBaseURL)
	}
	if c.MaxImageBytes <= 0 {
		return fmt.Errorf("max image size must be positive")
	}
	switch c.Backend {
	case MediaBackendLocal:
		if c.LocalDir == "" {
			return fmt.Errorf("%s is required for the local backend", constants.EnvMediaLocalDir)
		}
	case MediaBackendS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("%s is required for the s3 backend", constants.EnvS3Bucket)
		}
	default:
		return fmt.Errorf("unknown media backend %q", c.Backend)
	}
	return nil
}
