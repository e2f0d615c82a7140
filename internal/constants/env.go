// Package constants provides centralized definitions of constants used throughout the application
package constants

// Server and database environment variable names
const (
	EnvPort       = "PORT"
	EnvLogLevel   = "LOG_LEVEL"
	EnvDBHost     = "DB_HOST"
	EnvDBPort     = "DB_PORT"
	EnvDBUser     = "DB_USER"
	EnvDBPassword = "DB_PASSWORD"
	EnvDBName     = "DB_NAME"
	EnvDBSSLMode  = "DB_SSL_MODE"
)

// Provider environment variable names
const (
	// EnvProviderMode selects "http" (real providers) or "mock" (local development)
	EnvProviderMode = "PROVIDER_MODE"

	EnvSyncProviderURL   = "SYNC_PROVIDER_URL"
	EnvSyncProviderToken = "SYNC_PROVIDER_TOKEN"
	EnvSyncProviderModel = "SYNC_PROVIDER_MODEL"

	EnvAsyncProviderURL   = "ASYNC_PROVIDER_URL"
	EnvAsyncProviderToken = "ASYNC_PROVIDER_TOKEN"

	EnvProviderTimeout = "PROVIDER_TIMEOUT"
)

// Media store environment variable names
const (
	// EnvMediaBackend selects "local" or "s3"
	EnvMediaBackend       = "MEDIA_BACKEND"
	EnvMediaLocalDir      = "MEDIA_LOCAL_DIR"
	EnvMediaPublicBaseURL = "MEDIA_PUBLIC_BASE_URL"
	EnvS3Bucket           = "S3_BUCKET"
	EnvS3Region           = "S3_REGION"
	EnvS3Endpoint         = "S3_ENDPOINT"
	EnvS3AccessKeyID      = "S3_ACCESS_KEY_ID"
	EnvS3SecretAccessKey  = "S3_SECRET_ACCESS_KEY"
	EnvMaxImageBytes      = "MAX_IMAGE_BYTES"
	EnvMaxImageDimension  = "MAX_IMAGE_DIMENSION"
	EnvMaxImagePixels     = "MAX_IMAGE_PIXELS"
)

// Quota, cache and sweep environment variable names
const (
	EnvFreeTrialLimit   = "FREE_TRIAL_LIMIT"
	EnvMonthlyAllowance = "MONTHLY_ALLOWANCE"
	EnvYearlyAllowance  = "YEARLY_ALLOWANCE"

	// EnvRedisAddr enables the Redis quota cache when set
	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvQuotaCacheTTL = "QUOTA_CACHE_TTL"

	EnvSweepEnabled     = "SWEEP_ENABLED"
	EnvSweepInterval    = "SWEEP_INTERVAL"
	EnvSweepLimit       = "SWEEP_LIMIT"
	EnvSweepConcurrency = "SWEEP_CONCURRENCY"
	EnvCronSecret       = "CRON_SECRET"

	EnvTaskRetention = "TASK_RETENTION"
)
