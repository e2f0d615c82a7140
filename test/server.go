package test

import (
	"net/http/httptest"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"

	"github.com/tryonlabs/tryon/internal/logger"
	"github.com/tryonlabs/tryon/internal/media"
	"github.com/tryonlabs/tryon/internal/quota"
	"github.com/tryonlabs/tryon/internal/services"
	"github.com/tryonlabs/tryon/pkg/api/v1/client"
	"github.com/tryonlabs/tryon/pkg/api/v1/handlers"
	"github.com/tryonlabs/tryon/pkg/api/v1/routes"
)

// Test service settings
const (
	// testClientTimeout is the timeout for test API client requests
	testClientTimeout = 10 * time.Second

	// CronSecret authenticates the cron endpoint of the test server
	CronSecret = "test-cron-secret"

	// MediaBaseURL is the public base URL of the suite's media directory
	MediaBaseURL = "http://media.test/media"
)

// Limits are the quota limits of the test server
var Limits = quota.Limits{FreeTrialLimit: 2, MonthlyAllowance: 5, YearlyAllowance: 50}

// SetupServices wires the quota ledger, media store and try-on services
func SetupServices(suite *Suite) {
	suite.Redis = miniredis.RunT(suite.t)
	rdb := redis.NewClient(&redis.Options{Addr: suite.Redis.Addr()})
	suite.Cache = quota.NewRedisCache(rdb, time.Minute)

	store, err := media.NewLocalStore(suite.t.TempDir(), MediaBaseURL)
	suite.Require().NoError(err, "Failed to create media store")
	suite.Store = store

	suite.Ledger = quota.NewLedger(suite.DB, suite.UserRepo, suite.Cache, Limits)
	fetcher := media.Fetcher{Timeout: 5 * time.Second, MaxBytes: 5 << 20}

	suite.TryOn = services.NewTryOnService(services.TryOnOptions{
		DB:            suite.DB,
		Tasks:         suite.TaskRepo,
		Ledger:        suite.Ledger,
		Store:         store,
		Normalizer:    media.Normalizer{MaxBytes: 5 << 20, MaxDimension: 512},
		Fetcher:       fetcher,
		SyncProvider:  suite.SyncProvider,
		AsyncProvider: suite.AsyncProvider,
		Retention:     24 * time.Hour,
	})
	suite.Poller = services.NewPoller(services.PollerOptions{
		DB:            suite.DB,
		Tasks:         suite.TaskRepo,
		Ledger:        suite.Ledger,
		Store:         store,
		Fetcher:       fetcher,
		AsyncProvider: suite.AsyncProvider,
	})
	suite.Tasks = services.NewTaskService(suite.TaskRepo, suite.Poller)

	oldCleanup := suite.cleanup
	suite.cleanup = func() {
		_ = rdb.Close()
		if oldCleanup != nil {
			oldCleanup()
		}
	}
}

// SetupServer configures the test suite with a real API server
func SetupServer(suite *Suite) {
	// Create Fiber app with default config
	suite.App = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             16 << 20,
	})
	// Add logger
	suite.App.Use(logger.APILogger())

	// Create handlers
	tryOnHandler := handlers.NewTryOnHandler(suite.TryOn, suite.Tasks)
	quotaHandler := handlers.NewQuotaHandler(suite.Ledger)
	cronHandler := handlers.NewCronHandler(suite.Poller, CronSecret, services.SweepOptions{Limit: 10, Concurrency: 2})

	// Register routes
	routes.RegisterRoutes(suite.App, tryOnHandler, quotaHandler, cronHandler)
	routes.RegisterMedia(suite.App, suite.Store.Dir())

	// Create test server using adaptor to convert Fiber app to http.Handler
	suite.Server = httptest.NewServer(adaptor.FiberApp(suite.App))

	// Update cleanup to close server
	originalCleanup := suite.cleanup
	suite.cleanup = func() {
		if suite.Server != nil {
			suite.Server.Close()
		}
		if originalCleanup != nil {
			originalCleanup()
		}
	}
}

// ClientFor returns an API client acting as the given user
func (s *Suite) ClientFor(userID string) client.Client {
	c, err := client.NewClient(&client.Options{
		BaseURL: s.Server.URL,
		Timeout: testClientTimeout,
		UserID:  userID,
	})
	s.Require().NoError(err, "Failed to create API client")
	return c
}

// CronClient returns an API client holding the given cron secret
func (s *Suite) CronClient(secret string) client.Client {
	c, err := client.NewClient(&client.Options{
		BaseURL:    s.Server.URL,
		Timeout:    testClientTimeout,
		CronSecret: secret,
	})
	s.Require().NoError(err, "Failed to create API client")
	return c
}
