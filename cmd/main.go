// Command tryon runs the try-on API server and, optionally, the in-process
// completion sweeper.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/tryonlabs/tryon/internal/config"
	"github.com/tryonlabs/tryon/internal/constants"
	"github.com/tryonlabs/tryon/internal/db"
	"github.com/tryonlabs/tryon/internal/db/repos"
	"github.com/tryonlabs/tryon/internal/logger"
	"github.com/tryonlabs/tryon/internal/media"
	"github.com/tryonlabs/tryon/internal/provider"
	"github.com/tryonlabs/tryon/internal/quota"
	"github.com/tryonlabs/tryon/internal/services"
	"github.com/tryonlabs/tryon/internal/types"
	"github.com/tryonlabs/tryon/pkg/api/v1/handlers"
	"github.com/tryonlabs/tryon/pkg/api/v1/routes"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// .env is optional; deployments inject the environment directly
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warnf("failed to load .env file: %v", err)
	}
	logger.InitializeAndConfigure()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := connectDB(cfg.DB)
	if err != nil {
		logger.Fatalf("failed to connect to database: %v", err)
	}

	cache := newQuotaCache(ctx, cfg.Quota)
	store, err := media.New(ctx, cfg.Media)
	if err != nil {
		logger.Fatalf("failed to create media store: %v", err)
	}
	syncProvider, asyncProvider, err := provider.New(cfg.Providers)
	if err != nil {
		logger.Fatalf("failed to create providers: %v", err)
	}
	if cfg.Providers.Mode == config.ProviderModeMock {
		logger.Warn("running with mock providers, results are not real compositions")
	}

	taskRepo := repos.NewTaskRepository(database)
	userRepo := repos.NewUserRepository(database)
	ledger := quota.NewLedger(database, userRepo, cache, quota.Limits{
		FreeTrialLimit:   cfg.Quota.FreeTrialLimit,
		MonthlyAllowance: cfg.Quota.MonthlyAllowance,
		YearlyAllowance:  cfg.Quota.YearlyAllowance,
	})
	fetcher := media.Fetcher{Timeout: cfg.Providers.Timeout, MaxBytes: cfg.Media.MaxImageBytes}

	tryOn := services.NewTryOnService(services.TryOnOptions{
		DB:     database,
		Tasks:  taskRepo,
		Ledger: ledger,
		Store:  store,
		Normalizer: media.Normalizer{
			MaxBytes:     cfg.Media.MaxImageBytes,
			MaxDimension: cfg.Media.MaxImageDimension,
			MaxPixels:    cfg.Media.MaxImagePixels,
		},
		Fetcher:       fetcher,
		SyncProvider:  syncProvider,
		AsyncProvider: asyncProvider,
		Retention:     cfg.TaskRetention,
	})
	poller := services.NewPoller(services.PollerOptions{
		DB:            database,
		Tasks:         taskRepo,
		Ledger:        ledger,
		Store:         store,
		Fetcher:       fetcher,
		AsyncProvider: asyncProvider,
	})
	taskService := services.NewTaskService(taskRepo, poller)
	sweepOpts := services.SweepOptions{Limit: cfg.Sweep.Limit, Concurrency: cfg.Sweep.Concurrency}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
		// two images plus form overhead
		BodyLimit: int(2*cfg.Media.MaxImageBytes) + 1<<20,
	})
	app.Use(logger.APILogger())

	routes.RegisterRoutes(app,
		handlers.NewTryOnHandler(tryOn, taskService),
		handlers.NewQuotaHandler(ledger),
		handlers.NewCronHandler(poller, cfg.Sweep.CronSecret, sweepOpts),
	)
	if local, ok := store.(*media.LocalStore); ok {
		routes.RegisterMedia(app, local.Dir())
	}
	if cfg.Sweep.CronSecret == "" {
		logger.Warnf("%s is not set, the cron endpoint rejects every request", constants.EnvCronSecret)
	}

	var wg sync.WaitGroup
	if cfg.Sweep.Enabled {
		wg.Add(1)
		go services.LaunchSweeper(ctx, &wg, poller, cfg.Sweep.Interval, sweepOpts)
	}

	go func() {
		logger.Infof("Server listening on :%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Errorf("server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Errorf("server shutdown failed: %v", err)
	}
	wg.Wait()

	if sqlDB, err := database.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("Server exited properly")
}

func connectDB(cfg config.DBConfig) (*gorm.DB, error) {
	sslEnabled := cfg.SSLEnabled()
	return db.New(db.Options{
		Host:       cfg.Host,
		Port:       cfg.Port,
		User:       cfg.User,
		Password:   cfg.Password,
		DBName:     cfg.Name,
		SSLEnabled: &sslEnabled,
	})
}

// newQuotaCache prefers Redis when configured and falls back to a local cache
func newQuotaCache(ctx context.Context, cfg config.QuotaConfig) quota.Cache {
	if cfg.RedisAddr == "" {
		return quota.NewMemoryCache(cfg.CacheTTL)
	}
	rdb, err := quota.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logger.Warnf("redis unavailable at %s, using in-process quota cache: %v", cfg.RedisAddr, err)
		return quota.NewMemoryCache(cfg.CacheTTL)
	}
	return quota.NewRedisCache(rdb, cfg.CacheTTL)
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	resp := types.ErrServer(err.Error())
	switch code {
	case fiber.StatusNotFound:
		resp = types.ErrNotFound(err.Error())
	case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge:
		resp = types.ErrInvalidInput(err.Error())
	}
	return c.Status(code).JSON(resp)
}
