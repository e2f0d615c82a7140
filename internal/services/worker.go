package services

import (
	"context"
	"sync"
	"time"

	"github.com/tryonlabs/tryon/internal/logger"
)

// LaunchSweeper runs Sweep every interval until ctx is canceled
func LaunchSweeper(ctx context.Context, wg *sync.WaitGroup, poller *Poller, interval time.Duration, opts SweepOptions) {
	defer wg.Done()
	if interval <= 0 {
		interval = 30 * time.Second
	}

	logger.Infof("Sweeper started, interval %s", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Sweeper received shutdown signal, stopping...")
			return
		case <-ticker.C:
		}

		report, err := poller.Sweep(ctx, opts)
		if err != nil {
			logger.Errorf("Sweeper error: %v", err)
			continue
		}
		if report.Scanned == 0 {
			logger.Debug("Sweeper: no in-flight tasks")
		}
	}
}
