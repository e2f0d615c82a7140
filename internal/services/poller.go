package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/tryonlabs/tryon/internal/db/models"
	"github.com/tryonlabs/tryon/internal/db/repos"
	"github.com/tryonlabs/tryon/internal/logger"
	"github.com/tryonlabs/tryon/internal/media"
	"github.com/tryonlabs/tryon/internal/provider"
	"github.com/tryonlabs/tryon/internal/quota"
)

// Sweep defaults
const (
	DefaultSweepLimit       = 50
	DefaultSweepConcurrency = 4
)

// PollResult is the task state after one poll
type PollResult struct {
	Status          models.TaskStatus `json:"status"`
	IsNewCompletion bool              `json:"isNewCompletion"`
	Task            *models.Task      `json:"task"`
}

// PollerOptions wires the poller's collaborators
type PollerOptions struct {
	DB            *gorm.DB
	Tasks         *repos.TaskRepository
	Ledger        *quota.Ledger
	Store         media.Store
	Fetcher       media.Fetcher
	AsyncProvider provider.AsyncProvider
}

// Poller converges async tasks. Any number of pollers may run against the same
// task; the conditional completion makes exactly one of them win.
type Poller struct {
	tasks   *repos.TaskRepository
	store   media.Store
	fetcher media.Fetcher
	asyncP  provider.AsyncProvider
	fin     finalizer
}

// NewPoller creates a new Poller
func NewPoller(opts PollerOptions) *Poller {
	return &Poller{
		tasks:   opts.Tasks,
		store:   opts.Store,
		fetcher: opts.Fetcher,
		asyncP:  opts.AsyncProvider,
		fin:     finalizer{db: opts.DB, tasks: opts.Tasks, ledger: opts.Ledger},
	}
}

// Poll checks the provider for the task's result and finalizes it when ready.
// Transient provider and media failures leave the task untouched and are not
// returned as errors; the next poll retries.
func (p *Poller) Poll(ctx context.Context, taskID string) (*PollResult, error) {
	task, err := p.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repos.ErrTaskNotFound) {
			return nil, errors.Join(ErrTaskNotFound, err)
		}
		return nil, err
	}

	if task.Status.IsTerminal() {
		return current(task), nil
	}

	meta := task.Metadata()
	if !meta.IsAsync() || meta.ExternalTaskID == "" {
		return current(task), nil
	}

	fields := map[string]interface{}{
		"task_id":          task.ID,
		"external_task_id": meta.ExternalTaskID,
	}

	result, err := p.asyncP.FetchResult(ctx, meta.ExternalTaskID)
	if err != nil && provider.IsTerminal(err) {
		// the provider rejects the job id itself; no later poll can succeed
		if err := p.fin.fail(ctx, task, err.Error(), meta); err != nil {
			return nil, fmt.Errorf("failed to mark task %s as failed: %w", task.ID, err)
		}
		return p.reload(ctx, task.ID, false)
	}
	if err != nil {
		fields["error"] = err.Error()
		logger.WarnWithFields("provider fetch failed, will retry", fields)
		return current(task), nil
	}

	switch result.Status {
	case provider.ResultPending:
		return current(task), nil

	case provider.ResultFailed:
		meta = meta.Merge(models.TaskMetadata{ProviderStatus: result.RawStatus})
		if err := p.fin.fail(ctx, task, result.Error, meta); err != nil {
			return nil, fmt.Errorf("failed to mark task %s as failed: %w", task.ID, err)
		}
		return p.reload(ctx, task.ID, false)

	case provider.ResultSucceeded:
		resultURL, err := media.Rehost(ctx, p.store, p.fetcher, result.ResultURL, task.UserID, task.ID)
		if err != nil {
			fields["error"] = err.Error()
			logger.WarnWithFields("result rehost failed, will retry", fields)
			return current(task), nil
		}
		meta = meta.Merge(models.TaskMetadata{
			ProviderStatus:    result.RawStatus,
			OriginalResultURL: result.ResultURL,
		})
		won, err := p.fin.complete(ctx, task, resultURL, meta)
		if err != nil {
			return nil, fmt.Errorf("failed to complete task %s: %w", task.ID, err)
		}
		return p.reload(ctx, task.ID, won)

	default:
		return nil, fmt.Errorf("unexpected provider status %q", result.Status)
	}
}

func (p *Poller) reload(ctx context.Context, taskID string, isNew bool) (*PollResult, error) {
	task, err := p.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	res := current(task)
	res.IsNewCompletion = isNew
	return res, nil
}

func current(task *models.Task) *PollResult {
	return &PollResult{Status: task.Status, Task: task}
}

// SweepOptions bounds one sweep
type SweepOptions struct {
	Limit       int
	Concurrency int
}

// SweepReport summarizes one sweep
type SweepReport struct {
	Scanned   int           `json:"scanned"`
	Completed int           `json:"completed"`
	Failed    int           `json:"failed"`
	Pending   int           `json:"pending"`
	Errors    int           `json:"errors"`
	Duration  time.Duration `json:"duration"`
}

// Sweep polls the oldest in-flight async tasks with bounded parallelism.
// Errors on individual tasks are counted, not returned.
func (p *Poller) Sweep(ctx context.Context, opts SweepOptions) (*SweepReport, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultSweepLimit
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultSweepConcurrency
	}

	start := time.Now()
	tasks, err := p.tasks.ListPendingAsync(ctx, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending tasks: %w", err)
	}

	report := &SweepReport{Scanned: len(tasks)}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(opts.Concurrency)
	for _, task := range tasks {
		taskID := task.ID
		g.Go(func() error {
			res, err := p.Poll(ctx, taskID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				report.Errors++
				logger.Errorf("sweep failed to poll task %s: %v", taskID, err)
			case res.IsNewCompletion:
				report.Completed++
			case res.Status == models.TaskStatusFailed:
				report.Failed++
			default:
				report.Pending++
			}
			return nil
		})
	}
	_ = g.Wait()

	report.Duration = time.Since(start)
	logger.InfoWithFields("sweep finished", map[string]interface{}{
		"scanned":   report.Scanned,
		"completed": report.Completed,
		"failed":    report.Failed,
		"pending":   report.Pending,
		"errors":    report.Errors,
		"duration":  report.Duration.String(),
	})
	return report, nil
}
