package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/tryonlabs/tryon/internal/db/models"
	"github.com/tryonlabs/tryon/internal/db/repos"
	"github.com/tryonlabs/tryon/internal/logger"
	"github.com/tryonlabs/tryon/internal/quota"
)

// finalizer performs the single COMPLETED transition of a task together with
// its quota deduction
type finalizer struct {
	db     *gorm.DB
	tasks  *repos.TaskRepository
	ledger *quota.Ledger
}

// complete runs the compare-and-set and, only for the winner, the deduction, in
// one transaction. It returns false without error when the task was already terminal.
func (f finalizer) complete(ctx context.Context, task *models.Task, resultURL string, meta models.TaskMetadata) (bool, error) {
	won := false
	var source quota.Source
	err := f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := f.tasks.WithTx(tx).CompleteIfNotTerminal(ctx, task.ID, resultURL, meta)
		if err != nil {
			return err
		}
		if rows == 0 {
			return nil
		}
		source, err = f.ledger.DeductTx(ctx, tx, task.UserID)
		if err != nil {
			return err
		}
		won = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if !won {
		logger.InfoWithFields("task already terminal, discarding completion", map[string]interface{}{
			"task_id": task.ID,
			"user_id": task.UserID,
		})
		return false, nil
	}

	f.ledger.Invalidate(ctx, task.UserID)
	logger.InfoWithFields("task completed", map[string]interface{}{
		"task_id":      task.ID,
		"user_id":      task.UserID,
		"service_type": meta.ServiceType,
		"quota_source": source,
	})
	return true, nil
}

// fail moves a non-terminal task to FAILED. Losing the race is not an error.
func (f finalizer) fail(ctx context.Context, task *models.Task, message string, meta models.TaskMetadata) error {
	rows, err := f.tasks.FailIfNotTerminal(ctx, task.ID, message, meta)
	if err != nil {
		return err
	}
	if rows == 0 {
		logger.Infof("task %s already terminal, not marking failed", task.ID)
		return nil
	}
	logger.WarnWithFields("task failed", map[string]interface{}{
		"task_id": task.ID,
		"user_id": task.UserID,
		"error":   message,
	})
	return nil
}
