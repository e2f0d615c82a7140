package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tryonlabs/tryon/internal/db/models"
)

// ErrTaskNotFound is returned when a task lookup misses
var ErrTaskNotFound = errors.New("task not found")

// TaskRepository handles database operations for try-on tasks
type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new instance of TaskRepository
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{
		db: db,
	}
}

// WithTx returns a repository bound to the given transaction
func (r *TaskRepository) WithTx(tx *gorm.DB) *TaskRepository {
	return &TaskRepository{db: tx}
}

// Create creates a new task in the database
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// GetByID retrieves a task by ID from the database
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).Where(models.TaskIDField+" = ?", id).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task %s: %w", id, err)
	}
	return &task, nil
}

// GetByIDForUser retrieves a task only when it belongs to the user
func (r *TaskRepository) GetByIDForUser(ctx context.Context, userID, id string) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).
		Where(models.TaskIDField+" = ? AND "+models.TaskUserIDField+" = ?", id, userID).
		First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task %s: %w", id, err)
	}
	return &task, nil
}

// ListByUser retrieves a user's tasks, newest first
func (r *TaskRepository) ListByUser(ctx context.Context, userID string, opts *models.ListOptions) ([]models.Task, error) {
	if opts == nil {
		opts = &models.ListOptions{}
	}
	opts.Normalize()

	query := r.db.WithContext(ctx).Where(models.TaskUserIDField+" = ?", userID)
	if opts.Status != nil {
		query = query.Where(models.TaskStatusField+" = ?", *opts.Status)
	}

	var tasks []models.Task
	err := query.
		Order(models.TaskCreatedAtField + " DESC").
		Limit(opts.Limit).
		Offset(opts.Offset).
		Find(&tasks).Error
	return tasks, err
}

// ListPendingAsync returns PROCESSING tasks served by the async provider, oldest first
func (r *TaskRepository) ListPendingAsync(ctx context.Context, limit int) ([]models.Task, error) {
	if limit <= 0 {
		limit = models.DefaultLimit
	}
	var tasks []models.Task
	err := r.db.WithContext(ctx).
		Where(models.TaskStatusField+" = ?", models.TaskStatusProcessing).
		Where(datatypes.JSONQuery(models.TaskProviderMetadataField).
			Equals(string(models.ServiceTypeAsync), models.MetadataServiceTypeKey)).
		Order(models.TaskCreatedAtField + " ASC").
		Limit(limit).
		Find(&tasks).Error
	return tasks, err
}

// MarkSubmitted moves a PENDING task to PROCESSING and records the provider metadata.
// It returns the number of rows affected; 0 means the task was not PENDING anymore.
func (r *TaskRepository) MarkSubmitted(ctx context.Context, id string, meta models.TaskMetadata) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Task{}).
		Where(models.TaskIDField+" = ? AND "+models.TaskStatusField+" = ?", id, models.TaskStatusPending).
		Updates(map[string]interface{}{
			models.TaskStatusField:           models.TaskStatusProcessing,
			models.TaskProviderMetadataField: datatypes.NewJSONType(meta),
		})
	return result.RowsAffected, result.Error
}

// CompleteIfNotTerminal is the compare-and-set completion: it writes the result
// only while the task is neither COMPLETED nor FAILED and returns the rows affected.
func (r *TaskRepository) CompleteIfNotTerminal(ctx context.Context, id, resultURL string, meta models.TaskMetadata) (int64, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.Task{}).
		Where(models.TaskIDField+" = ?", id).
		Where(models.TaskStatusField+" NOT IN ?", models.TerminalTaskStatuses).
		Updates(map[string]interface{}{
			models.TaskStatusField:           models.TaskStatusCompleted,
			models.TaskResultImageURLField:   resultURL,
			models.TaskProviderMetadataField: datatypes.NewJSONType(meta),
			models.TaskCompletedAtField:      now,
		})
	return result.RowsAffected, result.Error
}

// FailIfNotTerminal marks a non-terminal task FAILED and returns the rows affected
func (r *TaskRepository) FailIfNotTerminal(ctx context.Context, id, message string, meta models.TaskMetadata) (int64, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.Task{}).
		Where(models.TaskIDField+" = ?", id).
		Where(models.TaskStatusField+" NOT IN ?", models.TerminalTaskStatuses).
		Updates(map[string]interface{}{
			models.TaskStatusField:           models.TaskStatusFailed,
			models.TaskErrorMessageField:     message,
			models.TaskProviderMetadataField: datatypes.NewJSONType(meta),
			models.TaskCompletedAtField:      now,
		})
	return result.RowsAffected, result.Error
}
