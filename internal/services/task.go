package services

import (
	"context"
	"errors"

	"github.com/tryonlabs/tryon/internal/db/models"
	"github.com/tryonlabs/tryon/internal/db/repos"
)

// Task provides read access to a user's try-on tasks
type Task struct {
	repo   *repos.TaskRepository
	poller *Poller
}

// NewTaskService creates a new task service instance
func NewTaskService(repo *repos.TaskRepository, poller *Poller) *Task {
	return &Task{
		repo:   repo,
		poller: poller,
	}
}

// GetTask retrieves a task owned by the user
func (s *Task) GetTask(ctx context.Context, userID, taskID string) (*models.Task, error) {
	task, err := s.repo.GetByIDForUser(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, repos.ErrTaskNotFound) {
			return nil, errors.Join(ErrTaskNotFound, err)
		}
		return nil, err
	}
	return task, nil
}

// PollTask checks ownership, then polls the task towards a terminal state
func (s *Task) PollTask(ctx context.Context, userID, taskID string) (*PollResult, error) {
	if _, err := s.GetTask(ctx, userID, taskID); err != nil {
		return nil, err
	}
	return s.poller.Poll(ctx, taskID)
}

// ListTasks lists the user's tasks, newest first
func (s *Task) ListTasks(ctx context.Context, userID string, opts *models.ListOptions) ([]models.Task, error) {
	return s.repo.ListByUser(ctx, userID, opts)
}
