package repos

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/tryonlabs/tryon/internal/db/models"
)

type TaskRepositoryTestSuite struct {
	DBRepositoryTestSuite
}

func TestTaskRepository(t *testing.T) {
	suite.Run(t, new(TaskRepositoryTestSuite))
}

func (s *TaskRepositoryTestSuite) TestCreateAndGet() {
	task := s.createTestTask("user-a", models.ServiceTypeSync)
	s.Require().NotEmpty(task.ID)
	s.Require().Equal(models.TaskStatusPending, task.Status)

	got, err := s.taskRepo.GetByID(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Equal(task.ID, got.ID)
	s.Equal("user-a", got.UserID)
	s.Equal(models.ServiceTypeSync, got.Metadata().ServiceType)
	s.Nil(got.ResultImageURL)

	got, err = s.taskRepo.GetByIDForUser(s.ctx, "user-a", task.ID)
	s.Require().NoError(err)
	s.Equal(task.ID, got.ID)

	_, err = s.taskRepo.GetByIDForUser(s.ctx, "user-b", task.ID)
	s.ErrorIs(err, ErrTaskNotFound)

	_, err = s.taskRepo.GetByID(s.ctx, "missing")
	s.ErrorIs(err, ErrTaskNotFound)
}

func (s *TaskRepositoryTestSuite) TestListByUser() {
	for i := 0; i < 3; i++ {
		s.createTestTask("user-a", models.ServiceTypeSync)
		time.Sleep(2 * time.Millisecond)
	}
	s.createTestTask("user-b", models.ServiceTypeSync)

	tasks, err := s.taskRepo.ListByUser(s.ctx, "user-a", nil)
	s.Require().NoError(err)
	s.Len(tasks, 3)
	s.True(!tasks[0].CreatedAt.Before(tasks[2].CreatedAt), "newest first")

	tasks, err = s.taskRepo.ListByUser(s.ctx, "user-a", &models.ListOptions{Limit: 2, Offset: 2})
	s.Require().NoError(err)
	s.Len(tasks, 1)

	completed := models.TaskStatusCompleted
	tasks, err = s.taskRepo.ListByUser(s.ctx, "user-a", &models.ListOptions{Status: &completed})
	s.Require().NoError(err)
	s.Empty(tasks)
}

func (s *TaskRepositoryTestSuite) TestMarkSubmitted() {
	task := s.createTestTask("user-a", models.ServiceTypeAsync)

	meta := models.TaskMetadata{ServiceType: models.ServiceTypeAsync, ExternalTaskID: "ext-1"}
	rows, err := s.taskRepo.MarkSubmitted(s.ctx, task.ID, meta)
	s.Require().NoError(err)
	s.Equal(int64(1), rows)

	got, err := s.taskRepo.GetByID(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Equal(models.TaskStatusProcessing, got.Status)
	s.Equal("ext-1", got.Metadata().ExternalTaskID)

	// the external id is written once
	rows, err = s.taskRepo.MarkSubmitted(s.ctx, task.ID, models.TaskMetadata{ExternalTaskID: "ext-2"})
	s.Require().NoError(err)
	s.Equal(int64(0), rows)

	got, err = s.taskRepo.GetByID(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Equal("ext-1", got.Metadata().ExternalTaskID)
}

func (s *TaskRepositoryTestSuite) TestCompleteIfNotTerminal() {
	task := s.createTestTask("user-a", models.ServiceTypeAsync)

	rows, err := s.taskRepo.CompleteIfNotTerminal(s.ctx, task.ID, "http://media.local/results/a.png", task.Metadata())
	s.Require().NoError(err)
	s.Equal(int64(1), rows)

	rows, err = s.taskRepo.CompleteIfNotTerminal(s.ctx, task.ID, "http://media.local/results/b.png", task.Metadata())
	s.Require().NoError(err)
	s.Equal(int64(0), rows)

	rows, err = s.taskRepo.FailIfNotTerminal(s.ctx, task.ID, "late failure", task.Metadata())
	s.Require().NoError(err)
	s.Equal(int64(0), rows)

	got, err := s.taskRepo.GetByID(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Equal(models.TaskStatusCompleted, got.Status)
	s.Require().NotNil(got.ResultImageURL)
	s.Equal("http://media.local/results/a.png", *got.ResultImageURL)
	s.NotNil(got.CompletedAt)
	s.Nil(got.ErrorMessage)
}

func (s *TaskRepositoryTestSuite) TestFailIfNotTerminal() {
	task := s.createTestTask("user-a", models.ServiceTypeAsync)

	rows, err := s.taskRepo.FailIfNotTerminal(s.ctx, task.ID, "provider failed", task.Metadata())
	s.Require().NoError(err)
	s.Equal(int64(1), rows)

	rows, err = s.taskRepo.CompleteIfNotTerminal(s.ctx, task.ID, "http://media.local/results/a.png", task.Metadata())
	s.Require().NoError(err)
	s.Equal(int64(0), rows)

	got, err := s.taskRepo.GetByID(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Equal(models.TaskStatusFailed, got.Status)
	s.Require().NotNil(got.ErrorMessage)
	s.Equal("provider failed", *got.ErrorMessage)
	s.Nil(got.ResultImageURL)
}

func (s *TaskRepositoryTestSuite) TestConcurrentCompletionHasOneWinner() {
	task := s.createTestTask("user-a", models.ServiceTypeAsync)

	var wg sync.WaitGroup
	var winners int64
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rows, err := s.taskRepo.CompleteIfNotTerminal(s.ctx, task.ID, "http://media.local/results/r.png", task.Metadata())
			s.NoError(err)
			atomic.AddInt64(&winners, rows)
		}()
	}
	wg.Wait()
	s.Equal(int64(1), winners)
}

func (s *TaskRepositoryTestSuite) TestListPendingAsync() {
	syncTask := s.createTestTask("user-a", models.ServiceTypeSync)
	_, err := s.taskRepo.MarkSubmitted(s.ctx, syncTask.ID, models.TaskMetadata{ServiceType: models.ServiceTypeSync})
	s.Require().NoError(err)

	var asyncIDs []string
	for i := 0; i < 3; i++ {
		task := s.createTestTask("user-a", models.ServiceTypeAsync)
		_, err := s.taskRepo.MarkSubmitted(s.ctx, task.ID, models.TaskMetadata{ServiceType: models.ServiceTypeAsync, ExternalTaskID: task.ID})
		s.Require().NoError(err)
		asyncIDs = append(asyncIDs, task.ID)
		time.Sleep(2 * time.Millisecond)
	}
	// still PENDING, never submitted
	s.createTestTask("user-a", models.ServiceTypeAsync)

	tasks, err := s.taskRepo.ListPendingAsync(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(tasks, 3)
	for i, task := range tasks {
		s.Equal(asyncIDs[i], task.ID)
	}

	tasks, err = s.taskRepo.ListPendingAsync(s.ctx, 2)
	s.Require().NoError(err)
	s.Len(tasks, 2)
}
