package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/tryonlabs/tryon/internal/db/models"
	"github.com/tryonlabs/tryon/internal/db/repos"
	"github.com/tryonlabs/tryon/internal/logger"
	"github.com/tryonlabs/tryon/internal/media"
	"github.com/tryonlabs/tryon/internal/provider"
	"github.com/tryonlabs/tryon/internal/quota"
)

// SubmitStatus is the outcome reported by Submit
type SubmitStatus string

// Submit outcomes
const (
	SubmitStatusSubmitted SubmitStatus = "submitted"
	SubmitStatusCompleted SubmitStatus = "completed"
)

// SubmitRequest is one try-on submission with raw image uploads
type SubmitRequest struct {
	UserID    string
	UserImage []byte
	ItemImage []byte
	ItemType  string
}

// SubmitResult is returned by Submit
type SubmitResult struct {
	TaskID         string             `json:"taskId"`
	Status         SubmitStatus       `json:"status"`
	ServiceType    models.ServiceType `json:"serviceType"`
	IsAsync        bool               `json:"isAsync"`
	ResultImageURL *string            `json:"resultImageUrl,omitempty"`
}

// TryOnOptions wires the orchestrator's collaborators
type TryOnOptions struct {
	DB            *gorm.DB
	Tasks         *repos.TaskRepository
	Ledger        *quota.Ledger
	Store         media.Store
	Normalizer    media.Normalizer
	Fetcher       media.Fetcher
	SyncProvider  provider.SyncProvider
	AsyncProvider provider.AsyncProvider
	// Router defaults to TierRouter
	Router Router
	// Retention stamps ExpiresAt on new tasks when positive
	Retention time.Duration
}

// TryOn orchestrates a single submission end to end
type TryOn struct {
	tasks      *repos.TaskRepository
	ledger     *quota.Ledger
	store      media.Store
	normalizer media.Normalizer
	fetcher    media.Fetcher
	syncP      provider.SyncProvider
	asyncP     provider.AsyncProvider
	route      Router
	retention  time.Duration
	fin        finalizer
	now        func() time.Time
}

// NewTryOnService creates a new try-on service instance
func NewTryOnService(opts TryOnOptions) *TryOn {
	route := opts.Router
	if route == nil {
		route = TierRouter
	}
	return &TryOn{
		tasks:      opts.Tasks,
		ledger:     opts.Ledger,
		store:      opts.Store,
		normalizer: opts.Normalizer,
		fetcher:    opts.Fetcher,
		syncP:      opts.SyncProvider,
		asyncP:     opts.AsyncProvider,
		route:      route,
		retention:  opts.Retention,
		fin:        finalizer{db: opts.DB, tasks: opts.Tasks, ledger: opts.Ledger},
		now:        time.Now,
	}
}

// Submit validates the request, checks quota, stores the inputs, creates the
// task and hands it to the routed provider. Exactly one task row is created
// once quota is granted.
func (s *TryOn) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	itemType, err := validateSubmit(req)
	if err != nil {
		return nil, err
	}

	user, decision, err := s.ledger.Authorize(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check quota: %w", err)
	}
	if !decision.Allowed {
		return nil, ErrQuotaExhausted
	}

	userImageURL, itemImageURL, err := s.storeInputs(ctx, req)
	if err != nil {
		return nil, err
	}

	serviceType := s.route(user, s.now())
	task := &models.Task{
		UserID:       req.UserID,
		UserImageURL: userImageURL,
		ItemImageURL: itemImageURL,
		ItemType:     itemType,
		Status:       models.TaskStatusPending,
	}
	task.SetMetadata(models.TaskMetadata{ServiceType: serviceType})
	if s.retention > 0 {
		expiresAt := s.now().Add(s.retention)
		task.ExpiresAt = &expiresAt
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		if delErr := s.store.Delete(ctx, []string{userImageURL, itemImageURL}); delErr != nil {
			logger.Warnf("failed to clean up inputs of unsaved task: %v", delErr)
		}
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	logger.InfoWithFields("task created", map[string]interface{}{
		"task_id":         task.ID,
		"user_id":         task.UserID,
		"service_type":    serviceType,
		"item_type":       itemType,
		"quota_reason":    decision.Reason,
		"quota_remaining": decision.Remaining,
	})

	composeReq := provider.ComposeRequest{
		UserImageURL: userImageURL,
		ItemImageURL: itemImageURL,
		ItemType:     itemType,
	}
	if serviceType == models.ServiceTypeSync {
		return s.runSync(ctx, task, composeReq)
	}
	return s.runAsync(ctx, task, composeReq)
}

func validateSubmit(req SubmitRequest) (models.ItemType, error) {
	if req.UserID == "" {
		return "", &ValidationError{Field: "userId", Message: "is required"}
	}
	if len(req.UserImage) == 0 {
		return "", &ValidationError{Field: "userImage", Message: "is required"}
	}
	if len(req.ItemImage) == 0 {
		return "", &ValidationError{Field: "itemImage", Message: "is required"}
	}
	itemType, err := models.ParseItemType(req.ItemType)
	if err != nil {
		return "", &ValidationError{Field: "itemType", Message: err.Error()}
	}
	return itemType, nil
}

// storeInputs normalizes and uploads both images concurrently
func (s *TryOn) storeInputs(ctx context.Context, req SubmitRequest) (string, string, error) {
	name := uuid.NewString()
	inputs := []struct {
		field string
		role  string
		data  []byte
		url   string
	}{
		{field: "userImage", role: "user", data: req.UserImage},
		{field: "itemImage", role: "item", data: req.ItemImage},
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range inputs {
		in := &inputs[i]
		g.Go(func() error {
			img, err := s.normalizer.Normalize(in.data)
			if err != nil {
				return &ValidationError{Field: in.field, Message: err.Error()}
			}
			path := media.InputPath(req.UserID, name, in.role, img.FileType.Ext())
			url, err := s.store.Put(gctx, img.Data, img.ContentType(), path)
			if err != nil {
				return errors.Join(ErrMediaStore, err)
			}
			in.url = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var uploaded []string
		for _, in := range inputs {
			if in.url != "" {
				uploaded = append(uploaded, in.url)
			}
		}
		if len(uploaded) > 0 {
			if delErr := s.store.Delete(ctx, uploaded); delErr != nil {
				logger.Warnf("failed to clean up partial upload: %v", delErr)
			}
		}
		return "", "", err
	}
	return inputs[0].url, inputs[1].url, nil
}

// runSync composes, rehosts and completes the task before returning
func (s *TryOn) runSync(ctx context.Context, task *models.Task, req provider.ComposeRequest) (*SubmitResult, error) {
	meta := task.Metadata()

	result, err := s.syncP.Compose(ctx, req)
	if err != nil {
		s.failTask(ctx, task, err.Error(), meta)
		return nil, &ProviderError{TaskID: task.ID, ServiceType: models.ServiceTypeSync, Terminal: provider.IsTerminal(err), Err: err}
	}

	meta = meta.Merge(models.TaskMetadata{
		Description:       result.Description,
		OriginalResultURL: originalURLForMetadata(result.ImageURL),
		Extra:             map[string]interface{}{"model": result.Model},
	})

	resultURL, err := media.Rehost(ctx, s.store, s.fetcher, result.ImageURL, task.UserID, task.ID)
	if err != nil {
		s.failTask(ctx, task, "failed to store result: "+err.Error(), meta)
		return nil, errors.Join(ErrMediaStore, err)
	}

	won, err := s.fin.complete(ctx, task, resultURL, meta)
	if err != nil {
		s.failTask(ctx, task, "failed to finalize task", meta)
		return nil, fmt.Errorf("failed to complete task %s: %w", task.ID, err)
	}
	if !won {
		// only possible if something else finalized the row first
		current, err := s.tasks.GetByID(ctx, task.ID)
		if err != nil {
			return nil, err
		}
		return resultFromTask(current), nil
	}

	return &SubmitResult{
		TaskID:         task.ID,
		Status:         SubmitStatusCompleted,
		ServiceType:    models.ServiceTypeSync,
		IsAsync:        false,
		ResultImageURL: &resultURL,
	}, nil
}

// runAsync hands the task to the queue provider and returns immediately
func (s *TryOn) runAsync(ctx context.Context, task *models.Task, req provider.ComposeRequest) (*SubmitResult, error) {
	meta := task.Metadata()

	externalID, err := s.asyncP.Submit(ctx, req)
	if err != nil {
		s.failTask(ctx, task, err.Error(), meta)
		return nil, &ProviderError{TaskID: task.ID, ServiceType: models.ServiceTypeAsync, Terminal: provider.IsTerminal(err), Err: err}
	}

	meta.ExternalTaskID = externalID
	rows, err := s.tasks.MarkSubmitted(ctx, task.ID, meta)
	if err != nil {
		logger.Warnf("failed to record submission of task %s, retrying: %v", task.ID, err)
		rows, err = s.tasks.MarkSubmitted(ctx, task.ID, meta)
	}
	if err != nil {
		// A PENDING row without an external id is never polled again
		s.failTask(ctx, task, "failed to record provider submission", meta)
		return nil, &ProviderError{
			TaskID:      task.ID,
			ServiceType: models.ServiceTypeAsync,
			Err:         fmt.Errorf("failed to record submission of task %s: %w", task.ID, err),
		}
	}
	if rows == 0 {
		logger.Warnf("task %s left PENDING before submission was recorded", task.ID)
	}

	return &SubmitResult{
		TaskID:      task.ID,
		Status:      SubmitStatusSubmitted,
		ServiceType: models.ServiceTypeAsync,
		IsAsync:     true,
	}, nil
}

func (s *TryOn) failTask(ctx context.Context, task *models.Task, message string, meta models.TaskMetadata) {
	if err := s.fin.fail(ctx, task, message, meta); err != nil {
		logger.Errorf("failed to mark task %s as failed: %v", task.ID, err)
	}
}

func resultFromTask(task *models.Task) *SubmitResult {
	meta := task.Metadata()
	status := SubmitStatusSubmitted
	if task.Status == models.TaskStatusCompleted {
		status = SubmitStatusCompleted
	}
	return &SubmitResult{
		TaskID:         task.ID,
		Status:         status,
		ServiceType:    meta.ServiceType,
		IsAsync:        meta.IsAsync(),
		ResultImageURL: task.ResultImageURL,
	}
}

// originalURLForMetadata keeps provider URLs for diagnostics but not inline image data
func originalURLForMetadata(src string) string {
	if strings.HasPrefix(src, "data:") {
		return ""
	}
	return src
}
