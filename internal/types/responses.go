package types

import (
	"time"

	"github.com/tryonlabs/tryon/internal/db/models"
)

// PaginationResponse represents pagination information for list endpoints
// Example: {"page":1,"limit":50,"offset":0,"count":2}
type PaginationResponse struct {
	// Current page number (1-based)
	Page int `json:"page"`

	// Maximum number of items per page
	Limit int `json:"limit"`

	// Number of items skipped from the beginning of the result set
	Offset int `json:"offset"`

	// Number of items in this page
	Count int `json:"count"`
}

// ListResponse defines a generic response structure for listing resources
type ListResponse[T any] struct {
	// Array of resource items
	Rows []T `json:"rows"`

	// Pagination information for the result set
	Pagination PaginationResponse `json:"pagination"`
}

// SubmitResponse is returned by the try-on submit endpoint
// Example: {"taskId":"9b1d...","status":"submitted","serviceType":"async-provider","isAsync":true}
type SubmitResponse struct {
	TaskID         string             `json:"taskId"`
	Status         string             `json:"status"`
	ServiceType    models.ServiceType `json:"serviceType"`
	IsAsync        bool               `json:"isAsync"`
	ResultImageURL *string            `json:"resultImageUrl,omitempty"`
}

// TaskView is the public representation of a try-on task
type TaskView struct {
	ID             string            `json:"id"`
	Status         models.TaskStatus `json:"status"`
	ItemType       models.ItemType   `json:"itemType"`
	UserImageURL   string            `json:"userImageUrl"`
	ItemImageURL   string            `json:"itemImageUrl"`
	ResultImageURL *string           `json:"resultImageUrl,omitempty"`
	ServiceType    string            `json:"serviceType"`
	IsAsync        bool              `json:"isAsync"`
	Description    string            `json:"description,omitempty"`
	ErrorMessage   *string           `json:"errorMessage,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	CompletedAt    *time.Time        `json:"completedAt,omitempty"`
	ExpiresAt      *time.Time        `json:"expiresAt,omitempty"`

	// IsNewCompletion is set when this request observed the transition into COMPLETED
	IsNewCompletion bool `json:"isNewCompletion"`
}

// NewTaskView builds the public view of a task. Provider internals such as the
// external task id and the provider's own result URL are not exposed.
func NewTaskView(task *models.Task) TaskView {
	meta := task.Metadata()
	return TaskView{
		ID:             task.ID,
		Status:         task.Status,
		ItemType:       task.ItemType,
		UserImageURL:   task.UserImageURL,
		ItemImageURL:   task.ItemImageURL,
		ResultImageURL: task.ResultImageURL,
		ServiceType:    string(meta.ServiceType),
		IsAsync:        meta.IsAsync(),
		Description:    meta.Description,
		ErrorMessage:   task.ErrorMessage,
		CreatedAt:      task.CreatedAt,
		CompletedAt:    task.CompletedAt,
		ExpiresAt:      task.ExpiresAt,
	}
}

// SweepResponse is returned by the cron poll endpoint
// Example: {"scanned":3,"completed":1,"failed":0,"pending":2,"errors":0,"durationMs":412}
type SweepResponse struct {
	Scanned    int   `json:"scanned"`
	Completed  int   `json:"completed"`
	Failed     int   `json:"failed"`
	Pending    int   `json:"pending"`
	Errors     int   `json:"errors"`
	DurationMs int64 `json:"durationMs"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status string `json:"status"`
}
