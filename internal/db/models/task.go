package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Field names for task model
const (
	TaskIDField               = "id"
	TaskUserIDField           = "user_id"
	TaskStatusField           = "status"
	TaskResultImageURLField   = "result_image_url"
	TaskProviderMetadataField = "provider_metadata"
	TaskErrorMessageField     = "error_message"
	TaskCompletedAtField      = "completed_at"
	TaskCreatedAtField        = "created_at"
	TaskUpdatedAtField        = "updated_at"
)

// TaskStatus represents the current state of a try-on task
type TaskStatus string

// Task status constants
const (
	// TaskStatusPending indicates the task row exists but nothing was handed to a provider yet
	TaskStatusPending TaskStatus = "PENDING"
	// TaskStatusProcessing indicates the async provider accepted the job
	TaskStatusProcessing TaskStatus = "PROCESSING"
	// TaskStatusCompleted indicates a rehosted result is available
	TaskStatusCompleted TaskStatus = "COMPLETED"
	// TaskStatusFailed indicates the provider gave up on the task
	TaskStatusFailed TaskStatus = "FAILED"
)

// TerminalTaskStatuses lists the statuses no task may leave
var TerminalTaskStatuses = []TaskStatus{TaskStatusCompleted, TaskStatusFailed}

// String returns the string representation of the task status
func (s TaskStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the status is COMPLETED or FAILED
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// ParseTaskStatus converts a string to a TaskStatus type
func ParseTaskStatus(str string) (TaskStatus, error) {
	switch TaskStatus(str) {
	case TaskStatusPending, TaskStatusProcessing, TaskStatusCompleted, TaskStatusFailed:
		return TaskStatus(str), nil
	default:
		return "", fmt.Errorf("invalid task status: %s", str)
	}
}

// UnmarshalJSON implements json.Unmarshaler for TaskStatus
func (s *TaskStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	status, err := ParseTaskStatus(str)
	if err != nil {
		return err
	}

	*s = status
	return nil
}

// ItemType is the kind of item being tried on
type ItemType string

// Supported item types
const (
	ItemTypeGlasses  ItemType = "glasses"
	ItemTypeHat      ItemType = "hat"
	ItemTypeEarrings ItemType = "earrings"
	ItemTypeNecklace ItemType = "necklace"
	ItemTypeClothing ItemType = "clothing"
)

// ParseItemType converts a string to an ItemType, defaulting empty input to glasses
func ParseItemType(str string) (ItemType, error) {
	if str == "" {
		return ItemTypeGlasses, nil
	}
	switch ItemType(str) {
	case ItemTypeGlasses, ItemTypeHat, ItemTypeEarrings, ItemTypeNecklace, ItemTypeClothing:
		return ItemType(str), nil
	default:
		return "", fmt.Errorf("invalid item type: %s", str)
	}
}

// Task is a persisted try-on job
type Task struct {
	ID               string                           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID           string                           `json:"userId" gorm:"not null;index"`
	UserImageURL     string                           `json:"userImageUrl" gorm:"not null;type:text"`
	ItemImageURL     string                           `json:"itemImageUrl" gorm:"not null;type:text"`
	ItemType         ItemType                         `json:"itemType" gorm:"not null;default:'glasses'"`
	ResultImageURL   *string                          `json:"resultImageUrl,omitempty" gorm:"type:text"`
	Status           TaskStatus                       `json:"status" gorm:"not null;index"`
	ProviderMetadata datatypes.JSONType[TaskMetadata] `json:"providerMetadata"`
	ErrorMessage     *string                          `json:"errorMessage,omitempty" gorm:"type:text"`
	CreatedAt        time.Time                        `json:"createdAt" gorm:"index"`
	UpdatedAt        time.Time                        `json:"updatedAt"`
	CompletedAt      *time.Time                       `json:"completedAt,omitempty"`
	ExpiresAt        *time.Time                       `json:"expiresAt,omitempty" gorm:"index"`
}

// TableName overrides the table name
func (Task) TableName() string {
	return "tryon_tasks"
}

// Metadata returns the typed provider metadata
func (t *Task) Metadata() TaskMetadata {
	return t.ProviderMetadata.Data()
}

// SetMetadata replaces the provider metadata
func (t *Task) SetMetadata(meta TaskMetadata) {
	t.ProviderMetadata = datatypes.NewJSONType(meta)
}

// Validate ensures that the task data is valid
func (t *Task) Validate() error {
	if t.UserID == "" {
		return fmt.Errorf("task user_id cannot be empty")
	}
	if t.UserImageURL == "" || t.ItemImageURL == "" {
		return fmt.Errorf("task requires both user and item image urls")
	}
	return nil
}

// BeforeCreate is a GORM hook that runs before creating a new task
func (t *Task) BeforeCreate(_ *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = TaskStatusPending
	}
	if t.ItemType == "" {
		t.ItemType = ItemTypeGlasses
	}
	return t.Validate()
}
