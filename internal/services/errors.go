package services

import (
	"errors"
	"fmt"

	"github.com/tryonlabs/tryon/internal/db/models"
)

// Try-on service errors
var (
	ErrQuotaExhausted     = errors.New("quota exhausted")
	ErrProviderSubmission = errors.New("provider submission failed")
	ErrTaskNotFound       = errors.New("task not found")
	ErrMediaStore         = errors.New("media store failure")
)

// ValidationError reports a bad request field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ProviderError is a provider failure surfaced to the caller of Submit.
// It matches ErrProviderSubmission with errors.Is.
type ProviderError struct {
	// TaskID is the task that was marked FAILED
	TaskID      string
	ServiceType models.ServiceType
	Terminal    bool
	Err         error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrProviderSubmission, e.ServiceType, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrProviderSubmission) hold for every ProviderError
func (e *ProviderError) Is(target error) bool {
	return target == ErrProviderSubmission
}
