// Package provider talks to the AI image providers that composite try-on results.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/tryonlabs/tryon/internal/db/models"
)

// ComposeRequest describes one try-on job
type ComposeRequest struct {
	UserImageURL string
	ItemImageURL string
	ItemType     models.ItemType
}

// ComposeResult is a finished sync composition. ImageURL may be a data URI.
type ComposeResult struct {
	ImageURL    string
	Description string
	Model       string
}

// ResultStatus is the normalized state of an async job
type ResultStatus string

// Normalized async job states
const (
	ResultPending   ResultStatus = "pending"
	ResultSucceeded ResultStatus = "succeeded"
	ResultFailed    ResultStatus = "failed"
)

// FetchResult is the async provider's view of a job
type FetchResult struct {
	Status    ResultStatus
	RawStatus string
	ResultURL string
	Error     string
}

// SyncProvider composes the image within the request
type SyncProvider interface {
	Compose(ctx context.Context, req ComposeRequest) (*ComposeResult, error)
}

// AsyncProvider accepts a job and is polled for its result
type AsyncProvider interface {
	Submit(ctx context.Context, req ComposeRequest) (string, error)
	FetchResult(ctx context.Context, externalID string) (*FetchResult, error)
}

// Error is a failed provider call. Terminal errors will not succeed on retry.
type Error struct {
	Op         string
	StatusCode int
	Terminal   bool
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s failed with status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTerminal reports whether err is a provider error that retrying cannot fix
func IsTerminal(err error) bool {
	var perr *Error
	return errors.As(err, &perr) && perr.Terminal
}
