package provider

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tryonlabs/tryon/internal/logger"
)

const tasksEndpoint = "/v1/tasks"

type submitRequest struct {
	Prompt   string     `json:"prompt"`
	ItemType string     `json:"item_type"`
	Input    taskImages `json:"input"`
}

type taskImages struct {
	PersonImage string `json:"person_image"`
	ItemImage   string `json:"item_image"`
}

type submitResponse struct {
	TaskID string `json:"task_id"`
}

type taskResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
	Output struct {
		ImageURL  string   `json:"image_url"`
		ImageURLs []string `json:"image_urls"`
	} `json:"output"`
	Error string `json:"error"`
}

// AsyncClient calls the queue-based provider that is polled for results
type AsyncClient struct {
	http httpClient
}

// NewAsyncClient creates a new AsyncClient
func NewAsyncClient(baseURL, token string, timeout time.Duration) *AsyncClient {
	return &AsyncClient{http: newHTTPClient(baseURL, token, timeout)}
}

// Submit enqueues the job and returns the provider's task id
func (c *AsyncClient) Submit(ctx context.Context, req ComposeRequest) (string, error) {
	body := submitRequest{
		Prompt:   PromptFor(req.ItemType),
		ItemType: string(req.ItemType),
		Input: taskImages{
			PersonImage: req.UserImageURL,
			ItemImage:   req.ItemImageURL,
		},
	}

	var resp submitResponse
	if err := c.http.do(ctx, "submit", http.MethodPost, tasksEndpoint, body, &resp); err != nil {
		return "", err
	}
	if resp.TaskID == "" {
		return "", &Error{Op: "submit", Terminal: true, Err: errors.New("provider returned no task id")}
	}
	return resp.TaskID, nil
}

// FetchResult reads the job state
func (c *AsyncClient) FetchResult(ctx context.Context, externalID string) (*FetchResult, error) {
	var resp taskResponse
	endpoint := tasksEndpoint + "/" + url.PathEscape(externalID)
	if err := c.http.do(ctx, "fetch", http.MethodGet, endpoint, nil, &resp); err != nil {
		// Only a missing job fails the task; anything else is retried by the next poll
		var perr *Error
		if errors.As(err, &perr) {
			perr.Terminal = isTerminalFetchStatus(perr.StatusCode)
		}
		return nil, err
	}

	result := &FetchResult{
		Status:    MapStatus(resp.Status),
		RawStatus: resp.Status,
		ResultURL: resp.Output.ImageURL,
		Error:     resp.Error,
	}
	if result.ResultURL == "" && len(resp.Output.ImageURLs) > 0 {
		result.ResultURL = resp.Output.ImageURLs[0]
	}
	if result.Status == ResultSucceeded && result.ResultURL == "" {
		result.Status = ResultFailed
		result.Error = "provider reported success without a result image"
	}
	if result.Status == ResultFailed && result.Error == "" {
		result.Error = "provider reported status " + resp.Status
	}
	return result, nil
}

// MapStatus normalizes the provider's status vocabulary. Unknown values stay pending.
func MapStatus(raw string) ResultStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "succeeded", "success", "completed", "complete", "done":
		return ResultSucceeded
	case "failed", "failure", "error", "expired", "cancelled", "canceled":
		return ResultFailed
	case "queued", "pending", "running", "processing", "in_progress", "starting":
		return ResultPending
	default:
		logger.Warnf("unknown async provider status %q, treating as pending", raw)
		return ResultPending
	}
}
