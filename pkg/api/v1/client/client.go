// Package client provides the API client for interacting with the try-on API
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/tryonlabs/tryon/internal/quota"
	"github.com/tryonlabs/tryon/internal/types"
	"github.com/tryonlabs/tryon/pkg/api/v1/handlers"
	"github.com/tryonlabs/tryon/pkg/api/v1/routes"
)

// DefaultTimeout is the default timeout for API requests. Sync submissions
// block on the provider, so it is generous.
const DefaultTimeout = 2 * time.Minute

// Client is the interface for API client
type Client interface {
	// Health Check
	HealthCheck(ctx context.Context) (types.HealthResponse, error)

	// Try-on Endpoints
	SubmitTryOn(ctx context.Context, params SubmitParams) (types.SubmitResponse, error)
	GetTryOn(ctx context.Context, id string) (types.TaskView, error)
	ListTryOns(ctx context.Context, params handlers.TaskListParams) (types.ListResponse[types.TaskView], error)

	// Quota Endpoints
	GetQuota(ctx context.Context) (quota.Status, error)

	// Cron Endpoints
	CronSweep(ctx context.Context) (types.SweepResponse, error)
	CronPollTask(ctx context.Context, taskID string) (types.TaskView, error)
}

var _ Client = &APIClient{}

// Options contains configuration options for the API client
type Options struct {
	// BaseURL is the base URL of the API
	BaseURL string

	// Timeout is the request timeout
	Timeout time.Duration

	// UserID is sent as the X-User-ID header
	UserID string

	// CronSecret authenticates the cron endpoints
	CronSecret string
}

// DefaultOptions returns the default client options
func DefaultOptions() *Options {
	return &Options{
		BaseURL: routes.DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// SubmitParams is one try-on submission
type SubmitParams struct {
	UserImage     []byte
	UserImageName string
	ItemImage     []byte
	ItemImageName string
	ItemType      string
}

// Validate validates the submission parameters
func (p SubmitParams) Validate() error {
	if len(p.UserImage) == 0 {
		return fmt.Errorf("user image is required")
	}
	if len(p.ItemImage) == 0 {
		return fmt.Errorf("item image is required")
	}
	return nil
}

// APIClient implements the Client interface
type APIClient struct {
	baseURL    string
	timeout    time.Duration
	userID     string
	cronSecret string
}

// NewClient creates a new API client with the given options
func NewClient(opts *Options) (Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	// Validate the base URL
	u, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL: %q", opts.BaseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &APIClient{
		baseURL:    opts.BaseURL,
		timeout:    timeout,
		userID:     opts.UserID,
		cronSecret: opts.CronSecret,
	}, nil
}

// createAgent creates a new Fiber Agent for the given method and endpoint
func (c *APIClient) createAgent(ctx context.Context, method, endpoint string) (*fiber.Agent, error) {
	fullURL := c.baseURL + endpoint

	var agent *fiber.Agent
	switch method {
	case http.MethodGet:
		agent = fiber.Get(fullURL)
	case http.MethodPost:
		agent = fiber.Post(fullURL)
	default:
		return nil, fmt.Errorf("unsupported HTTP method: %s", method)
	}

	// Set timeout from context or client default
	if deadline, ok := ctx.Deadline(); ok {
		agent.Timeout(time.Until(deadline))
	} else {
		agent.Timeout(c.timeout)
	}

	agent.Set("Accept", "application/json")
	if c.userID != "" {
		agent.Set(handlers.UserIDHeader, c.userID)
	}
	return agent, nil
}

// slugEnvelope mirrors types.SlugResponse with the data left undecoded
type slugEnvelope struct {
	Slug  types.Slug      `json:"slug"`
	Error string          `json:"error"`
	Data  json.RawMessage `json:"data"`
}

// doRequest sends the HTTP request and decodes the envelope's data into v
func (c *APIClient) doRequest(agent *fiber.Agent, v interface{}) error {
	statusCode, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("error sending request: %w", errs[0])
	}

	var envelope slugEnvelope
	decodeErr := json.Unmarshal(body, &envelope)

	// Check for non-success status codes
	if statusCode < 200 || statusCode >= 300 {
		msg := string(body)
		if decodeErr == nil && envelope.Error != "" {
			msg = envelope.Error
		}
		return &fiber.Error{
			Code:    statusCode,
			Message: msg,
		}
	}

	if decodeErr != nil {
		return fmt.Errorf("error decoding response: %w", decodeErr)
	}
	if v == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, v); err != nil {
		return fmt.Errorf("error decoding response data: %w", err)
	}
	return nil
}

// executeRequest creates an agent, sends the request, and processes the response
func (c *APIClient) executeRequest(ctx context.Context, method, endpoint string, response interface{}) error {
	agent, err := c.createAgent(ctx, method, endpoint)
	if err != nil {
		return err
	}
	return c.doRequest(agent, response)
}

// HealthCheck checks the health of the API
func (c *APIClient) HealthCheck(ctx context.Context) (types.HealthResponse, error) {
	agent, err := c.createAgent(ctx, http.MethodGet, routes.HealthCheckURL())
	if err != nil {
		return types.HealthResponse{}, err
	}
	statusCode, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return types.HealthResponse{}, fmt.Errorf("error sending request: %w", errs[0])
	}
	if statusCode != http.StatusOK {
		return types.HealthResponse{}, &fiber.Error{Code: statusCode, Message: string(body)}
	}
	var response types.HealthResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return types.HealthResponse{}, fmt.Errorf("error decoding response: %w", err)
	}
	return response, nil
}

// Try-on methods implementation

// SubmitTryOn uploads both images as a multipart form
func (c *APIClient) SubmitTryOn(ctx context.Context, params SubmitParams) (types.SubmitResponse, error) {
	if err := params.Validate(); err != nil {
		return types.SubmitResponse{}, err
	}

	agent, err := c.createAgent(ctx, http.MethodPost, routes.SubmitTryOnURL())
	if err != nil {
		return types.SubmitResponse{}, err
	}

	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)
	if params.ItemType != "" {
		args.Set(handlers.FormItemType, params.ItemType)
	}
	agent.FileData(
		&fiber.FormFile{Fieldname: handlers.FormUserImage, Name: fileName(params.UserImageName, "user"), Content: params.UserImage},
		&fiber.FormFile{Fieldname: handlers.FormItemImage, Name: fileName(params.ItemImageName, "item"), Content: params.ItemImage},
	)
	agent.MultipartForm(args)

	var response types.SubmitResponse
	if err := c.doRequest(agent, &response); err != nil {
		return types.SubmitResponse{}, err
	}
	return response, nil
}

func fileName(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}

// GetTryOn polls a task and returns its current view
func (c *APIClient) GetTryOn(ctx context.Context, id string) (types.TaskView, error) {
	var response types.TaskView
	if err := c.executeRequest(ctx, http.MethodGet, routes.GetTryOnURL(id), &response); err != nil {
		return types.TaskView{}, err
	}
	return response, nil
}

// ListTryOns lists the caller's tasks
func (c *APIClient) ListTryOns(ctx context.Context, params handlers.TaskListParams) (types.ListResponse[types.TaskView], error) {
	if err := params.Validate(); err != nil {
		return types.ListResponse[types.TaskView]{}, err
	}

	q := url.Values{}
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Status != "" {
		q.Set("status", params.Status)
	}

	var response types.ListResponse[types.TaskView]
	if err := c.executeRequest(ctx, http.MethodGet, routes.ListTryOnsURL(q), &response); err != nil {
		return types.ListResponse[types.TaskView]{}, err
	}
	return response, nil
}

// Quota methods implementation

// GetQuota returns the caller's quota status
func (c *APIClient) GetQuota(ctx context.Context) (quota.Status, error) {
	var response quota.Status
	if err := c.executeRequest(ctx, http.MethodGet, routes.GetQuotaURL(), &response); err != nil {
		return quota.Status{}, err
	}
	return response, nil
}

// Cron methods implementation

func (c *APIClient) cronAgent(ctx context.Context, taskID string) (*fiber.Agent, error) {
	agent, err := c.createAgent(ctx, http.MethodPost, routes.CronPollURL(taskID))
	if err != nil {
		return nil, err
	}
	agent.Set(fiber.HeaderAuthorization, "Bearer "+c.cronSecret)
	return agent, nil
}

// CronSweep polls every in-flight async task
func (c *APIClient) CronSweep(ctx context.Context) (types.SweepResponse, error) {
	agent, err := c.cronAgent(ctx, "")
	if err != nil {
		return types.SweepResponse{}, err
	}
	var response types.SweepResponse
	if err := c.doRequest(agent, &response); err != nil {
		return types.SweepResponse{}, err
	}
	return response, nil
}

// CronPollTask polls a single task regardless of its owner
func (c *APIClient) CronPollTask(ctx context.Context, taskID string) (types.TaskView, error) {
	if taskID == "" {
		return types.TaskView{}, fmt.Errorf("task id is required")
	}
	agent, err := c.cronAgent(ctx, taskID)
	if err != nil {
		return types.TaskView{}, err
	}
	var response types.TaskView
	if err := c.doRequest(agent, &response); err != nil {
		return types.TaskView{}, err
	}
	return response, nil
}
