package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	fiber "github.com/gofiber/fiber/v2"
)

// DefaultTimeout bounds a single provider call
const DefaultTimeout = 90 * time.Second

// httpClient is the JSON-over-HTTP transport shared by both providers
type httpClient struct {
	baseURL string
	token   string
	timeout time.Duration
}

func newHTTPClient(baseURL, token string, timeout time.Duration) httpClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return httpClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		timeout: timeout,
	}
}

// createAgent creates a new Fiber Agent for the given method and endpoint
func (c httpClient) createAgent(ctx context.Context, method, endpoint string, body interface{}) (*fiber.Agent, error) {
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

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	agent.Timeout(timeout)

	agent.Set("Authorization", "Bearer "+c.token)
	agent.Set("Accept", "application/json")
	if body != nil {
		agent.JSON(body)
	}
	return agent, nil
}

// do sends the request and decodes a 2xx JSON response into v.
// Network failures, credential errors, 408, 429 and 5xx are transient; other 4xx are terminal.
func (c httpClient) do(ctx context.Context, op, method, endpoint string, body, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return &Error{Op: op, Err: err}
	}
	agent, err := c.createAgent(ctx, method, endpoint, body)
	if err != nil {
		return &Error{Op: op, Terminal: true, Err: err}
	}

	statusCode, respBody, errs := agent.Bytes()
	if len(errs) > 0 {
		return &Error{Op: op, Err: fmt.Errorf("error sending request: %w", errors.Join(errs...))}
	}

	if statusCode < 200 || statusCode >= 300 {
		return &Error{
			Op:         op,
			StatusCode: statusCode,
			Terminal:   isTerminalStatus(statusCode),
			Err:        errors.New(truncate(string(respBody), 512)),
		}
	}

	if v != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, v); err != nil {
			return &Error{Op: op, Err: fmt.Errorf("error decoding response: %w", err)}
		}
	}
	return nil
}

func isTerminalStatus(code int) bool {
	switch code {
	case http.StatusUnauthorized, http.StatusPaymentRequired, http.StatusForbidden,
		http.StatusProxyAuthRequired, http.StatusRequestTimeout, http.StatusTooManyRequests:
		// account or credential problems; the job itself may still be fine
		return false
	}
	return code >= 400 && code < 500
}

// isTerminalFetchStatus reports whether a failed status read means the job is gone
func isTerminalFetchStatus(code int) bool {
	return code == http.StatusNotFound || code == http.StatusGone
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
