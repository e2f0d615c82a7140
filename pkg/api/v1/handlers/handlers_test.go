package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tryonlabs/tryon/internal/db/models"
	"github.com/tryonlabs/tryon/internal/services"
	"github.com/tryonlabs/tryon/internal/types"
)

func TestTaskListParams_Validate(t *testing.T) {
	tests := []struct {
		name        string
		params      TaskListParams
		expectError bool
	}{
		{name: "empty", params: TaskListParams{}},
		{name: "with_pagination", params: TaskListParams{Page: 2, Limit: 10}},
		{name: "lowercase_status", params: TaskListParams{Status: "completed"}},
		{name: "negative_page", params: TaskListParams{Page: -1}, expectError: true},
		{name: "negative_limit", params: TaskListParams{Limit: -1}, expectError: true},
		{name: "unknown_status", params: TaskListParams{Status: "done"}, expectError: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTaskListParams_ListOptions(t *testing.T) {
	opts := TaskListParams{Page: 3, Limit: 20, Status: "processing"}.ListOptions()
	assert.Equal(t, 20, opts.Limit)
	assert.Equal(t, 40, opts.Offset)
	require.NotNil(t, opts.Status)
	assert.Equal(t, models.TaskStatusProcessing, *opts.Status)

	opts = TaskListParams{Limit: 10_000}.ListOptions()
	assert.Equal(t, models.MaxLimit, opts.Limit)
	assert.Zero(t, opts.Offset)
	assert.Nil(t, opts.Status)
}

func TestCronHandler_Authorized(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		header string
		want   bool
	}{
		{"matching secret", "s3cret", "Bearer s3cret", true},
		{"wrong secret", "s3cret", "Bearer nope", false},
		{"missing bearer prefix", "s3cret", "s3cret", false},
		{"no header", "s3cret", "", false},
		{"unset secret rejects", "", "Bearer ", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCronHandler(nil, tt.secret, services.SweepOptions{})
			assert.Equal(t, tt.want, h.authorized(tt.header))
		})
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantSlug   types.Slug
	}{
		{"validation", &services.ValidationError{Field: "itemType", Message: "unknown"}, fiber.StatusBadRequest, types.InvalidInputSlug},
		{"quota", services.ErrQuotaExhausted, fiber.StatusPaymentRequired, types.QuotaExhaustedSlug},
		{"not found", errors.Join(services.ErrTaskNotFound, errors.New("row")), fiber.StatusNotFound, types.NotFoundSlug},
		{"provider", &services.ProviderError{TaskID: "t1", ServiceType: models.ServiceTypeSync, Err: errors.New("boom")}, fiber.StatusBadGateway, types.ProviderErrorSlug},
		{"wrapped provider", fmt.Errorf("submit: %w", &services.ProviderError{Err: errors.New("boom")}), fiber.StatusBadGateway, types.ProviderErrorSlug},
		{"other", errors.New("db down"), fiber.StatusInternalServerError, types.ServerErrorSlug},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return writeError(c, tt.err, "fallback")
			})

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body types.SlugResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantSlug, body.Slug)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestUserIDRequired(t *testing.T) {
	app := fiber.New()
	h := NewTryOnHandler(nil, nil)
	app.Get("/tryon", h.ListTasks)
	app.Get("/quota", NewQuotaHandler(nil).GetQuota)

	for _, path := range []string{"/tryon", "/quota"} {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, path)
		_ = resp.Body.Close()
	}
}
