package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tryonlabs/tryon/internal/db/models"
	"github.com/tryonlabs/tryon/internal/types"
	"github.com/tryonlabs/tryon/pkg/api/v1/handlers"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		opts    *Options
		wantErr bool
	}{
		{name: "nil options", opts: nil},
		{name: "valid options", opts: &Options{BaseURL: "http://example.com", Timeout: 10 * time.Second}},
		{name: "zero timeout falls back", opts: &Options{BaseURL: "http://example.com"}},
		{name: "missing scheme", opts: &Options{BaseURL: "example.com"}, wantErr: true},
		{name: "invalid url", opts: &Options{BaseURL: "http://[::1"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			apiClient, ok := c.(*APIClient)
			require.True(t, ok)
			assert.Positive(t, apiClient.timeout)
		})
	}
}

func writeSlug(t *testing.T, w http.ResponseWriter, status int, resp types.SlugResponse) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts Options) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts.BaseURL = srv.URL
	opts.Timeout = 5 * time.Second
	c, err := NewClient(&opts)
	require.NoError(t, err)
	return c
}

func TestSubmitTryOn_SendsMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/tryon", r.URL.Path)
		assert.Equal(t, "user-1", r.Header.Get(handlers.UserIDHeader))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "hat", r.FormValue(handlers.FormItemType))

		for field, want := range map[string]string{handlers.FormUserImage: "user-bytes", handlers.FormItemImage: "item-bytes"} {
			f, _, err := r.FormFile(field)
			require.NoError(t, err)
			got, err := io.ReadAll(f)
			require.NoError(t, err)
			assert.Equal(t, want, string(got))
			_ = f.Close()
		}

		writeSlug(t, w, http.StatusAccepted, types.Success(types.SubmitResponse{
			TaskID:      "t1",
			Status:      "submitted",
			ServiceType: models.ServiceTypeAsync,
			IsAsync:     true,
		}))
	}, Options{UserID: "user-1"})

	resp, err := c.SubmitTryOn(context.Background(), SubmitParams{
		UserImage: []byte("user-bytes"),
		ItemImage: []byte("item-bytes"),
		ItemType:  "hat",
	})
	require.NoError(t, err)
	assert.Equal(t, "t1", resp.TaskID)
	assert.True(t, resp.IsAsync)
	assert.Nil(t, resp.ResultImageURL)
}

func TestSubmitTryOn_Validation(t *testing.T) {
	c, err := NewClient(DefaultOptions())
	require.NoError(t, err)

	_, err = c.SubmitTryOn(context.Background(), SubmitParams{ItemImage: []byte("x")})
	assert.EqualError(t, err, "user image is required")
	_, err = c.SubmitTryOn(context.Background(), SubmitParams{UserImage: []byte("x")})
	assert.EqualError(t, err, "item image is required")
}

func TestClient_ErrorResponses(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		resp     types.SlugResponse
		wantCode int
		wantMsg  string
	}{
		{"quota exhausted", http.StatusPaymentRequired, types.ErrQuotaExhausted("no quota"), fiber.StatusPaymentRequired, "no quota"},
		{"not found", http.StatusNotFound, types.ErrNotFound("Task not found"), fiber.StatusNotFound, "Task not found"},
		{"provider", http.StatusBadGateway, types.ErrProvider("upstream down"), fiber.StatusBadGateway, "upstream down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				writeSlug(t, w, tt.status, tt.resp)
			}, Options{UserID: "u"})

			_, err := c.GetTryOn(context.Background(), "t1")
			var fiberErr *fiber.Error
			require.True(t, errors.As(err, &fiberErr))
			assert.Equal(t, tt.wantCode, fiberErr.Code)
			assert.Equal(t, tt.wantMsg, fiberErr.Message)
		})
	}
}

func TestListTryOns_QueryParams(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/tryon", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "completed", r.URL.Query().Get("status"))
		writeSlug(t, w, http.StatusOK, types.Success(types.ListResponse[types.TaskView]{
			Rows:       []types.TaskView{{ID: "a"}, {ID: "b"}},
			Pagination: types.PaginationResponse{Page: 2, Limit: 10, Offset: 10, Count: 2},
		}))
	}, Options{UserID: "u"})

	resp, err := c.ListTryOns(context.Background(), handlers.TaskListParams{Page: 2, Limit: 10, Status: "completed"})
	require.NoError(t, err)
	require.Len(t, resp.Rows, 2)
	assert.Equal(t, 10, resp.Pagination.Offset)

	_, err = c.ListTryOns(context.Background(), handlers.TaskListParams{Status: "bogus"})
	assert.Error(t, err)
}

func TestCronSweep_SendsBearer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/cron/poll", r.URL.Path)
		assert.Equal(t, "Bearer s3cret", r.Header.Get("Authorization"))
		writeSlug(t, w, http.StatusOK, types.Success(types.SweepResponse{Scanned: 4, Completed: 1, Pending: 3}))
	}, Options{CronSecret: "s3cret"})

	report, err := c.CronSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, report.Scanned)
	assert.Equal(t, 1, report.Completed)

	_, err = c.CronPollTask(context.Background(), "")
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}, Options{})

	resp, err := c.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", resp.Status)
}
