package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tryonlabs/tryon/internal/db/models"
)

func TestNewTaskView(t *testing.T) {
	result := "http://media.test/results/u1/t1.png"
	task := &models.Task{
		ID:             "t1",
		UserID:         "u1",
		UserImageURL:   "http://media.test/inputs/u1/a-user.png",
		ItemImageURL:   "http://media.test/inputs/u1/a-item.png",
		ItemType:       models.ItemTypeHat,
		ResultImageURL: &result,
		Status:         models.TaskStatusCompleted,
	}
	task.SetMetadata(models.TaskMetadata{
		ServiceType:       models.ServiceTypeAsync,
		ExternalTaskID:    "ext-1",
		OriginalResultURL: "https://cdn.provider.test/out.png",
		Description:       "a hat",
	})

	view := NewTaskView(task)
	assert.Equal(t, "t1", view.ID)
	assert.Equal(t, models.ItemTypeHat, view.ItemType)
	assert.True(t, view.IsAsync)
	assert.Equal(t, "async-provider", view.ServiceType)
	assert.Equal(t, "a hat", view.Description)
	assert.Equal(t, &result, view.ResultImageURL)

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "ext-1")
	assert.NotContains(t, string(raw), "cdn.provider.test")
}

func TestSlugResponses(t *testing.T) {
	tests := []struct {
		name string
		resp SlugResponse
		slug Slug
	}{
		{"invalid input", ErrInvalidInput("bad"), InvalidInputSlug},
		{"not found", ErrNotFound("gone"), NotFoundSlug},
		{"quota", ErrQuotaExhausted("none left"), QuotaExhaustedSlug},
		{"provider", ErrProvider("upstream"), ProviderErrorSlug},
		{"unauthorized", ErrUnauthorized("who"), UnauthorizedSlug},
		{"server", ErrServer("oops"), ServerErrorSlug},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.slug, tt.resp.Slug)
			assert.NotEmpty(t, tt.resp.Error)
			assert.Nil(t, tt.resp.Data)
		})
	}

	ok := Success(map[string]int{"n": 1})
	assert.Equal(t, SuccessSlug, ok.Slug)
	assert.Empty(t, ok.Error)
}
