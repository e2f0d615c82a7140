package media

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tryonlabs/tryon/internal/config"
)

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "http://localhost:8080/media/")
	require.NoError(t, err)

	url, err := store.Put(ctx, []byte("abc"), "image/png", ResultPath("u1", "t1", ".png"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/media/results/u1/t1.png", url)
	assert.True(t, store.Owns(url))
	assert.False(t, store.Owns("https://provider.example/result.png"))

	data, err := os.ReadFile(filepath.Join(dir, "results", "u1", "t1.png"))
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))

	// overwrite is allowed
	_, err = store.Put(ctx, []byte("xyz"), "image/png", ResultPath("u1", "t1", ".png"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, []string{url, "https://elsewhere/x.png", url}))
	_, err = os.Stat(filepath.Join(dir, "results", "u1", "t1.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "http://localhost/media")
	require.NoError(t, err)

	for _, p := range []string{"", "../escape.png", "inputs/../../x.png"} {
		_, err := store.Put(context.Background(), []byte("x"), "image/png", p)
		assert.ErrorIs(t, err, ErrInvalidPath, p)
	}
}

func TestLocalStoreHonorsCanceledContext(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "http://localhost/media")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Put(ctx, []byte("x"), "image/png", "a.png")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewSelectsBackend(t *testing.T) {
	store, err := New(context.Background(), config.MediaConfig{
		Backend:       config.MediaBackendLocal,
		LocalDir:      t.TempDir(),
		PublicBaseURL: "http://localhost/media",
	})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)

	_, err = New(context.Background(), config.MediaConfig{Backend: "ftp"})
	assert.Error(t, err)
}

func TestObjectPaths(t *testing.T) {
	assert.Equal(t, "inputs/u1/abc-user.jpg", InputPath("u1", "abc", "user", ".jpg"))
	assert.Equal(t, "results/u1/t1.png", ResultPath("u1", "t1", ".png"))
}
