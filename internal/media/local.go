package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tryonlabs/tryon/internal/logger"
)

// LocalStore keeps objects on the local filesystem, served by the API under /media
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates the root directory if needed
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir %s: %w", dir, err)
	}
	return &LocalStore{dir: dir, baseURL: baseURL}, nil
}

// Dir returns the root directory
func (s *LocalStore) Dir() string {
	return s.dir
}

// Put writes the object atomically via a temp file and rename
func (s *LocalStore) Put(ctx context.Context, data []byte, _ string, objectPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := cleanObjectPath(objectPath)
	if err != nil {
		return "", err
	}

	target := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create object dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close object: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("failed to store object: %w", err)
	}
	return joinURL(s.baseURL, key), nil
}

// Delete removes owned objects; missing files are not an error
func (s *LocalStore) Delete(_ context.Context, urls []string) error {
	var errs []error
	for _, url := range urls {
		key, ok := keyFromURL(s.baseURL, url)
		if !ok {
			continue
		}
		key, err := cleanObjectPath(key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		err = os.Remove(filepath.Join(s.dir, filepath.FromSlash(key)))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warnf("failed to delete media object %s: %v", key, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Owns reports whether the URL is under the public base URL
func (s *LocalStore) Owns(url string) bool {
	_, ok := keyFromURL(s.baseURL, url)
	return ok
}
