// Package media stores input and result images under URLs the service controls.
package media

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/tryonlabs/tryon/internal/config"
)

// Store is durable object storage with public URLs
type Store interface {
	// Put stores data at the object path and returns its public URL
	Put(ctx context.Context, data []byte, contentType, objectPath string) (string, error)
	// Delete removes the objects behind the given URLs; URLs the store does not own are ignored
	Delete(ctx context.Context, urls []string) error
	// Owns reports whether the URL points into this store
	Owns(url string) bool
}

// ErrInvalidPath is returned for object paths that escape the store root
var ErrInvalidPath = errors.New("invalid object path")

// New builds the store selected by the configuration
func New(ctx context.Context, cfg config.MediaConfig) (Store, error) {
	switch cfg.Backend {
	case config.MediaBackendLocal:
		return NewLocalStore(cfg.LocalDir, cfg.PublicBaseURL)
	case config.MediaBackendS3:
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown media backend %q", cfg.Backend)
	}
}

// cleanObjectPath normalizes an object path and rejects traversal
func cleanObjectPath(objectPath string) (string, error) {
	if objectPath == "" {
		return "", ErrInvalidPath
	}
	cleaned := path.Clean("/" + objectPath)
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." || strings.Contains(objectPath, "..") {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, objectPath)
	}
	return cleaned, nil
}

// keyFromURL strips the public base URL from an owned URL
func keyFromURL(baseURL, url string) (string, bool) {
	prefix := strings.TrimSuffix(baseURL, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	if key == "" {
		return "", false
	}
	return key, true
}

func joinURL(baseURL, key string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + key
}

// InputPath is the object path of an uploaded input image
func InputPath(userID, name, role, ext string) string {
	return fmt.Sprintf("inputs/%s/%s-%s%s", userID, name, role, ext)
}

// ResultPath is the object path of a rehosted result image
func ResultPath(userID, taskID, ext string) string {
	return fmt.Sprintf("results/%s/%s%s", userID, taskID, ext)
}
