package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// DefaultFetchTimeout bounds a single result download
const DefaultFetchTimeout = 60 * time.Second

// ErrFetch wraps failures to download a provider result
var ErrFetch = errors.New("failed to fetch media")

// Fetcher downloads provider results, which may be http(s) URLs or data URIs
type Fetcher struct {
	Timeout  time.Duration
	MaxBytes int64
}

// Fetch returns the image bytes and their detected type
func (f Fetcher) Fetch(ctx context.Context, src string) ([]byte, FileType, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	var data []byte
	var err error
	if strings.HasPrefix(src, "data:") {
		data, err = decodeDataURI(src)
	} else {
		data, err = f.download(ctx, src)
	}
	if err != nil {
		return nil, "", err
	}

	if f.MaxBytes > 0 && int64(len(data)) > f.MaxBytes {
		return nil, "", fmt.Errorf("%w: %w", ErrFetch, ErrFileTooLarge)
	}
	fileType, err := DetectFileType(data)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return data, fileType, nil
}

func (f Fetcher) download(ctx context.Context, src string) ([]byte, error) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	agent := fiber.Get(src)
	agent.Timeout(timeout)
	if f.MaxBytes > 0 && agent.HostClient != nil {
		// fasthttp stops reading once the body passes the limit
		agent.MaxResponseBodySize = int(f.MaxBytes)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		err := errors.Join(errs...)
		if errors.Is(err, fasthttp.ErrBodyTooLarge) {
			return nil, fmt.Errorf("%w: %s: %w", ErrFetch, src, ErrFileTooLarge)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, src, err)
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %s: status %d", ErrFetch, src, code)
	}
	return body, nil
}

func decodeDataURI(src string) ([]byte, error) {
	header, payload, ok := strings.Cut(src, ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("%w: unsupported data uri", ErrFetch)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return data, nil
}

// Rehost copies a provider result into the store and returns the store URL.
// URLs the store already owns are returned unchanged.
func Rehost(ctx context.Context, store Store, fetcher Fetcher, src, userID, taskID string) (string, error) {
	if store.Owns(src) {
		return src, nil
	}
	data, fileType, err := fetcher.Fetch(ctx, src)
	if err != nil {
		return "", err
	}
	return store.Put(ctx, data, fileType.ContentType(), ResultPath(userID, taskID, fileType.Ext()))
}
