package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const composeEndpoint = "/v1/compose"

type composeRequest struct {
	Model    string   `json:"model,omitempty"`
	Prompt   string   `json:"prompt"`
	ItemType string   `json:"item_type"`
	Images   []string `json:"images"`
}

type composeResponse struct {
	Success     bool   `json:"success"`
	ImageURL    string `json:"image_url,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
	Description string `json:"description,omitempty"`
	Error       string `json:"error,omitempty"`
}

// SyncClient calls the image-editing provider that answers within the request
type SyncClient struct {
	http  httpClient
	model string
}

// NewSyncClient creates a new SyncClient
func NewSyncClient(baseURL, token, model string, timeout time.Duration) *SyncClient {
	return &SyncClient{
		http:  newHTTPClient(baseURL, token, timeout),
		model: model,
	}
}

// Compose sends both images and returns the composited result
func (c *SyncClient) Compose(ctx context.Context, req ComposeRequest) (*ComposeResult, error) {
	body := composeRequest{
		Model:    c.model,
		Prompt:   PromptFor(req.ItemType),
		ItemType: string(req.ItemType),
		Images:   []string{req.UserImageURL, req.ItemImageURL},
	}

	var resp composeResponse
	if err := c.http.do(ctx, "compose", http.MethodPost, composeEndpoint, body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "provider reported failure"
		}
		return nil, &Error{Op: "compose", Terminal: true, Err: errors.New(msg)}
	}

	imageURL := resp.ImageURL
	if imageURL == "" && resp.ImageBase64 != "" {
		mime := resp.MimeType
		if mime == "" {
			mime = "image/png"
		}
		imageURL = fmt.Sprintf("data:%s;base64,%s", mime, strings.TrimSpace(resp.ImageBase64))
	}
	if imageURL == "" {
		return nil, &Error{Op: "compose", Terminal: true, Err: errors.New("provider returned no image")}
	}

	return &ComposeResult{
		ImageURL:    imageURL,
		Description: resp.Description,
		Model:       c.model,
	}, nil
}
