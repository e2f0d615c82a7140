package handlers

import (
	"fmt"
	"strings"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/tryonlabs/tryon/internal/db/models"
)

// UserIDHeader carries the user id asserted by the upstream gateway
const UserIDHeader = "X-User-ID"

// userID returns the caller's user id or an empty string
func userID(c *fiber.Ctx) string {
	return strings.TrimSpace(c.Get(UserIDHeader))
}

// TaskListParams defines the parameters for listing a user's tasks
type TaskListParams struct {
	Page   int    `json:"page,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Status string `json:"status,omitempty"`
}

// Validate validates the parameters for listing tasks
func (p TaskListParams) Validate() error {
	if p.Page < 0 {
		return fmt.Errorf("%s", strings.ToLower(ErrMsgNegativePagination))
	}
	if p.Limit < 0 {
		return fmt.Errorf("limit must be a non-negative number")
	}
	if p.Status != "" {
		if _, err := models.ParseTaskStatus(strings.ToUpper(p.Status)); err != nil {
			return err
		}
	}
	return nil
}

// ListOptions converts the params into repository options
func (p TaskListParams) ListOptions() *models.ListOptions {
	opts := getPaginationOptions(p.Page, p.Limit)
	if p.Status != "" {
		status, _ := models.ParseTaskStatus(strings.ToUpper(p.Status))
		opts.Status = &status
	}
	return opts
}
