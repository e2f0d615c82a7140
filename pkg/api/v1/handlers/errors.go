// Package handlers provides HTTP request handling
package handlers

import (
	"errors"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/tryonlabs/tryon/internal/logger"
	"github.com/tryonlabs/tryon/internal/services"
	"github.com/tryonlabs/tryon/internal/types"
)

// Common error messages
const (
	ErrMsgUserIDRequired   = "X-User-ID header is required"
	ErrMsgInvalidMultipart = "Invalid multipart form"
	ErrMsgUnauthorizedCron = "Invalid cron secret"
)

// Task error messages
const (
	ErrMsgTaskIDRequired  = "Task id is required"
	ErrMsgTaskNotFound    = "Task not found"
	ErrMsgTaskListFailed  = "Failed to list tasks"
	ErrMsgTaskPollFailed  = "Failed to poll task"
	ErrMsgTaskSubmitFail  = "Failed to submit try-on"
	ErrMsgQuotaExhausted  = "Quota exhausted, purchase credits or upgrade your plan"
	ErrMsgQuotaLoadFailed = "Failed to load quota"
	ErrMsgSweepFailed     = "Failed to sweep tasks"
)

// Pagination error messages
const (
	ErrMsgNegativePagination = "Page must be a positive number from 1"
)

// writeError maps a service error to its HTTP status and slug
func writeError(c *fiber.Ctx, err error, fallback string) error {
	var validationErr *services.ValidationError
	var providerErr *services.ProviderError

	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(validationErr.Error()))
	case errors.Is(err, services.ErrQuotaExhausted):
		return c.Status(fiber.StatusPaymentRequired).JSON(types.ErrQuotaExhausted(ErrMsgQuotaExhausted))
	case errors.Is(err, services.ErrTaskNotFound):
		return c.Status(fiber.StatusNotFound).JSON(types.ErrNotFound(ErrMsgTaskNotFound))
	case errors.As(err, &providerErr):
		resp := types.ErrProvider(providerErr.Error())
		if providerErr.TaskID != "" {
			resp.Data = fiber.Map{"taskId": providerErr.TaskID}
		}
		return c.Status(fiber.StatusBadGateway).JSON(resp)
	default:
		logger.Errorf("%s: %v", fallback, err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrServer(fallback))
	}
}
