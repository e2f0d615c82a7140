package handlers

import (
	fiber "github.com/gofiber/fiber/v2"

	"github.com/tryonlabs/tryon/internal/quota"
	"github.com/tryonlabs/tryon/internal/types"
)

// QuotaHandler serves the caller's quota status
type QuotaHandler struct {
	ledger *quota.Ledger
}

// NewQuotaHandler creates a new instance of QuotaHandler
func NewQuotaHandler(ledger *quota.Ledger) *QuotaHandler {
	return &QuotaHandler{ledger: ledger}
}

// GetQuota returns the remaining allowance of the caller
func (h *QuotaHandler) GetQuota(c *fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrUnauthorized(ErrMsgUserIDRequired))
	}

	status, err := h.ledger.Status(c.UserContext(), uid)
	if err != nil {
		return writeError(c, err, ErrMsgQuotaLoadFailed)
	}
	return c.JSON(types.Success(status))
}
