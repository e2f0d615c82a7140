package handlers

import (
	"crypto/subtle"
	"strings"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/tryonlabs/tryon/internal/services"
	"github.com/tryonlabs/tryon/internal/types"
)

// CronHandler lets an external scheduler drive the completion sweep
type CronHandler struct {
	poller *services.Poller
	secret string
	opts   services.SweepOptions
}

// NewCronHandler creates a new instance of CronHandler. An empty secret
// rejects every request.
func NewCronHandler(poller *services.Poller, secret string, opts services.SweepOptions) *CronHandler {
	return &CronHandler{
		poller: poller,
		secret: secret,
		opts:   opts,
	}
}

// Poll sweeps all in-flight async tasks, or only the one named by ?taskId=
func (h *CronHandler) Poll(c *fiber.Ctx) error {
	if !h.authorized(c.Get(fiber.HeaderAuthorization)) {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrUnauthorized(ErrMsgUnauthorizedCron))
	}

	if taskID := c.Query("taskId"); taskID != "" {
		res, err := h.poller.Poll(c.UserContext(), taskID)
		if err != nil {
			return writeError(c, err, ErrMsgTaskPollFailed)
		}
		view := types.NewTaskView(res.Task)
		view.IsNewCompletion = res.IsNewCompletion
		return c.JSON(types.Success(view))
	}

	report, err := h.poller.Sweep(c.UserContext(), h.opts)
	if err != nil {
		return writeError(c, err, ErrMsgSweepFailed)
	}
	return c.JSON(types.Success(types.SweepResponse{
		Scanned:    report.Scanned,
		Completed:  report.Completed,
		Failed:     report.Failed,
		Pending:    report.Pending,
		Errors:     report.Errors,
		DurationMs: report.Duration.Milliseconds(),
	}))
}

func (h *CronHandler) authorized(header string) bool {
	if h.secret == "" {
		return false
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) == 1
}
