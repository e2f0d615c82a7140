package handlers

import (
	"fmt"
	"io"
	"mime/multipart"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/tryonlabs/tryon/internal/services"
	"github.com/tryonlabs/tryon/internal/types"
)

// Multipart form fields of the submit endpoint
const (
	FormUserImage = "userImage"
	FormItemImage = "itemImage"
	FormItemType  = "itemType"
)

// TryOnHandler handles HTTP requests for try-on tasks
type TryOnHandler struct {
	tryOn *services.TryOn
	tasks *services.Task
}

// NewTryOnHandler creates a new instance of TryOnHandler
func NewTryOnHandler(tryOn *services.TryOn, tasks *services.Task) *TryOnHandler {
	return &TryOnHandler{
		tryOn: tryOn,
		tasks: tasks,
	}
}

// Submit handles a multipart try-on submission
func (h *TryOnHandler) Submit(c *fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrUnauthorized(ErrMsgUserIDRequired))
	}

	if _, err := c.MultipartForm(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(ErrMsgInvalidMultipart))
	}

	userImage, err := readFormFile(c, FormUserImage)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(err.Error()))
	}
	itemImage, err := readFormFile(c, FormItemImage)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(err.Error()))
	}

	result, err := h.tryOn.Submit(c.UserContext(), services.SubmitRequest{
		UserID:    uid,
		UserImage: userImage,
		ItemImage: itemImage,
		ItemType:  c.FormValue(FormItemType),
	})
	if err != nil {
		return writeError(c, err, ErrMsgTaskSubmitFail)
	}

	status := fiber.StatusOK
	if result.IsAsync {
		status = fiber.StatusAccepted
	}
	return c.Status(status).JSON(types.Success(types.SubmitResponse{
		TaskID:         result.TaskID,
		Status:         string(result.Status),
		ServiceType:    result.ServiceType,
		IsAsync:        result.IsAsync,
		ResultImageURL: result.ResultImageURL,
	}))
}

// GetTask polls the task towards completion and returns its current view
func (h *TryOnHandler) GetTask(c *fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrUnauthorized(ErrMsgUserIDRequired))
	}
	taskID := c.Params("id")
	if taskID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(ErrMsgTaskIDRequired))
	}

	res, err := h.tasks.PollTask(c.UserContext(), uid, taskID)
	if err != nil {
		return writeError(c, err, ErrMsgTaskPollFailed)
	}

	view := types.NewTaskView(res.Task)
	view.IsNewCompletion = res.IsNewCompletion
	return c.JSON(types.Success(view))
}

// ListTasks returns the caller's task history, newest first
func (h *TryOnHandler) ListTasks(c *fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrUnauthorized(ErrMsgUserIDRequired))
	}

	params := TaskListParams{
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 0),
		Status: c.Query("status"),
	}
	if err := params.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(err.Error()))
	}
	page := params.Page
	if page < 1 {
		page = 1
	}
	opts := params.ListOptions()

	tasks, err := h.tasks.ListTasks(c.UserContext(), uid, opts)
	if err != nil {
		return writeError(c, err, ErrMsgTaskListFailed)
	}

	rows := make([]types.TaskView, 0, len(tasks))
	for i := range tasks {
		rows = append(rows, types.NewTaskView(&tasks[i]))
	}
	return c.JSON(types.Success(types.ListResponse[types.TaskView]{
		Rows: rows,
		Pagination: types.PaginationResponse{
			Page:   page,
			Limit:  opts.Limit,
			Offset: opts.Offset,
			Count:  len(rows),
		},
	}))
}

func readFormFile(c *fiber.Ctx, field string) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("%s is required", field)
	}
	return readMultipartFile(fh)
}

func readMultipartFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}
