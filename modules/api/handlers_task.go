package api

import (
	"errors"
	"fmt"
	"strconv"

	taskdomain "github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/modules/task"
	"github.com/gofiber/fiber/v2"
)

// CreateTask creates a task owned by the caller.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	claims, ok := callerClaims(c)
	if !ok {
		return unauthenticated(c)
	}

	var req TaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
		})
	}

	created, err := h.tasks.Create(c.UserContext(), &taskdomain.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.status(),
		Priority:    req.priority(),
		DueDate:     req.DueDate,
	}, claims.UserID)
	if err != nil {
		return h.handleTaskError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toTaskResponse(created))
}

// ListTasks returns the caller's tasks, optionally filtered by status,
// priority or a search term. Filters are mutually exclusive; the search term
// wins, then status, then priority.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	claims, ok := callerClaims(c)
	if !ok {
		return unauthenticated(c)
	}

	tasks, err := h.filteredTasks(c, claims.UserID, false)
	if err != nil {
		return h.handleTaskError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(toTaskListResponse(tasks))
}

// GetTask returns a single task visible to the caller.
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	claims, ok := callerClaims(c)
	if !ok {
		return unauthenticated(c)
	}

	id, err := parseTaskID(c)
	if err != nil {
		return badTaskID(c)
	}

	found, err := h.tasks.GetByID(c.UserContext(), id, claims.UserID, claims.IsAdmin())
	if err != nil {
		return h.handleTaskError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(toTaskResponse(found))
}

// UpdateTask rewrites a task visible to the caller.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	claims, ok := callerClaims(c)
	if !ok {
		return unauthenticated(c)
	}

	id, err := parseTaskID(c)
	if err != nil {
		return badTaskID(c)
	}

	var req TaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
		})
	}

	updated, err := h.tasks.Update(c.UserContext(), &taskdomain.Task{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.status(),
		Priority:    req.priority(),
		DueDate:     req.DueDate,
	}, claims.UserID, claims.IsAdmin())
	if err != nil {
		return h.handleTaskError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(toTaskResponse(updated))
}

// DeleteTask removes a task visible to the caller.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	claims, ok := callerClaims(c)
	if !ok {
		return unauthenticated(c)
	}

	id, err := parseTaskID(c)
	if err != nil {
		return badTaskID(c)
	}

	if err := h.tasks.Delete(c.UserContext(), id, claims.UserID, claims.IsAdmin()); err != nil {
		return h.handleTaskError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// CompleteTask marks the caller's task as completed.
func (h *Handlers) CompleteTask(c *fiber.Ctx) error {
	claims, ok := callerClaims(c)
	if !ok {
		return unauthenticated(c)
	}

	id, err := parseTaskID(c)
	if err != nil {
		return badTaskID(c)
	}

	updated, err := h.tasks.MarkCompleted(c.UserContext(), id, claims.UserID)
	if err != nil {
		return h.handleTaskError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(toTaskResponse(updated))
}

// ProgressTask marks the caller's task as in progress.
func (h *Handlers) ProgressTask(c *fiber.Ctx) error {
	claims, ok := callerClaims(c)
	if !ok {
		return unauthenticated(c)
	}

	id, err := parseTaskID(c)
	if err != nil {
		return badTaskID(c)
	}

	updated, err := h.tasks.MarkInProgress(c.UserContext(), id, claims.UserID)
	if err != nil {
		return h.handleTaskError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(toTaskResponse(updated))
}

// TaskStats returns the caller's task statistics.
func (h *Handlers) TaskStats(c *fiber.Ctx) error {
	claims, ok := callerClaims(c)
	if !ok {
		return unauthenticated(c)
	}

	stats, err := h.tasks.UserStatistics(c.UserContext(), claims.UserID)
	if err != nil {
		return h.handleTaskError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(stats)
}

// errInvalidFilter marks an unparseable status or priority query param.
var errInvalidFilter = errors.New("invalid filter")

// filteredTasks applies the q, status and priority query params. The search
// term wins, then status, then priority; with no filter it lists everything
// the caller may see.
func (h *Handlers) filteredTasks(c *fiber.Ctx, userID string, isAdmin bool) ([]taskdomain.Task, error) {
	ctx := c.UserContext()

	if term := c.Query("q"); term != "" {
		return h.tasks.Search(ctx, term, userID, isAdmin)
	}

	if raw := c.Query("status"); raw != "" {
		status, err := taskdomain.ParseStatus(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: unknown status %q", errInvalidFilter, raw)
		}
		return h.tasks.TasksByStatus(ctx, status, userID, isAdmin)
	}

	if raw := c.Query("priority"); raw != "" {
		priority, err := taskdomain.ParsePriority(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: unknown priority %q", errInvalidFilter, raw)
		}
		return h.tasks.TasksByPriority(ctx, priority, userID, isAdmin)
	}

	if isAdmin {
		return h.tasks.AllTasks(ctx)
	}
	return h.tasks.TasksForUser(ctx, userID)
}

// handleTaskError maps task service errors onto HTTP responses.
func (h *Handlers) handleTaskError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, errInvalidFilter):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
	case errors.Is(err, task.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Task not found",
		})
	case errors.Is(err, task.ErrAccessDenied):
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
			Error:   "forbidden",
			Message: "You do not have access to this task",
		})
	case errors.Is(err, task.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Task data is invalid: title is required and at most 200 characters, description at most 1000, due date must not be in the past",
		})
	case errors.Is(err, task.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "User not found",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}

func parseTaskID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func badTaskID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "bad_request",
		Message: "Invalid task ID",
	})
}

func unauthenticated(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
		Error:   "unauthorized",
		Message: "User not authenticated",
	})
}
