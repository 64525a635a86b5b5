package api

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

// AdminDashboard returns the system overview: user counts and task
// statistics across all owners.
func (h *Handlers) AdminDashboard(c *fiber.Ctx) error {
	data, err := h.admin.Dashboard(c.UserContext())
	if err != nil {
		log.Printf("[api] Dashboard failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to build dashboard",
		})
	}

	return c.Status(fiber.StatusOK).JSON(data)
}

// AdminUsers lists accounts with their task counts, optionally filtered by
// the q query param.
func (h *Handlers) AdminUsers(c *fiber.Ctx) error {
	summaries, err := h.admin.UserSummaries(c.UserContext(), c.Query("q"))
	if err != nil {
		log.Printf("[api] User listing failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list users",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"users": summaries,
		"count": len(summaries),
	})
}

// AdminTasks lists every task in the system, honoring the same q, status
// and priority filters as the per-user listing.
func (h *Handlers) AdminTasks(c *fiber.Ctx) error {
	claims, ok := callerClaims(c)
	if !ok {
		return unauthenticated(c)
	}

	tasks, err := h.filteredTasks(c, claims.UserID, true)
	if err != nil {
		return h.handleTaskError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(toTaskListResponse(tasks))
}

// AdminActivity returns the recent activity feed.
func (h *Handlers) AdminActivity(c *fiber.Ctx) error {
	feed, err := h.admin.RecentActivity(c.UserContext())
	if err != nil {
		log.Printf("[api] Activity feed failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list recent activity",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"activity": feed,
		"count":    len(feed),
	})
}
