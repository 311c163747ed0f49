package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/mediatower/internal/middleware"
	"github.com/example/mediatower/internal/services"
)

// StatsHandler serves aggregated statistics.
type StatsHandler struct {
	stats *services.StatsService
}

// NewStatsHandler constructs StatsHandler.
func NewStatsHandler(stats *services.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Dashboard returns the admin dashboard summary.
func (h *StatsHandler) Dashboard(c *fiber.Ctx) error {
	summary, err := h.stats.Dashboard(c.Context(), time.Now())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": summary})
}

// MyStats returns the calling user's activity summary.
func (h *StatsHandler) MyStats(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	stats, err := h.stats.ForUser(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": stats})
}
