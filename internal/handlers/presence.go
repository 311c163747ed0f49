package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/mediatower/internal/middleware"
	"github.com/example/mediatower/internal/models"
	"github.com/example/mediatower/internal/services"
)

// PresenceHandler exposes the online-user registry.
type PresenceHandler struct {
	presence *services.PresenceService
}

// NewPresenceHandler constructs PresenceHandler.
func NewPresenceHandler(presence *services.PresenceService) *PresenceHandler {
	return &PresenceHandler{presence: presence}
}

func scopeFor(role string) services.PresenceScope {
	if role == models.RoleAdmin {
		return services.PresenceAdmins
	}
	return services.PresenceClients
}

// Heartbeat refreshes the caller's online marker.
func (h *PresenceHandler) Heartbeat(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}
	role, _ := middleware.GetCurrentRole(c)

	if err := h.presence.Heartbeat(c.Context(), scopeFor(role), userID); err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "presence registry unavailable")
	}

	return c.JSON(fiber.Map{"success": true})
}

// Disconnect removes the caller from the online roster.
func (h *PresenceHandler) Disconnect(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}
	role, _ := middleware.GetCurrentRole(c)

	if err := h.presence.Disconnect(c.Context(), scopeFor(role), userID); err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "presence registry unavailable")
	}

	return c.JSON(fiber.Map{"success": true})
}

// OnlineAdmins lists admins with a live heartbeat, so customers know whether
// someone is around.
func (h *PresenceHandler) OnlineAdmins(c *fiber.Ctx) error {
	ids, err := h.presence.Online(c.Context(), services.PresenceAdmins)
	if err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "presence registry unavailable")
	}

	return c.JSON(fiber.Map{"success": true, "data": ids, "count": len(ids)})
}

// OnlineClients lists customers with a live heartbeat. Admin only.
func (h *PresenceHandler) OnlineClients(c *fiber.Ctx) error {
	ids, err := h.presence.Online(c.Context(), services.PresenceClients)
	if err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "presence registry unavailable")
	}

	return c.JSON(fiber.Map{"success": true, "data": ids, "count": len(ids)})
}
