package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/mediatower/internal/services"
)

// SettingHandler serves the site's key/value settings. Reads are public so
// the frontend can render branding and maintenance banners.
type SettingHandler struct {
	settings *services.SettingService
}

// NewSettingHandler constructs SettingHandler.
func NewSettingHandler(settings *services.SettingService) *SettingHandler {
	return &SettingHandler{settings: settings}
}

// List returns every setting.
func (h *SettingHandler) List(c *fiber.Ctx) error {
	settings, err := h.settings.List(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": settings})
}

// Update upserts a batch of settings.
func (h *SettingHandler) Update(c *fiber.Ctx) error {
	var inputs []services.SettingInput
	if err := c.BodyParser(&inputs); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if len(inputs) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no settings provided")
	}

	settings, err := h.settings.UpdateAll(c.Context(), inputs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": settings})
}
