package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/mediatower/internal/models"
)

// ContentHandler manages editable site pages.
type ContentHandler struct {
	db *gorm.DB
}

// NewContentHandler constructs ContentHandler.
func NewContentHandler(db *gorm.DB) *ContentHandler {
	return &ContentHandler{db: db}
}

// List returns all pages.
func (h *ContentHandler) List(c *fiber.Ctx) error {
	var pages []models.Content
	if err := h.db.Order("slug").Find(&pages).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": pages})
}

// GetBySlug returns one page.
func (h *ContentHandler) GetBySlug(c *fiber.Ctx) error {
	slug := strings.ToLower(c.Params("slug"))

	var page models.Content
	if err := h.db.First(&page, "slug = ?", slug).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "page not found")
		}
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": page})
}

type contentRequest struct {
	Slug   string              `json:"slug"`
	Titles models.Translations `json:"titles"`
	Bodies models.Translations `json:"bodies"`
}

// Create adds a new page. Slugs are unique.
func (h *ContentHandler) Create(c *fiber.Ctx) error {
	var req contentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if slug == "" {
		return fiber.NewError(fiber.StatusBadRequest, "slug is required")
	}

	var existing models.Content
	if err := h.db.First(&existing, "slug = ?", slug).Error; err == nil {
		return fiber.NewError(fiber.StatusConflict, "a page with this slug already exists")
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	page := models.Content{Slug: slug, Titles: req.Titles, Bodies: req.Bodies}
	if err := h.db.Create(&page).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": page})
}

// Update replaces a page's titles and bodies.
func (h *ContentHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var page models.Content
	if err := h.db.First(&page, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "page not found")
		}
		return err
	}

	var req contentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]any{}
	if req.Titles != nil {
		updates["titles"] = req.Titles
	}
	if req.Bodies != nil {
		updates["bodies"] = req.Bodies
	}
	if len(updates) > 0 {
		if err := h.db.Model(&page).Updates(updates).Error; err != nil {
			return err
		}
		if err := h.db.First(&page, "id = ?", id).Error; err != nil {
			return err
		}
	}
	return c.JSON(fiber.Map{"success": true, "data": page})
}

// Delete removes a page.
func (h *ContentHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.Content{}, "id = ?", id).Error; err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
