package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/mediatower/internal/models"
	"github.com/example/mediatower/internal/utils"
)

// CatalogHandler manages categories, tags, services and product packs.
type CatalogHandler struct {
	db *gorm.DB
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{db: db}
}

// ListCategories returns paginated categories.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	var categories []models.Category
	var total int64

	if err := h.db.Model(&models.Category{}).Count(&total).Error; err != nil {
		return err
	}

	if err := h.db.Limit(pg.Limit).Offset(pg.Offset).Order("created_at desc").
		Find(&categories).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    categories,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetCategory returns a single category by ID.
func (h *CatalogHandler) GetCategory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var category models.Category
	if err := h.db.Preload("Products").First(&category, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "category not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": category})
}

// CreateCategory persists a new category.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var payload models.Category
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.db.Create(&payload).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": payload})
}

// UpdateCategory updates an existing category.
func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var category models.Category
	if err := h.db.First(&category, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "category not found")
		}
		return err
	}

	var payload models.Category
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	payload.ID = category.ID
	if err := h.db.Model(&category).Updates(payload).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": category})
}

// DeleteCategory removes a category by ID.
func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.Category{}, "id = ?", id).Error; err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Tags, services and packs follow the same pattern.

func (h *CatalogHandler) ListTags(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	var tags []models.Tag
	var total int64

	if err := h.db.Model(&models.Tag{}).Count(&total).Error; err != nil {
		return err
	}

	if err := h.db.Limit(pg.Limit).Offset(pg.Offset).Order("created_at desc").
		Find(&tags).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": tags, "pagination": fiber.Map{
		"current_page":   pg.Page,
		"items_per_page": pg.Limit,
		"total_items":    total,
	}})
}

func (h *CatalogHandler) CreateTag(c *fiber.Ctx) error {
	var payload models.Tag
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.db.Create(&payload).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": payload})
}

func (h *CatalogHandler) DeleteTag(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.Tag{}, "id = ?", id).Error; err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListServices returns bookable services. Non-admin callers only see active
// ones.
func (h *CatalogHandler) ListServices(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Service{})
	if c.Query("include_inactive") != "true" {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var services []models.Service
	if err := query.Limit(pg.Limit).Offset(pg.Offset).Order("created_at desc").
		Find(&services).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": services, "pagination": fiber.Map{
		"current_page":   pg.Page,
		"items_per_page": pg.Limit,
		"total_items":    total,
	}})
}

func (h *CatalogHandler) GetService(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var service models.Service
	if err := h.db.First(&service, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "service not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": service})
}

func (h *CatalogHandler) CreateService(c *fiber.Ctx) error {
	var payload models.Service
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.db.Create(&payload).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": payload})
}

func (h *CatalogHandler) UpdateService(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var service models.Service
	if err := h.db.First(&service, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "service not found")
		}
		return err
	}

	var payload models.Service
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	payload.ID = service.ID
	if err := h.db.Model(&service).Updates(payload).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": service})
}

func (h *CatalogHandler) DeleteService(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.Service{}, "id = ?", id).Error; err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CatalogHandler) ListPacks(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	var packs []models.ProductPack
	var total int64

	if err := h.db.Model(&models.ProductPack{}).Count(&total).Error; err != nil {
		return err
	}

	if err := h.db.Preload("Products").Limit(pg.Limit).Offset(pg.Offset).
		Order("created_at desc").Find(&packs).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": packs, "pagination": fiber.Map{
		"current_page":   pg.Page,
		"items_per_page": pg.Limit,
		"total_items":    total,
	}})
}

func (h *CatalogHandler) GetPack(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var pack models.ProductPack
	if err := h.db.Preload("Products").First(&pack, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "pack not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": pack})
}

type packRequest struct {
	Names        models.Translations `json:"names"`
	Descriptions models.Translations `json:"descriptions"`
	Price        float64             `json:"price"`
	CategoryID   *uuid.UUID          `json:"category_id"`
	ProductIDs   []uuid.UUID         `json:"product_ids"`
}

// CreatePack persists a pack and attaches its child products.
func (h *CatalogHandler) CreatePack(c *fiber.Ctx) error {
	var req packRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	pack := models.ProductPack{
		Names:        req.Names,
		Descriptions: req.Descriptions,
		Price:        req.Price,
		CategoryID:   req.CategoryID,
	}

	if len(req.ProductIDs) > 0 {
		var products []models.Product
		if err := h.db.Find(&products, "id IN ?", req.ProductIDs).Error; err != nil {
			return err
		}
		if len(products) != len(req.ProductIDs) {
			return fiber.NewError(fiber.StatusBadRequest, "unknown product in pack")
		}
		pack.Products = products
	}

	if err := h.db.Create(&pack).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": pack})
}

// UpdatePack updates pack fields and, when product_ids is present, replaces
// the membership list.
func (h *CatalogHandler) UpdatePack(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var pack models.ProductPack
	if err := h.db.First(&pack, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "pack not found")
		}
		return err
	}

	var req packRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := models.ProductPack{
		Names:        req.Names,
		Descriptions: req.Descriptions,
		Price:        req.Price,
		CategoryID:   req.CategoryID,
	}
	if err := h.db.Model(&pack).Updates(updates).Error; err != nil {
		return err
	}

	if req.ProductIDs != nil {
		var products []models.Product
		if err := h.db.Find(&products, "id IN ?", req.ProductIDs).Error; err != nil {
			return err
		}
		if err := h.db.Model(&pack).Association("Products").Replace(products); err != nil {
			return err
		}
	}

	return c.JSON(fiber.Map{"success": true, "data": pack})
}

func (h *CatalogHandler) DeletePack(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.ProductPack{}, "id = ?", id).Error; err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
