package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/mediatower/internal/models"
	"github.com/example/mediatower/internal/services"
	"github.com/example/mediatower/internal/utils"
)

// ProductHandler manages products and their media assets.
type ProductHandler struct {
	db      *gorm.DB
	storage services.Storage
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(db *gorm.DB, storage services.Storage) *ProductHandler {
	return &ProductHandler{db: db, storage: storage}
}

// List returns paginated products, optionally filtered by category or tag.
func (h *ProductHandler) List(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	query := h.db.Model(&models.Product{})
	if c.Query("include_inactive") != "true" {
		query = query.Where("is_active = ?", true)
	}
	if raw := c.Query("category_id"); raw != "" {
		categoryID, err := uuid.Parse(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid category_id")
		}
		query = query.Where("category_id = ?", categoryID)
	}
	if raw := c.Query("tag_id"); raw != "" {
		tagID, err := uuid.Parse(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid tag_id")
		}
		query = query.Joins("JOIN product_tags ON product_tags.product_id = products.id").
			Where("product_tags.tag_id = ?", tagID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var products []models.Product
	if err := query.Preload("Category").Preload("Tags").Preload("Media").
		Limit(pg.Limit).Offset(pg.Offset).Order("created_at desc").
		Find(&products).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    products,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// Get returns a single product by ID.
func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.db.Preload("Category").Preload("Tags").Preload("Media").
		First(&product, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}

type productRequest struct {
	Names        models.Translations `json:"names"`
	Descriptions models.Translations `json:"descriptions"`
	Price        float64             `json:"price"`
	CategoryID   *uuid.UUID          `json:"category_id"`
	TagIDs       []uuid.UUID         `json:"tag_ids"`
	IsActive     *bool               `json:"is_active"`
}

// Create persists a new product.
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Price < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "price must not be negative")
	}

	product := models.Product{
		Names:        req.Names,
		Descriptions: req.Descriptions,
		Price:        req.Price,
		CategoryID:   req.CategoryID,
		IsActive:     true,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if len(req.TagIDs) > 0 {
		var tags []models.Tag
		if err := h.db.Find(&tags, "id IN ?", req.TagIDs).Error; err != nil {
			return err
		}
		product.Tags = tags
	}

	if err := h.db.Create(&product).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": product})
}

// Update modifies product fields and replaces tags when tag_ids is present.
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.db.First(&product, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]any{}
	if req.Names != nil {
		updates["names"] = req.Names
	}
	if req.Descriptions != nil {
		updates["descriptions"] = req.Descriptions
	}
	if req.Price > 0 {
		updates["price"] = req.Price
	}
	if req.CategoryID != nil {
		updates["category_id"] = req.CategoryID
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := h.db.Model(&product).Updates(updates).Error; err != nil {
			return err
		}
	}

	if req.TagIDs != nil {
		var tags []models.Tag
		if err := h.db.Find(&tags, "id IN ?", req.TagIDs).Error; err != nil {
			return err
		}
		if err := h.db.Model(&product).Association("Tags").Replace(tags); err != nil {
			return err
		}
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}

// Delete removes a product by ID.
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.Product{}, "id = ?", id).Error; err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// UploadMedia attaches an uploaded file to a product. The object itself goes
// to the private bucket; only the key is stored.
func (h *ProductHandler) UploadMedia(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.db.First(&product, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "file is required")
	}

	key, err := h.storage.Upload(c.Context(), fileHeader, "products/"+product.ID.String())
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "failed to store file")
	}

	media := models.ProductMedia{
		ProductID:   product.ID,
		FileName:    fileHeader.Filename,
		StorageKey:  key,
		ContentType: fileHeader.Header.Get("Content-Type"),
		SizeBytes:   fileHeader.Size,
		IsPrimary:   c.FormValue("is_primary") == "true",
	}
	if err := h.db.Create(&media).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": media})
}

// DeleteMedia removes a media record and its stored object.
func (h *ProductHandler) DeleteMedia(c *fiber.Ctx) error {
	mediaID, err := uuid.Parse(c.Params("mediaId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid media id")
	}

	var media models.ProductMedia
	if err := h.db.First(&media, "id = ?", mediaID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "media not found")
		}
		return err
	}

	if err := h.storage.Delete(c.Context(), media.StorageKey); err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "failed to delete stored file")
	}

	if err := h.db.Delete(&media).Error; err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
