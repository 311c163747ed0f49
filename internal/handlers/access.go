package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/mediatower/internal/middleware"
	"github.com/example/mediatower/internal/models"
	"github.com/example/mediatower/internal/services"
	"github.com/example/mediatower/internal/utils"
)

// AccessHandler serves the user's library and media downloads.
type AccessHandler struct {
	db      *gorm.DB
	storage services.Storage
}

// NewAccessHandler constructs AccessHandler.
func NewAccessHandler(db *gorm.DB, storage services.Storage) *AccessHandler {
	return &AccessHandler{db: db, storage: storage}
}

// ListMine returns the authenticated user's entitlements.
func (h *AccessHandler) ListMine(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	pg := utils.ParsePagination(c)
	var accesses []models.UserProductAccess
	var total int64

	if err := h.db.Model(&models.UserProductAccess{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return err
	}

	if err := h.db.Preload("Product").Preload("Product.Media").
		Where("user_id = ?", userID).
		Limit(pg.Limit).Offset(pg.Offset).Order("purchase_date desc").
		Find(&accesses).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": accesses, "pagination": fiber.Map{
		"current_page":   pg.Page,
		"items_per_page": pg.Limit,
		"total_items":    total,
	}})
}

// Download hands out a presigned URL for one media asset of an owned,
// unexpired product and bumps the download counter.
func (h *AccessHandler) Download(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	mediaID, err := uuid.Parse(c.Params("mediaId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid media id")
	}

	var access models.UserProductAccess
	if err := h.db.Where("user_id = ? AND product_id = ?", userID, productID).
		First(&access).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusForbidden, "no access to this product")
		}
		return err
	}

	if access.Expired(time.Now()) {
		return mapServiceError(services.ErrAccessExpired)
	}

	var media models.ProductMedia
	if err := h.db.Where("id = ? AND product_id = ?", mediaID, productID).
		First(&media).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "media not found")
		}
		return err
	}

	url, err := h.storage.PresignedURL(c.Context(), media.StorageKey)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "failed to generate download link")
	}

	now := time.Now()
	if err := h.db.Model(&access).Updates(map[string]any{
		"download_count":   gorm.Expr("download_count + 1"),
		"last_download_at": now,
	}).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"url":       url,
		"file_name": media.FileName,
	})
}
