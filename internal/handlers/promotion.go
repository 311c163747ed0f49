package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/mediatower/internal/models"
	"github.com/example/mediatower/internal/services"
	"github.com/example/mediatower/internal/utils"
)

// PromotionHandler manages discount campaigns.
type PromotionHandler struct {
	db         *gorm.DB
	promotions *services.PromotionService
}

// NewPromotionHandler constructs PromotionHandler.
func NewPromotionHandler(db *gorm.DB, promotions *services.PromotionService) *PromotionHandler {
	return &PromotionHandler{db: db, promotions: promotions}
}

// List returns paginated promotions. Admin only.
func (h *PromotionHandler) List(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	var promos []models.Promotion
	var total int64

	if err := h.db.Model(&models.Promotion{}).Count(&total).Error; err != nil {
		return err
	}

	if err := h.db.Preload("ApplicableProducts").Preload("ApplicableServices").Preload("ApplicablePacks").
		Limit(pg.Limit).Offset(pg.Offset).Order("created_at desc").
		Find(&promos).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": promos, "pagination": fiber.Map{
		"current_page":   pg.Page,
		"items_per_page": pg.Limit,
		"total_items":    total,
	}})
}

type promotionRequest struct {
	Code          string      `json:"code"`
	Description   string      `json:"description"`
	DiscountType  string      `json:"discount_type"`
	DiscountValue float64     `json:"discount_value"`
	StartDate     *time.Time  `json:"start_date"`
	EndDate       *time.Time  `json:"end_date"`
	IsActive      *bool       `json:"is_active"`
	ProductIDs    []uuid.UUID `json:"product_ids"`
	ServiceIDs    []uuid.UUID `json:"service_ids"`
	PackIDs       []uuid.UUID `json:"pack_ids"`
}

func validDiscount(discountType string, value float64) bool {
	switch discountType {
	case models.DiscountPercentage:
		return value > 0 && value <= 100
	case models.DiscountFixedAmount:
		return value > 0
	}
	return false
}

// Create persists a new promotion. Codes are normalized to uppercase; a blank
// code makes the promotion automatic.
func (h *PromotionHandler) Create(c *fiber.Ctx) error {
	var req promotionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if !validDiscount(req.DiscountType, req.DiscountValue) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid discount type or value")
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return fiber.NewError(fiber.StatusBadRequest, "end_date must not precede start_date")
	}

	promo := models.Promotion{
		Code:          services.NormalizeCode(req.Code),
		Description:   req.Description,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		IsActive:      true,
	}
	if req.IsActive != nil {
		promo.IsActive = *req.IsActive
	}

	if err := h.attachTargets(&promo, req); err != nil {
		return err
	}

	if err := h.db.Create(&promo).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": promo})
}

// Update modifies an existing promotion.
func (h *PromotionHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var promo models.Promotion
	if err := h.db.First(&promo, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "promotion not found")
		}
		return err
	}

	var req promotionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]any{}
	if req.Code != "" {
		updates["code"] = services.NormalizeCode(req.Code)
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.DiscountType != "" {
		if !validDiscount(req.DiscountType, req.DiscountValue) {
			return fiber.NewError(fiber.StatusBadRequest, "invalid discount type or value")
		}
		updates["discount_type"] = req.DiscountType
		updates["discount_value"] = req.DiscountValue
	}
	if req.StartDate != nil {
		updates["start_date"] = req.StartDate
	}
	if req.EndDate != nil {
		updates["end_date"] = req.EndDate
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := h.db.Model(&promo).Updates(updates).Error; err != nil {
			return err
		}
	}

	if req.ProductIDs != nil {
		var products []models.Product
		if err := h.db.Find(&products, "id IN ?", req.ProductIDs).Error; err != nil {
			return err
		}
		if err := h.db.Model(&promo).Association("ApplicableProducts").Replace(products); err != nil {
			return err
		}
	}
	if req.ServiceIDs != nil {
		var svcs []models.Service
		if err := h.db.Find(&svcs, "id IN ?", req.ServiceIDs).Error; err != nil {
			return err
		}
		if err := h.db.Model(&promo).Association("ApplicableServices").Replace(svcs); err != nil {
			return err
		}
	}
	if req.PackIDs != nil {
		var packs []models.ProductPack
		if err := h.db.Find(&packs, "id IN ?", req.PackIDs).Error; err != nil {
			return err
		}
		if err := h.db.Model(&promo).Association("ApplicablePacks").Replace(packs); err != nil {
			return err
		}
	}

	return c.JSON(fiber.Map{"success": true, "data": promo})
}

// Delete removes a promotion by ID.
func (h *PromotionHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.Promotion{}, "id = ?", id).Error; err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

type validateCodeRequest struct {
	Code   string  `json:"code"`
	Amount float64 `json:"amount"`
}

// Validate checks a promo code and, when an amount is provided, previews the
// discount.
func (h *PromotionHandler) Validate(c *fiber.Ctx) error {
	var req validateCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	promo, err := h.promotions.ValidateCode(c.Context(), req.Code)
	if err != nil {
		return mapServiceError(err)
	}

	resp := fiber.Map{
		"success":   true,
		"promotion": promo,
	}
	if req.Amount > 0 {
		discount := h.promotions.ComputeDiscount(req.Amount, promo)
		resp["discount"] = discount
		resp["final_amount"] = req.Amount - discount
	}

	return c.JSON(resp)
}

func (h *PromotionHandler) attachTargets(promo *models.Promotion, req promotionRequest) error {
	if len(req.ProductIDs) > 0 {
		if err := h.db.Find(&promo.ApplicableProducts, "id IN ?", req.ProductIDs).Error; err != nil {
			return err
		}
	}
	if len(req.ServiceIDs) > 0 {
		if err := h.db.Find(&promo.ApplicableServices, "id IN ?", req.ServiceIDs).Error; err != nil {
			return err
		}
	}
	if len(req.PackIDs) > 0 {
		if err := h.db.Find(&promo.ApplicablePacks, "id IN ?", req.PackIDs).Error; err != nil {
			return err
		}
	}
	return nil
}
