package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/mediatower/internal/middleware"
	"github.com/example/mediatower/internal/models"
	"github.com/example/mediatower/internal/services"
	"github.com/example/mediatower/internal/utils"
)

// ReviewHandler manages product and service reviews.
type ReviewHandler struct {
	db     *gorm.DB
	orders *services.OrderService
}

// NewReviewHandler constructs ReviewHandler.
func NewReviewHandler(db *gorm.DB, orders *services.OrderService) *ReviewHandler {
	return &ReviewHandler{db: db, orders: orders}
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// CreateProductReview leaves a review on a purchased product. One review per
// user and product.
func (h *ReviewHandler) CreateProductReview(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req reviewRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return fiber.NewError(fiber.StatusBadRequest, "rating must be between 1 and 5")
	}

	purchased, err := h.orders.HasPurchasedProduct(c.Context(), userID, productID)
	if err != nil {
		return err
	}
	if !purchased {
		return mapServiceError(services.ErrPurchaseRequired)
	}

	var existing models.Review
	if err := h.db.Where("user_id = ? AND product_id = ?", userID, productID).
		First(&existing).Error; err == nil {
		return mapServiceError(services.ErrAlreadyReviewed)
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	review := models.Review{
		UserID:    userID,
		ProductID: productID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := h.db.Create(&review).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": review})
}

// ListProductReviews returns paginated reviews for a product.
func (h *ReviewHandler) ListProductReviews(c *fiber.Ctx) error {
	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	pg := utils.ParsePagination(c)
	var reviews []models.Review
	var total int64

	if err := h.db.Model(&models.Review{}).Where("product_id = ?", productID).Count(&total).Error; err != nil {
		return err
	}

	if err := h.db.Preload("User").
		Where("product_id = ?", productID).
		Limit(pg.Limit).Offset(pg.Offset).Order("created_at desc").
		Find(&reviews).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": reviews, "pagination": fiber.Map{
		"current_page":   pg.Page,
		"items_per_page": pg.Limit,
		"total_items":    total,
	}})
}

// CreateServiceReview leaves a review after a completed booking.
func (h *ReviewHandler) CreateServiceReview(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	serviceID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req reviewRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return fiber.NewError(fiber.StatusBadRequest, "rating must be between 1 and 5")
	}

	var completed int64
	if err := h.db.Model(&models.Booking{}).
		Where("customer_id = ? AND service_id = ? AND status = ?", userID, serviceID, models.BookingCompleted).
		Count(&completed).Error; err != nil {
		return err
	}
	if completed == 0 {
		return mapServiceError(services.ErrPurchaseRequired)
	}

	var existing models.ServiceReview
	if err := h.db.Where("user_id = ? AND service_id = ?", userID, serviceID).
		First(&existing).Error; err == nil {
		return mapServiceError(services.ErrAlreadyReviewed)
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	review := models.ServiceReview{
		UserID:    userID,
		ServiceID: serviceID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := h.db.Create(&review).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": review})
}

// ListServiceReviews returns paginated reviews for a service.
func (h *ReviewHandler) ListServiceReviews(c *fiber.Ctx) error {
	serviceID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	pg := utils.ParsePagination(c)
	var reviews []models.ServiceReview
	var total int64

	if err := h.db.Model(&models.ServiceReview{}).Where("service_id = ?", serviceID).Count(&total).Error; err != nil {
		return err
	}

	if err := h.db.Preload("User").
		Where("service_id = ?", serviceID).
		Limit(pg.Limit).Offset(pg.Offset).Order("created_at desc").
		Find(&reviews).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": reviews, "pagination": fiber.Map{
		"current_page":   pg.Page,
		"items_per_page": pg.Limit,
		"total_items":    total,
	}})
}
