package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/mediatower/internal/middleware"
	"github.com/example/mediatower/internal/models"
	"github.com/example/mediatower/internal/services"
	"github.com/example/mediatower/internal/utils"
)

// OrderHandler exposes order creation and lifecycle endpoints.
type OrderHandler struct {
	db     *gorm.DB
	orders *services.OrderService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(db *gorm.DB, orders *services.OrderService) *OrderHandler {
	return &OrderHandler{db: db, orders: orders}
}

type orderLineRequest struct {
	ProductID *uuid.UUID `json:"product_id"`
	PackID    *uuid.UUID `json:"pack_id"`
	Quantity  int        `json:"quantity"`
}

type createOrderRequest struct {
	Items     []orderLineRequest `json:"items"`
	PromoCode string             `json:"promo_code"`
}

// Create places a new order for the authenticated user.
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	lines := make([]services.OrderLineInput, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, services.OrderLineInput{
			ProductID: item.ProductID,
			PackID:    item.PackID,
			Quantity:  item.Quantity,
		})
	}

	order, err := h.orders.CreateOrder(c.Context(), userID, lines, req.PromoCode)
	if err != nil {
		return mapServiceError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": order})
}

// ListMine returns the authenticated user's orders.
func (h *OrderHandler) ListMine(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	pg := utils.ParsePagination(c)
	var orders []models.Order
	var total int64

	if err := h.db.Model(&models.Order{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return err
	}

	if err := h.db.Preload("Items").Preload("Payment").
		Where("user_id = ?", userID).
		Limit(pg.Limit).Offset(pg.Offset).Order("ordered_at desc").
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": orders, "pagination": fiber.Map{
		"current_page":   pg.Page,
		"items_per_page": pg.Limit,
		"total_items":    total,
	}})
}

// List returns all orders, optionally filtered by status. Admin only.
func (h *OrderHandler) List(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Order{})

	if raw := c.Query("status"); raw != "" {
		status, ok := models.ParseOrderStatus(raw)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "invalid status filter")
		}
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("Items").Preload("Payment").
		Limit(pg.Limit).Offset(pg.Offset).Order("ordered_at desc").
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": orders, "pagination": fiber.Map{
		"current_page":   pg.Page,
		"items_per_page": pg.Limit,
		"total_items":    total,
	}})
}

// Get returns one order. Non-admin callers can only see their own.
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var order models.Order
	if err := h.db.Preload("Items").Preload("Payment").
		First(&order, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	userID, _ := middleware.GetCurrentUserID(c)
	role, _ := middleware.GetCurrentRole(c)
	if role != models.RoleAdmin && order.UserID != userID {
		return fiber.NewError(fiber.StatusForbidden, "not your order")
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus moves an order through its lifecycle. Admin only.
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order, err := h.orders.UpdateStatus(c.Context(), id, req.Status)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

// mapServiceError converts service-layer errors into fiber errors with the
// right status code. Unknown errors pass through to the 500 handler.
func mapServiceError(err error) error {
	var transition *services.TransitionError
	switch {
	case errors.As(err, &transition):
		return fiber.NewError(fiber.StatusConflict, transition.Error())
	case errors.Is(err, services.ErrVersionConflict):
		return fiber.NewError(fiber.StatusConflict, "concurrent update, please retry")
	case errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrEmptyOrder),
		errors.Is(err, services.ErrZeroTotal),
		errors.Is(err, services.ErrPromotionNotStarted),
		errors.Is(err, services.ErrPromotionExpired):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrPromotionNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrPurchaseRequired):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrAlreadyReviewed):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, services.ErrAccessExpired):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.NewError(fiber.StatusNotFound, "record not found")
	}
	return err
}
