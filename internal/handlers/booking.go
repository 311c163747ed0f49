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

// BookingHandler exposes the booking lifecycle endpoints.
type BookingHandler struct {
	db       *gorm.DB
	bookings *services.BookingService
}

// NewBookingHandler constructs BookingHandler.
func NewBookingHandler(db *gorm.DB, bookings *services.BookingService) *BookingHandler {
	return &BookingHandler{db: db, bookings: bookings}
}

type createBookingRequest struct {
	ServiceID uuid.UUID `json:"service_id"`
	Notes     string    `json:"notes"`
}

// Create registers a booking request for the authenticated user.
func (h *BookingHandler) Create(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var req createBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.ServiceID == uuid.Nil {
		return fiber.NewError(fiber.StatusBadRequest, "service_id is required")
	}

	booking, err := h.bookings.CreateBooking(c.Context(), userID, req.ServiceID, req.Notes)
	if err != nil {
		return mapServiceError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": booking})
}

// ListMine returns the authenticated user's bookings.
func (h *BookingHandler) ListMine(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	pg := utils.ParsePagination(c)
	var bookings []models.Booking
	var total int64

	if err := h.db.Model(&models.Booking{}).Where("customer_id = ?", userID).Count(&total).Error; err != nil {
		return err
	}

	if err := h.db.Preload("Service").
		Where("customer_id = ?", userID).
		Limit(pg.Limit).Offset(pg.Offset).Order("created_at desc").
		Find(&bookings).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": bookings, "pagination": fiber.Map{
		"current_page":   pg.Page,
		"items_per_page": pg.Limit,
		"total_items":    total,
	}})
}

// List returns all bookings, optionally filtered by status. Admin only.
func (h *BookingHandler) List(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Booking{})

	if raw := c.Query("status"); raw != "" {
		status, ok := models.ParseBookingStatus(raw)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "invalid status filter")
		}
		query = query.Where("status = ?", status)
	}
	if raw := c.Query("assigned_admin_id"); raw != "" {
		adminID, err := uuid.Parse(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid assigned_admin_id")
		}
		query = query.Where("assigned_admin_id = ?", adminID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var bookings []models.Booking
	if err := query.Preload("Customer").Preload("Service").Preload("AssignedAdmin").
		Limit(pg.Limit).Offset(pg.Offset).Order("created_at desc").
		Find(&bookings).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": bookings, "pagination": fiber.Map{
		"current_page":   pg.Page,
		"items_per_page": pg.Limit,
		"total_items":    total,
	}})
}

// Get returns one booking. Non-admin callers can only see their own.
func (h *BookingHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var booking models.Booking
	if err := h.db.Preload("Customer").Preload("Service").Preload("AssignedAdmin").
		First(&booking, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "booking not found")
		}
		return err
	}

	userID, _ := middleware.GetCurrentUserID(c)
	role, _ := middleware.GetCurrentRole(c)
	if role != models.RoleAdmin && booking.CustomerID != userID {
		return fiber.NewError(fiber.StatusForbidden, "not your booking")
	}

	return c.JSON(fiber.Map{"success": true, "data": booking})
}

// UpdateStatus moves a booking through its lifecycle. Admin only.
func (h *BookingHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	booking, err := h.bookings.UpdateStatus(c.Context(), id, req.Status)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": booking})
}

// Assign claims a booking for the authenticated admin.
func (h *BookingHandler) Assign(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	adminID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	booking, err := h.bookings.Assign(c.Context(), id, adminID)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": booking})
}

// Unassign releases a claimed booking back to the pool.
func (h *BookingHandler) Unassign(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	booking, err := h.bookings.Unassign(c.Context(), id)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": booking})
}
