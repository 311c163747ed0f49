package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/mediatower/internal/middleware"
	"github.com/example/mediatower/internal/models"
	"github.com/example/mediatower/internal/utils"
)

// NotificationHandler serves in-app notifications.
type NotificationHandler struct {
	db *gorm.DB
}

// NewNotificationHandler constructs NotificationHandler.
func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{db: db}
}

// ListMine returns the caller's notifications. Admins also see broadcast
// notifications (nil recipient).
func (h *NotificationHandler) ListMine(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	pg := utils.ParsePagination(c)
	role, _ := middleware.GetCurrentRole(c)

	query := h.db.Model(&models.Notification{})
	if role == models.RoleAdmin {
		query = query.Where("recipient_id = ? OR recipient_id IS NULL", userID)
	} else {
		query = query.Where("recipient_id = ?", userID)
	}
	if c.Query("unread") == "true" {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var notifications []models.Notification
	if err := query.Limit(pg.Limit).Offset(pg.Offset).Order("created_at desc").
		Find(&notifications).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": notifications, "pagination": fiber.Map{
		"current_page":   pg.Page,
		"items_per_page": pg.Limit,
		"total_items":    total,
	}})
}

// MarkRead marks one notification as read.
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var notification models.Notification
	if err := h.db.First(&notification, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "notification not found")
		}
		return err
	}

	userID, _ := middleware.GetCurrentUserID(c)
	role, _ := middleware.GetCurrentRole(c)
	if notification.RecipientID != nil && *notification.RecipientID != userID && role != models.RoleAdmin {
		return fiber.NewError(fiber.StatusForbidden, "not your notification")
	}

	if err := h.db.Model(&notification).Update("is_read", true).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": notification})
}

// MarkAllRead marks every notification visible to the caller as read.
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	role, _ := middleware.GetCurrentRole(c)
	query := h.db.Model(&models.Notification{})
	if role == models.RoleAdmin {
		query = query.Where("recipient_id = ? OR recipient_id IS NULL", userID)
	} else {
		query = query.Where("recipient_id = ?", userID)
	}

	if err := query.Update("is_read", true).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}
