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

// AdminHandler covers user administration and the audit trail.
type AdminHandler struct {
	db    *gorm.DB
	audit *services.AuditLogService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB, audit *services.AuditLogService) *AdminHandler {
	return &AdminHandler{db: db, audit: audit}
}

// ListUsers returns paginated users, optionally filtered by role.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.User{})

	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("email LIKE ? OR first_name LIKE ? OR last_name LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var users []models.User
	if err := query.Limit(pg.Limit).Offset(pg.Offset).Order("created_at desc").
		Find(&users).Error; err != nil {
		return err
	}

	data := make([]map[string]interface{}, 0, len(users))
	for i := range users {
		data = append(data, userResponse(&users[i]))
	}

	return c.JSON(fiber.Map{"success": true, "data": data, "pagination": fiber.Map{
		"current_page":   pg.Page,
		"items_per_page": pg.Limit,
		"total_items":    total,
	}})
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// UpdateUserRole promotes or demotes a user.
func (h *AdminHandler) UpdateUserRole(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Role != models.RoleUser && req.Role != models.RoleAdmin {
		return fiber.NewError(fiber.StatusBadRequest, "invalid role")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	if err := h.db.Model(&user).Update("role", req.Role).Error; err != nil {
		return err
	}

	if actorID, ok := middleware.GetCurrentUserID(c); ok {
		h.audit.Record(c.Context(), &actorID, models.AuditRoleChanged, c.IP(),
			user.Email+" -> "+req.Role)
	}

	return c.JSON(fiber.Map{"success": true, "data": userResponse(&user)})
}

// DeleteUser removes an account.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.User{}, "id = ?", id).Error; err != nil {
		return err
	}

	if actorID, ok := middleware.GetCurrentUserID(c); ok {
		h.audit.Record(c.Context(), &actorID, models.AuditUserDeleted, c.IP(), id.String())
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListAuditLogs returns the security audit trail, newest first.
func (h *AdminHandler) ListAuditLogs(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	entries, total, err := h.audit.List(c.Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": entries, "pagination": fiber.Map{
		"current_page":   pg.Page,
		"items_per_page": pg.Limit,
		"total_items":    total,
	}})
}
