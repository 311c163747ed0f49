package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pquerna/otp/totp"
	"gorm.io/gorm"

	"github.com/example/mediatower/internal/config"
	"github.com/example/mediatower/internal/middleware"
	"github.com/example/mediatower/internal/models"
	"github.com/example/mediatower/internal/services"
	"github.com/example/mediatower/internal/utils"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	db    *gorm.DB
	cfg   *config.Config
	audit *services.AuditLogService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config, audit *services.AuditLogService) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg, audit: audit}
}

type registerRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// Register creates a new user account.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Email == "" || req.Password == "" || req.FirstName == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}

	var existing models.User
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return fiber.NewError(fiber.StatusConflict, "user already exists")
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	user := models.User{
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
	}

	if err := h.db.Create(&user).Error; err != nil {
		return err
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, user.Role, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user":    userResponse(&user),
		"token":   token,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	MFACode  string `json:"mfa_code"`
}

// Login authenticates an existing user. Accounts with MFA enabled must also
// supply a valid TOTP code.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			h.audit.Record(c.Context(), nil, models.AuditLoginFailed, c.IP(), "unknown email "+req.Email)
			return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
		}
		return err
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		h.audit.Record(c.Context(), &user.ID, models.AuditLoginFailed, c.IP(), "wrong password")
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	if user.MFAEnabled {
		if req.MFACode == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "mfa code required")
		}
		if !totp.Validate(req.MFACode, user.MFASecret) {
			h.audit.Record(c.Context(), &user.ID, models.AuditMFAFailed, c.IP(), "login")
			return fiber.NewError(fiber.StatusUnauthorized, "invalid mfa code")
		}
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, user.Role, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	h.audit.Record(c.Context(), &user.ID, models.AuditLoginSuccess, c.IP(), "")

	return c.JSON(fiber.Map{
		"success": true,
		"user":    userResponse(&user),
		"token":   token,
	})
}

// SetupMFA generates a fresh TOTP secret for the current user. The secret is
// stored immediately but MFA stays disabled until EnableMFA confirms the user
// scanned it.
func (h *AuthHandler) SetupMFA(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		return err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "MediaTower",
		AccountName: user.Email,
	})
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate mfa secret")
	}

	if err := h.db.Model(&user).Updates(map[string]any{
		"mfa_secret":  key.Secret(),
		"mfa_enabled": false,
	}).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"secret":  key.Secret(),
		"url":     key.URL(),
	})
}

type enableMFARequest struct {
	Code string `json:"code"`
}

// EnableMFA turns MFA on after verifying one valid code against the stored
// secret.
func (h *AuthHandler) EnableMFA(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var req enableMFARequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		return err
	}

	if user.MFASecret == "" {
		return fiber.NewError(fiber.StatusBadRequest, "mfa has not been set up")
	}

	if !totp.Validate(req.Code, user.MFASecret) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid mfa code")
	}

	if err := h.db.Model(&user).Update("mfa_enabled", true).Error; err != nil {
		return err
	}

	h.audit.Record(c.Context(), &user.ID, models.AuditMFAEnabled, c.IP(), "")

	return c.JSON(fiber.Map{
		"success":     true,
		"mfa_enabled": true,
	})
}

// DisableMFA turns MFA off and clears the stored secret.
func (h *AuthHandler) DisableMFA(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	if err := h.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]any{
		"mfa_enabled": false,
		"mfa_secret":  "",
	}).Error; err != nil {
		return err
	}

	h.audit.Record(c.Context(), &userID, models.AuditMFADisabled, c.IP(), "")

	return c.JSON(fiber.Map{
		"success":     true,
		"mfa_enabled": false,
	})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    userResponse(&user),
	})
}

func userResponse(user *models.User) map[string]interface{} {
	return map[string]interface{}{
		"id":          user.ID,
		"email":       user.Email,
		"first_name":  user.FirstName,
		"last_name":   user.LastName,
		"role":        user.Role,
		"mfa_enabled": user.MFAEnabled,
	}
}
