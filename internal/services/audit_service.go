package services

import (
	"context"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/mediatower/internal/models"
)

// AuditLogService records security-relevant events. Recording is a side
// effect of the request being audited: failures are logged, never propagated.
type AuditLogService struct {
	db *gorm.DB
}

func NewAuditLogService(db *gorm.DB) *AuditLogService {
	return &AuditLogService{db: db}
}

// Record appends one entry to the audit trail.
func (s *AuditLogService) Record(ctx context.Context, userID *uuid.UUID, action, ipAddress, details string) {
	entry := models.AuditLog{
		UserID:    userID,
		Action:    action,
		IPAddress: ipAddress,
		Details:   details,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		log.Printf("[Audit] failed to record %s: %v", action, err)
	}
}

// List returns audit entries newest first.
func (s *AuditLogService) List(ctx context.Context, limit, offset int) ([]models.AuditLog, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.AuditLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.AuditLog
	if err := s.db.WithContext(ctx).
		Preload("User").
		Order("created_at desc").
		Limit(limit).Offset(offset).
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
