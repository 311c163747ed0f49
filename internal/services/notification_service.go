package services

import (
	"context"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/mediatower/internal/models"
)

// NotificationService persists in-app notifications. Notification writes are
// non-critical side effects: failures are logged, never propagated.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// NotifyAdmins creates a notification visible to every admin.
func (s *NotificationService) NotifyAdmins(ctx context.Context, message, kind string) {
	n := models.Notification{Message: message, Type: kind}
	if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
		log.Printf("[Notification] failed to create admin notification: %v", err)
	}
}

// NotifyUser creates a notification for a single user.
func (s *NotificationService) NotifyUser(ctx context.Context, userID uuid.UUID, message, kind string) {
	n := models.Notification{RecipientID: &userID, Message: message, Type: kind}
	if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
		log.Printf("[Notification] failed to create notification for user %s: %v", userID, err)
	}
}
