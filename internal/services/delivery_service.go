package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/mediatower/internal/models"
)

// ErrVersionConflict signals a lost optimistic-concurrency race; callers
// reload and retry.
var ErrVersionConflict = errors.New("concurrent modification detected")

// DeliveryService grants product entitlements once an order is confirmed.
type DeliveryService struct {
	db            *gorm.DB
	mailer        *EmailService
	notifications *NotificationService
}

func NewDeliveryService(db *gorm.DB, mailer *EmailService, notifications *NotificationService) *DeliveryService {
	return &DeliveryService{db: db, mailer: mailer, notifications: notifications}
}

// ProcessOrderDelivery grants access for every order line, sends the
// confirmation email and advances the order to DELIVERED. The grant is
// idempotent: the (user_id, product_id) unique constraint is the authoritative
// guard, so concurrent webhook retries can never double-grant.
func (s *DeliveryService) ProcessOrderDelivery(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.Status != models.OrderConfirmed {
		log.Printf("[Delivery] order %s is not CONFIRMED (current: %s), skipping delivery", order.ID, order.Status)
		return order, nil
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", order.UserID).Error; err != nil {
		return nil, fmt.Errorf("load order owner: %w", err)
	}

	if len(order.Items) == 0 {
		if err := s.db.WithContext(ctx).
			Where("order_id = ?", order.ID).
			Find(&order.Items).Error; err != nil {
			return nil, fmt.Errorf("load order items: %w", err)
		}
	}

	for _, item := range order.Items {
		productIDs, err := s.resolveItemProducts(ctx, item)
		if err != nil {
			return nil, err
		}
		for _, productID := range productIDs {
			granted, err := s.grantAccess(ctx, order.UserID, productID)
			if err != nil {
				return nil, err
			}
			if granted {
				log.Printf("[Delivery] granted access to product %s for user %s", productID, user.Email)
				s.notifications.NotifyAdmins(ctx,
					fmt.Sprintf("New sale: %q sold to %s", item.Name, user.Email), "NEW_SALE")
			}
		}
	}

	// Mail failure must not roll back the grant.
	if err := s.mailer.SendOrderConfirmation(&user, order); err != nil {
		log.Printf("[Delivery] order confirmation email failed for order %s: %v", order.ID, err)
	} else {
		log.Printf("[Delivery] order confirmation email sent for order %s", order.ID)
	}

	if err := s.completePayment(ctx, order.ID); err != nil {
		log.Printf("[Delivery] failed to mark payment completed for order %s: %v", order.ID, err)
	}

	if err := advanceOrderStatus(s.db.WithContext(ctx), order, models.OrderDelivered); err != nil {
		return nil, err
	}
	log.Printf("[Delivery] order %s delivered", order.ID)

	return order, nil
}

// resolveItemProducts expands a pack line into its child products.
func (s *DeliveryService) resolveItemProducts(ctx context.Context, item models.OrderItem) ([]uuid.UUID, error) {
	if item.PackID != nil {
		var pack models.ProductPack
		if err := s.db.WithContext(ctx).
			Preload("Products").
			First(&pack, "id = ?", *item.PackID).Error; err != nil {
			return nil, fmt.Errorf("load pack %s: %w", *item.PackID, err)
		}
		ids := make([]uuid.UUID, 0, len(pack.Products))
		for _, p := range pack.Products {
			ids = append(ids, p.ID)
		}
		return ids, nil
	}

	if item.ProductID != nil {
		return []uuid.UUID{*item.ProductID}, nil
	}

	return nil, nil
}

// grantAccess inserts the entitlement row, relying on ON CONFLICT DO NOTHING
// against the composite unique index. The prior existence check is a fast path
// only.
func (s *DeliveryService) grantAccess(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.UserProductAccess{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	access := models.UserProductAccess{UserID: userID, ProductID: productID}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(&access)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *DeliveryService) completePayment(ctx context.Context, orderID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("order_id = ?", orderID).
		Update("status", models.PaymentCompleted).Error
}

// advanceOrderStatus performs a version-checked status write.
func advanceOrderStatus(db *gorm.DB, order *models.Order, target models.OrderStatus) error {
	res := db.Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(map[string]any{
			"status":  target,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	order.Status = target
	order.Version++
	return nil
}
