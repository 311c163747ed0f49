package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/mediatower/internal/models"
)

// PaymentService routes verified provider confirmations to the order and
// booking state machines and keeps the processed-event ledger that makes
// webhook redelivery harmless.
type PaymentService struct {
	db       *gorm.DB
	orders   *OrderService
	bookings *BookingService
}

func NewPaymentService(db *gorm.DB, orders *OrderService, bookings *BookingService) *PaymentService {
	return &PaymentService{db: db, orders: orders, bookings: bookings}
}

// MarkEventProcessed records a provider event id and reports whether this is
// its first delivery. The insert races safely: on conflict nothing is written
// and the caller sees fresh == false.
func (s *PaymentService) MarkEventProcessed(ctx context.Context, provider, eventID, eventType string) (bool, error) {
	if eventID == "" {
		return false, fmt.Errorf("event id is required")
	}
	event := models.WebhookEvent{
		EventID:     eventID,
		Provider:    provider,
		EventType:   eventType,
		ProcessedAt: time.Now(),
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&event)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ForgetEvent removes a ledger entry so the provider's next redelivery is
// processed as a fresh event. Used when dispatch failed transiently after the
// event was already recorded.
func (s *PaymentService) ForgetEvent(ctx context.Context, provider, eventID string) error {
	return s.db.WithContext(ctx).
		Where("provider = ? AND event_id = ?", provider, eventID).
		Delete(&models.WebhookEvent{}).Error
}

// PermanentDispatchError reports whether a dispatch failure can never succeed
// on redelivery: an unroutable target, a disallowed transition, a missing
// record. Everything else (version conflicts, database errors) is transient
// and worth a provider retry.
func PermanentDispatchError(err error) bool {
	var transition *TransitionError
	if errors.As(err, &transition) {
		return true
	}
	return errors.Is(err, ErrUnknownPaymentTarget) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, gorm.ErrRecordNotFound)
}

// ConfirmOrderPayment moves a paid order to CONFIRMED and stamps its payment
// record. Delivery (entitlements, email, DELIVERED) runs inside the order
// state machine.
func (s *PaymentService) ConfirmOrderPayment(ctx context.Context, orderID uuid.UUID, provider, providerRef string) error {
	if _, err := s.orders.UpdateStatus(ctx, orderID, string(models.OrderConfirmed)); err != nil {
		return fmt.Errorf("confirm order %s: %w", orderID, err)
	}

	if err := s.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("order_id = ?", orderID).
		Updates(map[string]any{
			"status":         models.PaymentCompleted,
			"method":         provider,
			"transaction_id": providerRef,
		}).Error; err != nil {
		// The order already advanced; a stale payment row is log-worthy but
		// not a reason to make the provider redeliver.
		log.Printf("[Payment] failed to stamp payment for order %s: %v", orderID, err)
	}
	return nil
}

// ConfirmBookingPayment moves a paid booking from CONFIRMED to IN_PROGRESS.
func (s *PaymentService) ConfirmBookingPayment(ctx context.Context, bookingID uuid.UUID) error {
	if _, err := s.bookings.ConfirmPayment(ctx, bookingID); err != nil {
		return fmt.Errorf("confirm booking %s: %w", bookingID, err)
	}
	return nil
}

// Dispatch routes a confirmation by target kind ("order" or "booking").
func (s *PaymentService) Dispatch(ctx context.Context, kind string, id uuid.UUID, provider, providerRef string) error {
	switch kind {
	case "order":
		return s.ConfirmOrderPayment(ctx, id, provider, providerRef)
	case "booking":
		return s.ConfirmBookingPayment(ctx, id)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPaymentTarget, kind)
	}
}
