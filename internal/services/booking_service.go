package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/mediatower/internal/models"
)

// PaymentWindow is how long a confirmed booking stays reserved while waiting
// for payment.
const PaymentWindow = 48 * time.Hour

// bookingTransitions is the explicit transition table for the booking
// lifecycle. COMPLETED and CANCELLED are terminal.
var bookingTransitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingPending:    {models.BookingProcessing, models.BookingConfirmed, models.BookingCancelled},
	models.BookingProcessing: {models.BookingConfirmed, models.BookingCancelled},
	models.BookingConfirmed:  {models.BookingInProgress, models.BookingCancelled},
	models.BookingInProgress: {models.BookingCompleted, models.BookingCancelled},
	models.BookingCompleted:  {},
	models.BookingCancelled:  {},
}

func bookingTransitionAllowed(from, to models.BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// BookingService manages the booking lifecycle and the payment-deadline sweep.
type BookingService struct {
	db            *gorm.DB
	mailer        *EmailService
	notifications *NotificationService
}

func NewBookingService(db *gorm.DB, mailer *EmailService, notifications *NotificationService) *BookingService {
	return &BookingService{db: db, mailer: mailer, notifications: notifications}
}

// CreateBooking registers a new PENDING booking request.
func (s *BookingService) CreateBooking(ctx context.Context, customerID, serviceID uuid.UUID, notes string) (*models.Booking, error) {
	var svc models.Service
	if err := s.db.WithContext(ctx).First(&svc, "id = ?", serviceID).Error; err != nil {
		return nil, err
	}
	var customer models.User
	if err := s.db.WithContext(ctx).First(&customer, "id = ?", customerID).Error; err != nil {
		return nil, err
	}

	booking := models.Booking{
		CustomerID:    customerID,
		ServiceID:     serviceID,
		Status:        models.BookingPending,
		CustomerNotes: notes,
	}
	if err := s.db.WithContext(ctx).Create(&booking).Error; err != nil {
		return nil, err
	}

	serviceName := svc.Names.Get("en")
	s.mailer.SendBookingRequested(&customer, serviceName)
	s.notifications.NotifyAdmins(ctx,
		fmt.Sprintf("New booking request from %s for %q", customer.Email, serviceName), "NEW_BOOKING")

	return &booking, nil
}

// UpdateStatus drives the booking state machine. Transitioning to CONFIRMED
// sets the payment deadline; any transition away from CONFIRMED clears it.
func (s *BookingService) UpdateStatus(ctx context.Context, bookingID uuid.UUID, rawStatus string) (*models.Booking, error) {
	target, ok := models.ParseBookingStatus(strings.ToUpper(strings.TrimSpace(rawStatus)))
	if !ok {
		return nil, ErrInvalidStatus
	}
	return s.transition(ctx, bookingID, target)
}

// ConfirmPayment is the only path from CONFIRMED to IN_PROGRESS. Confirming a
// booking that is not awaiting payment is a no-op, which keeps webhook
// redelivery harmless.
func (s *BookingService) ConfirmPayment(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.WithContext(ctx).First(&booking, "id = ?", bookingID).Error; err != nil {
		return nil, err
	}
	if booking.Status != models.BookingConfirmed {
		log.Printf("[Booking] payment confirmation for booking %s ignored (status %s)", bookingID, booking.Status)
		return &booking, nil
	}
	return s.transition(ctx, bookingID, models.BookingInProgress)
}

// Assign lets an admin claim a booking. A PENDING booking advances to
// PROCESSING. Claims are non-exclusive; last write wins.
func (s *BookingService) Assign(ctx context.Context, bookingID, adminID uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.WithContext(ctx).First(&booking, "id = ?", bookingID).Error; err != nil {
		return nil, err
	}

	updates := map[string]any{"assigned_admin_id": adminID}
	if booking.Status == models.BookingPending {
		updates["status"] = models.BookingProcessing
	}
	if err := s.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", bookingID).
		Updates(updates).Error; err != nil {
		return nil, err
	}

	return s.load(ctx, bookingID)
}

// Unassign releases a claim and resets the booking to PENDING.
func (s *BookingService) Unassign(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error) {
	if err := s.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", bookingID).
		Updates(map[string]any{
			"assigned_admin_id": nil,
			"status":            models.BookingPending,
			"payment_due_date":  nil,
		}).Error; err != nil {
		return nil, err
	}

	s.notifications.NotifyAdmins(ctx,
		fmt.Sprintf("Booking %s has been unassigned and is available again", bookingID), "BOOKING_UPDATE")

	return s.load(ctx, bookingID)
}

// CancelExpired force-cancels every CONFIRMED booking whose payment deadline
// lies before now. Each booking is handled independently: one failure never
// aborts the rest of the batch. Returns the number of cancelled bookings.
func (s *BookingService) CancelExpired(ctx context.Context, now time.Time) int {
	var expired []models.Booking
	if err := s.db.WithContext(ctx).
		Where("status = ? AND payment_due_date IS NOT NULL AND payment_due_date < ?", models.BookingConfirmed, now).
		Find(&expired).Error; err != nil {
		log.Printf("[Sweep] failed to query expired bookings: %v", err)
		return 0
	}

	cancelled := 0
	for _, booking := range expired {
		done, err := s.cancelIfExpired(ctx, booking.ID, now)
		if err != nil {
			log.Printf("[Sweep] failed to cancel expired booking %s: %v", booking.ID, err)
			continue
		}
		if done {
			cancelled++
		}
	}

	if cancelled > 0 {
		log.Printf("[Sweep] cancelled %d expired booking(s)", cancelled)
	}
	return cancelled
}

// cancelIfExpired cancels one booking only if it is still CONFIRMED with a
// past payment deadline at write time. The precondition lives in the WHERE
// clause: a payment that lands between the sweep's scan and this write moves
// the booking to IN_PROGRESS and makes the update match zero rows instead of
// cancelling a paid booking.
func (s *BookingService) cancelIfExpired(ctx context.Context, bookingID uuid.UUID, now time.Time) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ? AND payment_due_date IS NOT NULL AND payment_due_date < ?",
			bookingID, models.BookingConfirmed, now).
		Updates(map[string]any{
			"status":           models.BookingCancelled,
			"payment_due_date": nil,
			"version":          gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		// Another writer got there first; whatever it did wins.
		return false, nil
	}

	updated, err := s.load(ctx, bookingID)
	if err != nil {
		log.Printf("[Sweep] cancelled booking %s but could not load it for notifications: %v", bookingID, err)
		return true, nil
	}
	s.dispatchTransitionEffects(ctx, updated, true)
	return true, nil
}

// StartExpirySweep runs CancelExpired at a fixed interval until ctx is done.
// Every run takes a fresh read of "now".
func (s *BookingService) StartExpirySweep(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CancelExpired(ctx, time.Now())
			}
		}
	}()
}

func (s *BookingService) load(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("Service").
		Preload("AssignedAdmin").
		First(&booking, "id = ?", bookingID).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// transition performs a version-checked status write plus the deadline and
// notification side effects attached to the target state.
func (s *BookingService) transition(ctx context.Context, bookingID uuid.UUID, target models.BookingStatus) (*models.Booking, error) {
	for attempt := 0; attempt < 3; attempt++ {
		var booking models.Booking
		if err := s.db.WithContext(ctx).
			Preload("Customer").
			Preload("Service").
			First(&booking, "id = ?", bookingID).Error; err != nil {
			return nil, err
		}

		if booking.Status == target {
			return &booking, nil
		}

		if !bookingTransitionAllowed(booking.Status, target) {
			return nil, &TransitionError{Entity: "booking", From: string(booking.Status), To: string(target)}
		}

		updates := map[string]any{
			"status":  target,
			"version": gorm.Expr("version + 1"),
		}
		if target == models.BookingConfirmed {
			deadline := time.Now().Add(PaymentWindow)
			updates["payment_due_date"] = deadline
		} else if booking.PaymentDueDate != nil {
			// Deadline is only meaningful while CONFIRMED.
			updates["payment_due_date"] = nil
		}

		res := s.db.WithContext(ctx).
			Model(&models.Booking{}).
			Where("id = ? AND version = ?", bookingID, booking.Version).
			Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			continue
		}

		updated, err := s.load(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		s.dispatchTransitionEffects(ctx, updated, false)
		return updated, nil
	}

	return nil, ErrVersionConflict
}

func (s *BookingService) dispatchTransitionEffects(ctx context.Context, booking *models.Booking, bySystem bool) {
	if booking.Customer == nil || booking.Service == nil {
		return
	}
	serviceName := booking.Service.Names.Get("en")

	switch booking.Status {
	case models.BookingConfirmed:
		s.mailer.SendBookingConfirmed(booking.Customer, booking, serviceName)
		s.notifications.NotifyAdmins(ctx,
			fmt.Sprintf("Booking %s confirmed. Awaiting payment.", booking.ID), "BOOKING_UPDATE")
	case models.BookingInProgress:
		s.mailer.SendBookingInProgress(booking.Customer, serviceName)
		s.notifications.NotifyAdmins(ctx,
			fmt.Sprintf("Payment received for booking %s. Work can begin.", booking.ID), "BOOKING_PAID")
	case models.BookingCompleted:
		s.mailer.SendBookingCompleted(booking.Customer, serviceName)
		s.notifications.NotifyAdmins(ctx,
			fmt.Sprintf("Booking %s has been marked as completed.", booking.ID), "BOOKING_UPDATE")
	case models.BookingCancelled:
		s.mailer.SendBookingCancelled(booking.Customer, serviceName, bySystem)
		kind := "BOOKING_UPDATE"
		message := fmt.Sprintf("Booking %s has been cancelled.", booking.ID)
		if bySystem {
			kind = "BOOKING_CANCELLED"
			message = fmt.Sprintf("Booking %s was auto-cancelled (payment expired).", booking.ID)
		}
		s.notifications.NotifyAdmins(ctx, message, kind)
		s.notifications.NotifyUser(ctx, booking.CustomerID,
			fmt.Sprintf("Your booking for %q was cancelled.", serviceName), kind)
	}
}
