package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/mediatower/internal/models"
)

func TestCreateBookingStartsPending(t *testing.T) {
	db := newTestDB(t)
	_, bookings := newTestStack(t, db)

	user := createTestUser(t, db, "customer@example.com")
	svc := createTestService(t, db, "Logo Design", 200)

	booking, err := bookings.CreateBooking(context.Background(), user.ID, svc.ID, "need it fast")
	require.NoError(t, err)

	assert.Equal(t, models.BookingPending, booking.Status)
	assert.Nil(t, booking.PaymentDueDate)
	assert.Equal(t, "need it fast", booking.CustomerNotes)
}

func TestConfirmBookingSetsPaymentDeadline(t *testing.T) {
	db := newTestDB(t)
	_, bookings := newTestStack(t, db)

	user := createTestUser(t, db, "customer@example.com")
	svc := createTestService(t, db, "Logo Design", 200)
	booking, err := bookings.CreateBooking(context.Background(), user.ID, svc.ID, "")
	require.NoError(t, err)

	confirmed, err := bookings.UpdateStatus(context.Background(), booking.ID, "CONFIRMED")
	require.NoError(t, err)

	require.NotNil(t, confirmed.PaymentDueDate)
	assert.WithinDuration(t, time.Now().Add(PaymentWindow), *confirmed.PaymentDueDate, 5*time.Second)
}

func TestConfirmPaymentMovesToInProgress(t *testing.T) {
	db := newTestDB(t)
	_, bookings := newTestStack(t, db)

	user := createTestUser(t, db, "customer@example.com")
	svc := createTestService(t, db, "Logo Design", 200)
	booking, err := bookings.CreateBooking(context.Background(), user.ID, svc.ID, "")
	require.NoError(t, err)

	_, err = bookings.UpdateStatus(context.Background(), booking.ID, "CONFIRMED")
	require.NoError(t, err)

	paid, err := bookings.ConfirmPayment(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingInProgress, paid.Status)
	assert.Nil(t, paid.PaymentDueDate)
}

func TestConfirmPaymentIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	_, bookings := newTestStack(t, db)

	user := createTestUser(t, db, "customer@example.com")
	svc := createTestService(t, db, "Logo Design", 200)
	booking, err := bookings.CreateBooking(context.Background(), user.ID, svc.ID, "")
	require.NoError(t, err)

	_, err = bookings.UpdateStatus(context.Background(), booking.ID, "CONFIRMED")
	require.NoError(t, err)
	_, err = bookings.ConfirmPayment(context.Background(), booking.ID)
	require.NoError(t, err)

	// A redelivered payment confirmation must not error or move the state.
	again, err := bookings.ConfirmPayment(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingInProgress, again.Status)
}

func TestConfirmPaymentBeforeConfirmationIsNoOp(t *testing.T) {
	db := newTestDB(t)
	_, bookings := newTestStack(t, db)

	user := createTestUser(t, db, "customer@example.com")
	svc := createTestService(t, db, "Logo Design", 200)
	booking, err := bookings.CreateBooking(context.Background(), user.ID, svc.ID, "")
	require.NoError(t, err)

	result, err := bookings.ConfirmPayment(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, result.Status)
}

func TestBookingTransitionRules(t *testing.T) {
	db := newTestDB(t)
	_, bookings := newTestStack(t, db)

	user := createTestUser(t, db, "customer@example.com")
	svc := createTestService(t, db, "Logo Design", 200)
	booking, err := bookings.CreateBooking(context.Background(), user.ID, svc.ID, "")
	require.NoError(t, err)

	// IN_PROGRESS is only reachable through payment confirmation from CONFIRMED.
	_, err = bookings.UpdateStatus(context.Background(), booking.ID, "COMPLETED")
	var transition *TransitionError
	assert.ErrorAs(t, err, &transition)

	_, err = bookings.UpdateStatus(context.Background(), booking.ID, "garbage")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestAssignClaimsBooking(t *testing.T) {
	db := newTestDB(t)
	_, bookings := newTestStack(t, db)

	user := createTestUser(t, db, "customer@example.com")
	admin := createTestUser(t, db, "admin@example.com")
	require.NoError(t, db.Model(admin).Update("role", models.RoleAdmin).Error)
	svc := createTestService(t, db, "Logo Design", 200)
	booking, err := bookings.CreateBooking(context.Background(), user.ID, svc.ID, "")
	require.NoError(t, err)

	claimed, err := bookings.Assign(context.Background(), booking.ID, admin.ID)
	require.NoError(t, err)
	require.NotNil(t, claimed.AssignedAdminID)
	assert.Equal(t, admin.ID, *claimed.AssignedAdminID)
	assert.Equal(t, models.BookingProcessing, claimed.Status)

	released, err := bookings.Unassign(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Nil(t, released.AssignedAdminID)
	assert.Equal(t, models.BookingPending, released.Status)
}

func TestCancelExpiredSweep(t *testing.T) {
	db := newTestDB(t)
	_, bookings := newTestStack(t, db)

	user := createTestUser(t, db, "customer@example.com")
	svc := createTestService(t, db, "Logo Design", 200)

	overdue, err := bookings.CreateBooking(context.Background(), user.ID, svc.ID, "")
	require.NoError(t, err)
	_, err = bookings.UpdateStatus(context.Background(), overdue.ID, "CONFIRMED")
	require.NoError(t, err)

	current, err := bookings.CreateBooking(context.Background(), user.ID, svc.ID, "")
	require.NoError(t, err)
	_, err = bookings.UpdateStatus(context.Background(), current.ID, "CONFIRMED")
	require.NoError(t, err)

	// Sweep from the vantage point of 49 hours later: the first deadline has
	// lapsed, a freshly confirmed one has not.
	stale := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(&models.Booking{}).
		Where("id = ?", overdue.ID).
		Update("payment_due_date", stale).Error)

	cancelled := bookings.CancelExpired(context.Background(), time.Now())
	assert.Equal(t, 1, cancelled)

	var first, second models.Booking
	require.NoError(t, db.First(&first, "id = ?", overdue.ID).Error)
	require.NoError(t, db.First(&second, "id = ?", current.ID).Error)
	assert.Equal(t, models.BookingCancelled, first.Status)
	assert.Equal(t, models.BookingConfirmed, second.Status)
}

func TestCancelExpiredIgnoresUnconfirmed(t *testing.T) {
	db := newTestDB(t)
	_, bookings := newTestStack(t, db)

	user := createTestUser(t, db, "customer@example.com")
	svc := createTestService(t, db, "Logo Design", 200)

	booking, err := bookings.CreateBooking(context.Background(), user.ID, svc.ID, "")
	require.NoError(t, err)

	cancelled := bookings.CancelExpired(context.Background(), time.Now().Add(100*time.Hour))
	assert.Zero(t, cancelled)

	var stored models.Booking
	require.NoError(t, db.First(&stored, "id = ?", booking.ID).Error)
	assert.Equal(t, models.BookingPending, stored.Status)
}

func TestSweepDoesNotCancelPaidBooking(t *testing.T) {
	db := newTestDB(t)
	_, bookings := newTestStack(t, db)

	user := createTestUser(t, db, "customer@example.com")
	svc := createTestService(t, db, "Logo Design", 200)

	booking, err := bookings.CreateBooking(context.Background(), user.ID, svc.ID, "")
	require.NoError(t, err)
	_, err = bookings.UpdateStatus(context.Background(), booking.ID, "CONFIRMED")
	require.NoError(t, err)

	// Deadline already lapsed when the sweep scans.
	now := time.Now()
	require.NoError(t, db.Model(&models.Booking{}).
		Where("id = ?", booking.ID).
		Update("payment_due_date", now.Add(-time.Hour)).Error)

	// The payment webhook lands between the sweep's scan and its write.
	_, err = bookings.ConfirmPayment(context.Background(), booking.ID)
	require.NoError(t, err)

	done, err := bookings.cancelIfExpired(context.Background(), booking.ID, now)
	require.NoError(t, err)
	assert.False(t, done)

	var stored models.Booking
	require.NoError(t, db.First(&stored, "id = ?", booking.ID).Error)
	assert.Equal(t, models.BookingInProgress, stored.Status,
		"a booking paid during the sweep must keep its payment")
}
