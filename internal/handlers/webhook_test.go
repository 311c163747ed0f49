package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/mediatower/internal/database"
	"github.com/example/mediatower/internal/models"
	"github.com/example/mediatower/internal/services"
)

const testWebhookSecret = "whsec_test_secret"

type webhookFixture struct {
	app      *fiber.App
	db       *gorm.DB
	orders   *services.OrderService
	bookings *services.BookingService
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	mailer := services.NewEmailService("", "", "test@mediatower.example")
	notifications := services.NewNotificationService(db)
	promotions := services.NewPromotionService(db)
	delivery := services.NewDeliveryService(db, mailer, notifications)
	orders := services.NewOrderService(db, delivery, promotions)
	bookings := services.NewBookingService(db, mailer, notifications)
	payments := services.NewPaymentService(db, orders, bookings)
	stripeSvc := services.NewStripeService("sk_test_nothing", testWebhookSecret)

	handler := NewWebhookHandler(stripeSvc, payments)

	app := fiber.New()
	app.Post("/webhooks/stripe", handler.Stripe)
	app.Post("/webhooks/paypal", handler.PayPal)

	return &webhookFixture{app: app, db: db, orders: orders, bookings: bookings}
}

// signStripePayload builds a Stripe-Signature header the way Stripe does:
// HMAC-SHA256 over "<timestamp>.<payload>".
func signStripePayload(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func (f *webhookFixture) createPendingOrder(t *testing.T) *models.Order {
	t.Helper()

	user := models.User{Email: "buyer@example.com", FirstName: "Buyer", Role: models.RoleUser}
	require.NoError(t, f.db.Create(&user).Error)
	product := models.Product{Names: models.Translations{"en": "Logo Pack"}, Price: 50, IsActive: true}
	require.NoError(t, f.db.Create(&product).Error)

	order, err := f.orders.CreateOrder(context.Background(), user.ID, []services.OrderLineInput{
		{ProductID: &product.ID, Quantity: 1},
	}, "")
	require.NoError(t, err)
	return order
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	f := newWebhookFixture(t)

	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signStripePayload(payload, "wrong_secret", time.Now()))

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStripeWebhookRejectsStaleTimestamp(t *testing.T) {
	f := newWebhookFixture(t)

	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signStripePayload(payload, testWebhookSecret, time.Now().Add(-time.Hour)))

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStripeWebhookConfirmsOrder(t *testing.T) {
	f := newWebhookFixture(t)
	order := f.createPendingOrder(t)

	payload := []byte(fmt.Sprintf(
		`{"id":"evt_confirm_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","metadata":{"orderId":%q}}}}`,
		order.ID))
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signStripePayload(payload, testWebhookSecret, time.Now()))

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var stored models.Order
	require.NoError(t, f.db.First(&stored, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderDelivered, stored.Status)

	var grants int64
	require.NoError(t, f.db.Model(&models.UserProductAccess{}).Count(&grants).Error)
	assert.EqualValues(t, 1, grants)
}

func TestStripeWebhookRedeliveryIsHarmless(t *testing.T) {
	f := newWebhookFixture(t)
	order := f.createPendingOrder(t)

	payload := []byte(fmt.Sprintf(
		`{"id":"evt_confirm_2","type":"payment_intent.succeeded","data":{"object":{"id":"pi_2","metadata":{"orderId":%q}}}}`,
		order.ID))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
		req.Header.Set("Stripe-Signature", signStripePayload(payload, testWebhookSecret, time.Now()))
		resp, err := f.app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	var grants int64
	require.NoError(t, f.db.Model(&models.UserProductAccess{}).Count(&grants).Error)
	assert.EqualValues(t, 1, grants)

	var events int64
	require.NoError(t, f.db.Model(&models.WebhookEvent{}).Count(&events).Error)
	assert.EqualValues(t, 1, events)
}

func TestPayPalWebhookConfirmsBooking(t *testing.T) {
	f := newWebhookFixture(t)

	user := models.User{Email: "customer@example.com", FirstName: "Customer", Role: models.RoleUser}
	require.NoError(t, f.db.Create(&user).Error)
	svc := models.Service{Names: models.Translations{"en": "Logo Design"}, Price: 200, IsActive: true}
	require.NoError(t, f.db.Create(&svc).Error)

	booking, err := f.bookings.CreateBooking(context.Background(), user.ID, svc.ID, "")
	require.NoError(t, err)
	_, err = f.bookings.UpdateStatus(context.Background(), booking.ID, "CONFIRMED")
	require.NoError(t, err)

	payload := []byte(fmt.Sprintf(
		`{"id":"WH-1","event_type":"CHECKOUT.ORDER.APPROVED","resource":{"id":"5O1","purchase_units":[{"custom_id":"booking-%s"}]}}`,
		booking.ID))
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paypal", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var stored models.Booking
	require.NoError(t, f.db.First(&stored, "id = ?", booking.ID).Error)
	assert.Equal(t, models.BookingInProgress, stored.Status)
}

func TestPayPalWebhookRejectsEmptyPayload(t *testing.T) {
	f := newWebhookFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/paypal", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStripeWebhookReleasesEventOnTransientFailure(t *testing.T) {
	f := newWebhookFixture(t)
	order := f.createPendingOrder(t)

	payload := []byte(fmt.Sprintf(
		`{"id":"evt_transient_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_3","metadata":{"orderId":%q}}}}`,
		order.ID))

	// Take the entitlement table away so the delivery grant fails mid-flight.
	require.NoError(t, f.db.Migrator().DropTable(&models.UserProductAccess{}))

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signStripePayload(payload, testWebhookSecret, time.Now()))
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	// The ledger entry must be released so the provider's retry is processed.
	var events int64
	require.NoError(t, f.db.Model(&models.WebhookEvent{}).Count(&events).Error)
	assert.Zero(t, events)

	// Once the fault clears, the redelivered event completes the order.
	require.NoError(t, f.db.Migrator().CreateTable(&models.UserProductAccess{}))

	req = httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signStripePayload(payload, testWebhookSecret, time.Now()))
	resp, err = f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var stored models.Order
	require.NoError(t, f.db.First(&stored, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderDelivered, stored.Status)

	var grants int64
	require.NoError(t, f.db.Model(&models.UserProductAccess{}).Count(&grants).Error)
	assert.EqualValues(t, 1, grants)
}

func TestStripeWebhookKeepsLedgerOnPermanentFailure(t *testing.T) {
	f := newWebhookFixture(t)
	order := f.createPendingOrder(t)

	_, err := f.orders.UpdateStatus(context.Background(), order.ID, "CANCELLED")
	require.NoError(t, err)

	payload := []byte(fmt.Sprintf(
		`{"id":"evt_permanent_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_4","metadata":{"orderId":%q}}}}`,
		order.ID))
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signStripePayload(payload, testWebhookSecret, time.Now()))

	// A cancelled order can never accept the confirmation; the provider gets
	// a 200 so it stops retrying, and the event stays recorded.
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var events int64
	require.NoError(t, f.db.Model(&models.WebhookEvent{}).Count(&events).Error)
	assert.EqualValues(t, 1, events)

	var stored models.Order
	require.NoError(t, f.db.First(&stored, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderCancelled, stored.Status)
}
