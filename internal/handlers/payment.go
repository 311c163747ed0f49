package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/mediatower/internal/middleware"
	"github.com/example/mediatower/internal/models"
	"github.com/example/mediatower/internal/services"
)

// PaymentHandler creates provider checkouts and handles the client-side
// confirmation fallback. Every confirmation path re-verifies with the
// provider before touching order or booking state.
type PaymentHandler struct {
	db       *gorm.DB
	stripe   *services.StripeService
	paypal   *services.PayPalService
	payments *services.PaymentService
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(db *gorm.DB, stripe *services.StripeService, paypal *services.PayPalService, payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{db: db, stripe: stripe, paypal: paypal, payments: payments}
}

// CreateOrderIntent opens a Stripe payment intent for a pending order owned
// by the caller.
func (h *PaymentHandler) CreateOrderIntent(c *fiber.Ctx) error {
	order, err := h.loadOwnOrder(c)
	if err != nil {
		return err
	}
	if order.Status != models.OrderPending {
		return fiber.NewError(fiber.StatusConflict, "order is not awaiting payment")
	}

	intent, err := h.stripe.CreateOrderIntent(order)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "failed to create payment intent")
	}

	if err := h.ensurePayment(order.ID, models.PaymentMethodStripe, intent.ID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"client_secret": intent.ClientSecret,
		"intent_id":     intent.ID,
	})
}

// CreateBookingIntent opens a Stripe payment intent for a confirmed booking
// owned by the caller.
func (h *PaymentHandler) CreateBookingIntent(c *fiber.Ctx) error {
	booking, err := h.loadOwnBooking(c)
	if err != nil {
		return err
	}
	if booking.Status != models.BookingConfirmed {
		return fiber.NewError(fiber.StatusConflict, "booking is not awaiting payment")
	}

	intent, err := h.stripe.CreateBookingIntent(booking.ID, booking.Service.Price)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "failed to create payment intent")
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"client_secret": intent.ClientSecret,
		"intent_id":     intent.ID,
	})
}

type confirmIntentRequest struct {
	IntentID string `json:"intent_id"`
}

// ConfirmStripe is the fallback path when the webhook is delayed: the client
// reports success and the backend verifies the intent with Stripe before
// confirming.
func (h *PaymentHandler) ConfirmStripe(c *fiber.Ctx) error {
	var req confirmIntentRequest
	if err := c.BodyParser(&req); err != nil || req.IntentID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "intent_id is required")
	}

	intent, succeeded, err := h.stripe.VerifyIntent(req.IntentID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "failed to verify payment intent")
	}
	if !succeeded {
		return fiber.NewError(fiber.StatusConflict, "payment has not succeeded")
	}

	kind, id, err := metadataTarget(intent.Metadata)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "intent is missing order or booking metadata")
	}

	if err := h.payments.Dispatch(c.Context(), kind, id, models.PaymentMethodStripe, intent.ID); err != nil {
		return mapServiceError(err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// CreateOrderCheckout opens a PayPal checkout for a pending order.
func (h *PaymentHandler) CreateOrderCheckout(c *fiber.Ctx) error {
	order, err := h.loadOwnOrder(c)
	if err != nil {
		return err
	}
	if order.Status != models.OrderPending {
		return fiber.NewError(fiber.StatusConflict, "order is not awaiting payment")
	}

	checkout, err := h.paypal.CreateCheckout(services.OrderCustomID(order.ID), order.TotalAmount, "EUR")
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "failed to create PayPal checkout")
	}

	if err := h.ensurePayment(order.ID, models.PaymentMethodPayPal, checkout.ID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "checkout_id": checkout.ID})
}

// CreateBookingCheckout opens a PayPal checkout for a confirmed booking.
func (h *PaymentHandler) CreateBookingCheckout(c *fiber.Ctx) error {
	booking, err := h.loadOwnBooking(c)
	if err != nil {
		return err
	}
	if booking.Status != models.BookingConfirmed {
		return fiber.NewError(fiber.StatusConflict, "booking is not awaiting payment")
	}

	checkout, err := h.paypal.CreateCheckout(services.BookingCustomID(booking.ID), booking.Service.Price, "EUR")
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "failed to create PayPal checkout")
	}

	return c.JSON(fiber.Map{"success": true, "checkout_id": checkout.ID})
}

type captureRequest struct {
	CheckoutID string `json:"checkout_id"`
}

// CapturePayPal captures an approved checkout and confirms the matching
// order or booking.
func (h *PaymentHandler) CapturePayPal(c *fiber.Ctx) error {
	var req captureRequest
	if err := c.BodyParser(&req); err != nil || req.CheckoutID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "checkout_id is required")
	}

	captured, err := h.paypal.Capture(req.CheckoutID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "failed to capture PayPal order")
	}
	if captured.Status != "COMPLETED" {
		return fiber.NewError(fiber.StatusConflict, "payment has not completed")
	}
	if len(captured.PurchaseUnits) == 0 {
		return fiber.NewError(fiber.StatusBadGateway, "capture response missing purchase units")
	}

	kind, id, err := services.ParseCustomID(captured.PurchaseUnits[0].CustomID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "unrecognized checkout reference")
	}

	if err := h.payments.Dispatch(c.Context(), kind, id, models.PaymentMethodPayPal, captured.ID); err != nil {
		return mapServiceError(err)
	}

	return c.JSON(fiber.Map{"success": true})
}

func (h *PaymentHandler) loadOwnOrder(c *fiber.Ctx) (*models.Order, error) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var order models.Order
	if err := h.db.First(&order, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, fiber.NewError(fiber.StatusForbidden, "not your order")
	}
	return &order, nil
}

func (h *PaymentHandler) loadOwnBooking(c *fiber.Ctx) (*models.Booking, error) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var booking models.Booking
	if err := h.db.Preload("Service").First(&booking, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fiber.NewError(fiber.StatusNotFound, "booking not found")
		}
		return nil, err
	}
	if booking.CustomerID != userID {
		return nil, fiber.NewError(fiber.StatusForbidden, "not your booking")
	}
	if booking.Service == nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "booking has no service")
	}
	return &booking, nil
}

// ensurePayment creates or refreshes the pending payment row for an order.
func (h *PaymentHandler) ensurePayment(orderID uuid.UUID, method, transactionID string) error {
	var payment models.Payment
	err := h.db.Where("order_id = ?", orderID).First(&payment).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		payment = models.Payment{
			OrderID:       orderID,
			Method:        method,
			TransactionID: transactionID,
			Status:        models.PaymentPending,
		}
		return h.db.Create(&payment).Error
	case err != nil:
		return err
	}

	if payment.Status == models.PaymentCompleted {
		return fiber.NewError(fiber.StatusConflict, "order is already paid")
	}
	return h.db.Model(&payment).Updates(map[string]any{
		"method":         method,
		"transaction_id": transactionID,
	}).Error
}

// metadataTarget extracts the order or booking reference from Stripe intent
// metadata.
func metadataTarget(metadata map[string]string) (string, uuid.UUID, error) {
	if raw, ok := metadata["orderId"]; ok {
		id, err := uuid.Parse(raw)
		return "order", id, err
	}
	if raw, ok := metadata["bookingId"]; ok {
		id, err := uuid.Parse(raw)
		return "booking", id, err
	}
	return "", uuid.Nil, errors.New("no order or booking reference in metadata")
}
