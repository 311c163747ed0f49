package services

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/example/mediatower/internal/models"
)

// StripeService creates and verifies Stripe payment intents. The booking or
// order id travels in the intent metadata so the webhook can route the
// confirmation back to the right aggregate.
type StripeService struct {
	webhookSecret string
}

func NewStripeService(secretKey, webhookSecret string) *StripeService {
	stripe.Key = secretKey
	return &StripeService{webhookSecret: webhookSecret}
}

// CreateOrderIntent opens a payment intent covering the order total.
func (s *StripeService) CreateOrderIntent(order *models.Order) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toMinorUnits(order.TotalAmount)),
		Currency: stripe.String(string(stripe.CurrencyEUR)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("orderId", order.ID.String())

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("create order payment intent: %w", err)
	}
	return intent, nil
}

// CreateBookingIntent opens a payment intent for a confirmed booking.
func (s *StripeService) CreateBookingIntent(bookingID uuid.UUID, amount float64) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toMinorUnits(amount)),
		Currency: stripe.String(string(stripe.CurrencyEUR)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("bookingId", bookingID.String())

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("create booking payment intent: %w", err)
	}
	return intent, nil
}

// VerifyIntent fetches an intent from Stripe and reports whether it has
// actually succeeded. Used by the client-side confirmation fallback so the
// caller never has to trust the browser.
func (s *StripeService) VerifyIntent(intentID string) (*stripe.PaymentIntent, bool, error) {
	intent, err := paymentintent.Get(intentID, nil)
	if err != nil {
		return nil, false, fmt.Errorf("fetch payment intent %s: %w", intentID, err)
	}
	return intent, intent.Status == stripe.PaymentIntentStatusSucceeded, nil
}

// ConstructEvent verifies the Stripe-Signature header against the raw
// payload. API version drift between the dashboard and the SDK pin must not
// reject otherwise valid events.
func (s *StripeService) ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, sigHeader, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
}

// toMinorUnits converts a decimal amount to cents for the Stripe API.
func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
