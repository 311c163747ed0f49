package handlers

import (
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/mediatower/internal/models"
	"github.com/example/mediatower/internal/services"
)

// WebhookHandler receives asynchronous payment notifications. Signature
// verification happens before anything else; a processed-event ledger makes
// redelivery harmless. Events that can never route (bad payload, disallowed
// transition) get a 200 so the provider stops retrying them; a transient
// dispatch failure releases the ledger entry and answers 500 so the provider
// redelivers.
type WebhookHandler struct {
	stripe   *services.StripeService
	payments *services.PaymentService
}

// NewWebhookHandler constructs WebhookHandler.
func NewWebhookHandler(stripe *services.StripeService, payments *services.PaymentService) *WebhookHandler {
	return &WebhookHandler{stripe: stripe, payments: payments}
}

// Stripe handles Stripe webhook deliveries.
func (h *WebhookHandler) Stripe(c *fiber.Ctx) error {
	event, err := h.stripe.ConstructEvent(c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		log.Printf("[Webhook] stripe signature verification failed: %v", err)
		return fiber.NewError(fiber.StatusBadRequest, "invalid signature")
	}

	fresh, err := h.payments.MarkEventProcessed(c.Context(), models.PaymentMethodStripe, event.ID, string(event.Type))
	if err != nil {
		// Without the dedup record we cannot safely process; ask for redelivery.
		return fiber.NewError(fiber.StatusInternalServerError, "failed to record event")
	}
	if !fresh {
		log.Printf("[Webhook] stripe event %s already processed", event.ID)
		return c.SendString("Received")
	}

	if event.Type == "payment_intent.succeeded" {
		var intent struct {
			ID       string            `json:"id"`
			Metadata map[string]string `json:"metadata"`
		}
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			log.Printf("[Webhook] stripe event %s has malformed payload: %v", event.ID, err)
			return c.SendString("Received")
		}

		kind, id, err := metadataTarget(intent.Metadata)
		if err != nil {
			log.Printf("[Webhook] stripe event %s carries no routable metadata", event.ID)
			return c.SendString("Received")
		}

		return h.finishDispatch(c, models.PaymentMethodStripe, event.ID, kind, id, intent.ID)
	}

	return c.SendString("Received")
}

// finishDispatch routes a recorded event to the state machines and picks the
// provider's response. A permanent failure keeps the ledger entry; a
// transient one releases it so the redelivery gets another attempt.
func (h *WebhookHandler) finishDispatch(c *fiber.Ctx, provider, eventID, kind string, id uuid.UUID, providerRef string) error {
	err := h.payments.Dispatch(c.Context(), kind, id, provider, providerRef)
	if err == nil {
		return c.SendString("Received")
	}

	if services.PermanentDispatchError(err) {
		log.Printf("[Webhook] %s event %s cannot be dispatched: %v", provider, eventID, err)
		return c.SendString("Received")
	}

	log.Printf("[Webhook] %s event %s dispatch failed, releasing for redelivery: %v", provider, eventID, err)
	if forgetErr := h.payments.ForgetEvent(c.Context(), provider, eventID); forgetErr != nil {
		log.Printf("[Webhook] %s event %s could not be released: %v", provider, eventID, forgetErr)
	}
	return fiber.NewError(fiber.StatusInternalServerError, "payment confirmation failed")
}

type paypalWebhookPayload struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	Resource  struct {
		ID            string `json:"id"`
		CustomID      string `json:"custom_id"`
		PurchaseUnits []struct {
			CustomID string `json:"custom_id"`
		} `json:"purchase_units"`
	} `json:"resource"`
}

// PayPal handles PayPal webhook deliveries.
func (h *WebhookHandler) PayPal(c *fiber.Ctx) error {
	var payload paypalWebhookPayload
	if err := c.BodyParser(&payload); err != nil || payload.ID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}

	fresh, err := h.payments.MarkEventProcessed(c.Context(), models.PaymentMethodPayPal, payload.ID, payload.EventType)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to record event")
	}
	if !fresh {
		log.Printf("[Webhook] paypal event %s already processed", payload.ID)
		return c.SendString("Received")
	}

	if payload.EventType == "CHECKOUT.ORDER.APPROVED" || payload.EventType == "PAYMENT.CAPTURE.COMPLETED" {
		customID := payload.Resource.CustomID
		if customID == "" && len(payload.Resource.PurchaseUnits) > 0 {
			customID = payload.Resource.PurchaseUnits[0].CustomID
		}

		kind, id, err := services.ParseCustomID(customID)
		if err != nil {
			log.Printf("[Webhook] paypal event %s carries no routable custom_id", payload.ID)
			return c.SendString("Received")
		}

		return h.finishDispatch(c, models.PaymentMethodPayPal, payload.ID, kind, id, payload.Resource.ID)
	}

	return c.SendString("Received")
}
