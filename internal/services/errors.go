package services

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced to handlers, which map them to HTTP status codes.
var (
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidQuantity     = errors.New("quantity must be at least 1")
	ErrEmptyOrder          = errors.New("cannot create an order with no items")
	ErrZeroTotal           = errors.New("order total amount must be greater than zero")
	ErrPromotionNotFound   = errors.New("promotion not found")
	ErrPromotionNotStarted = errors.New("promotion is not yet active")
	ErrPromotionExpired    = errors.New("promotion has expired")
	ErrPurchaseRequired    = errors.New("purchase required before reviewing")
	ErrAlreadyReviewed     = errors.New("already reviewed")
	ErrAccessExpired       = errors.New("access has expired")

	// ErrUnknownPaymentTarget marks a provider reference that names neither
	// an order nor a booking.
	ErrUnknownPaymentTarget = errors.New("unknown payment target")
)

// TransitionError reports a disallowed state-machine edge.
type TransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s transition %s -> %s is not allowed", e.Entity, e.From, e.To)
}
