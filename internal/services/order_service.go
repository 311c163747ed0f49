package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/mediatower/internal/models"
)

// orderTransitions is the explicit transition table for the order lifecycle.
// DELIVERED, CANCELLED and REFUNDED are terminal.
var orderTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderPending:    {models.OrderConfirmed, models.OrderProcessing, models.OrderShipped, models.OrderDelivered, models.OrderCancelled},
	models.OrderConfirmed:  {models.OrderProcessing, models.OrderShipped, models.OrderDelivered, models.OrderRefunded},
	models.OrderProcessing: {models.OrderShipped, models.OrderDelivered, models.OrderRefunded},
	models.OrderShipped:    {models.OrderDelivered, models.OrderRefunded},
	models.OrderDelivered:  {},
	models.OrderCancelled:  {},
	models.OrderRefunded:   {},
}

func orderTransitionAllowed(from, to models.OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OrderService manages order creation and the order state machine.
type OrderService struct {
	db         *gorm.DB
	delivery   *DeliveryService
	promotions *PromotionService
}

func NewOrderService(db *gorm.DB, delivery *DeliveryService, promotions *PromotionService) *OrderService {
	return &OrderService{db: db, delivery: delivery, promotions: promotions}
}

// OrderLineInput is a requested order line. Exactly one of ProductID or
// PackID must be set.
type OrderLineInput struct {
	ProductID *uuid.UUID
	PackID    *uuid.UUID
	Quantity  int
}

// CreateOrder snapshots current prices into order lines, applies an optional
// promo code and persists the order in PENDING state.
func (s *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, lines []OrderLineInput, promoCode string) (*models.Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}

	order := models.Order{
		UserID:    userID,
		OrderedAt: time.Now(),
		Status:    models.OrderPending,
	}

	var subtotal float64
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}

		item := models.OrderItem{Quantity: line.Quantity}
		switch {
		case line.ProductID != nil:
			var product models.Product
			if err := s.db.WithContext(ctx).First(&product, "id = ?", *line.ProductID).Error; err != nil {
				return nil, fmt.Errorf("load product %s: %w", *line.ProductID, err)
			}
			item.ProductID = &product.ID
			item.Name = product.Names.Get("en")
			item.UnitPrice = product.Price
		case line.PackID != nil:
			var pack models.ProductPack
			if err := s.db.WithContext(ctx).First(&pack, "id = ?", *line.PackID).Error; err != nil {
				return nil, fmt.Errorf("load pack %s: %w", *line.PackID, err)
			}
			item.PackID = &pack.ID
			item.Name = pack.Names.Get("en")
			item.UnitPrice = pack.Price
		default:
			return nil, ErrEmptyOrder
		}

		item.Subtotal = item.UnitPrice * float64(item.Quantity)
		subtotal += item.Subtotal
		order.Items = append(order.Items, item)
	}

	if subtotal <= 0 {
		return nil, ErrZeroTotal
	}
	order.TotalAmount = subtotal

	if strings.TrimSpace(promoCode) != "" {
		promo, err := s.promotions.ValidateCode(ctx, promoCode)
		if err != nil {
			return nil, err
		}
		order.PromotionID = &promo.ID
		order.DiscountAmount = s.promotions.ComputeDiscount(subtotal, promo)
		order.TotalAmount = subtotal - order.DiscountAmount
		// A promotion may reduce the total but never to nothing: there has to
		// be something left to charge.
		if order.TotalAmount <= 0 {
			return nil, ErrZeroTotal
		}
	}

	if err := s.db.WithContext(ctx).Create(&order).Error; err != nil {
		return nil, err
	}

	return &order, nil
}

// UpdateStatus drives the order state machine. Setting the current status is a
// no-op; CONFIRMED triggers the delivery grant synchronously and the returned
// order is DELIVERED. Writes are version-checked and retried on lost races.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, rawStatus string) (*models.Order, error) {
	target, ok := models.ParseOrderStatus(strings.ToUpper(strings.TrimSpace(rawStatus)))
	if !ok {
		return nil, ErrInvalidStatus
	}

	for attempt := 0; attempt < 3; attempt++ {
		var order models.Order
		if err := s.db.WithContext(ctx).
			Preload("Items").
			First(&order, "id = ?", orderID).Error; err != nil {
			return nil, err
		}

		if order.Status == target {
			// An order stuck in CONFIRMED means an earlier delivery attempt
			// was interrupted; a redelivered confirmation resumes it.
			if target == models.OrderConfirmed {
				delivered, err := s.delivery.ProcessOrderDelivery(ctx, &order)
				if err != nil {
					if errors.Is(err, ErrVersionConflict) {
						continue
					}
					return nil, err
				}
				return delivered, nil
			}
			return &order, nil
		}

		// A confirmation retry for an already-fulfilled order is a no-op, not
		// an error: delivery moved it past CONFIRMED.
		if target == models.OrderConfirmed && order.Status == models.OrderDelivered {
			return &order, nil
		}

		if !orderTransitionAllowed(order.Status, target) {
			return nil, &TransitionError{Entity: "order", From: string(order.Status), To: string(target)}
		}

		if err := advanceOrderStatus(s.db.WithContext(ctx), &order, target); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				continue
			}
			return nil, err
		}

		if target == models.OrderConfirmed {
			delivered, err := s.delivery.ProcessOrderDelivery(ctx, &order)
			if err != nil {
				if errors.Is(err, ErrVersionConflict) {
					continue
				}
				return nil, err
			}
			return delivered, nil
		}

		return &order, nil
	}

	return nil, ErrVersionConflict
}

// HasPurchasedProduct reports whether the user holds an entitlement for the
// product, which is the precondition for reviewing it.
func (s *OrderService) HasPurchasedProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.UserProductAccess{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	return count > 0, err
}
