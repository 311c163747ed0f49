package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderConfirmed  OrderStatus = "CONFIRMED"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
	OrderRefunded   OrderStatus = "REFUNDED"
)

// ParseOrderStatus maps a raw status string to an OrderStatus.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderPending, OrderConfirmed, OrderProcessing, OrderShipped,
		OrderDelivered, OrderCancelled, OrderRefunded:
		return OrderStatus(s), true
	}
	return "", false
}

type Order struct {
	BaseModel
	UserID         uuid.UUID   `gorm:"type:uuid;index" json:"user_id"`
	User           *User       `json:"user,omitempty"`
	OrderedAt      time.Time   `json:"ordered_at"`
	Status         OrderStatus `gorm:"type:varchar(16)" json:"status"`
	TotalAmount    float64     `json:"total_amount"`
	PromotionID    *uuid.UUID  `gorm:"type:uuid" json:"promotion_id"`
	Promotion      *Promotion  `json:"promotion,omitempty"`
	DiscountAmount float64     `json:"discount_amount"`
	Items          []OrderItem `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Payment        *Payment    `json:"payment,omitempty"`

	// Version guards concurrent status writes (checked-and-incremented on
	// every transition).
	Version int64 `json:"-"`
}

// OrderItem snapshots a purchased line at order time. Unit price and subtotal
// are immutable after creation.
type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID  `gorm:"type:uuid;index" json:"order_id"`
	ProductID *uuid.UUID `gorm:"type:uuid" json:"product_id"`
	PackID    *uuid.UUID `gorm:"type:uuid" json:"pack_id"`
	Name      string     `json:"name"`
	Quantity  int        `json:"quantity"`
	UnitPrice float64    `json:"unit_price"`
	Subtotal  float64    `json:"subtotal"`
}

// Payment methods and states.
const (
	PaymentMethodStripe = "STRIPE"
	PaymentMethodPayPal = "PAYPAL"
	PaymentMethodCOD    = "COD"

	PaymentPending   = "PENDING"
	PaymentCompleted = "COMPLETED"
	PaymentFailed    = "FAILED"
)

// Payment tracks the provider-side transaction for an order (one-to-one).
type Payment struct {
	BaseModel
	OrderID       uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"order_id"`
	Method        string    `json:"method"`
	TransactionID string    `json:"transaction_id"`
	Status        string    `gorm:"default:PENDING" json:"status"`
}
