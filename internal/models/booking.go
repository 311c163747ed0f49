package models

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus is the lifecycle state of a service booking.
type BookingStatus string

const (
	BookingPending    BookingStatus = "PENDING"
	BookingProcessing BookingStatus = "PROCESSING"
	BookingConfirmed  BookingStatus = "CONFIRMED"
	BookingInProgress BookingStatus = "IN_PROGRESS"
	BookingCompleted  BookingStatus = "COMPLETED"
	BookingCancelled  BookingStatus = "CANCELLED"
)

// ParseBookingStatus maps a raw status string to a BookingStatus.
func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingPending, BookingProcessing, BookingConfirmed,
		BookingInProgress, BookingCompleted, BookingCancelled:
		return BookingStatus(s), true
	}
	return "", false
}

type Booking struct {
	BaseModel
	CustomerID uuid.UUID     `gorm:"type:uuid;index" json:"customer_id"`
	Customer   *User         `json:"customer,omitempty"`
	ServiceID  uuid.UUID     `gorm:"type:uuid;index" json:"service_id"`
	Service    *Service      `json:"service,omitempty"`
	Status     BookingStatus `gorm:"type:varchar(16)" json:"status"`

	AssignedAdminID *uuid.UUID `gorm:"type:uuid" json:"assigned_admin_id"`
	AssignedAdmin   *User      `json:"assigned_admin,omitempty"`

	// PaymentDueDate is set only while Status == CONFIRMED and cleared on any
	// transition away from it.
	PaymentDueDate *time.Time `json:"payment_due_date"`

	CustomerNotes string `gorm:"type:text" json:"customer_notes"`

	Version int64 `json:"-"`
}
