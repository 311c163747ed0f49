package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserProductAccess grants a user durable download access to a product.
// The composite unique index is the authoritative guard against duplicate
// grants under concurrent webhook retries.
type UserProductAccess struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_product;not null" json:"user_id"`
	User      *User     `json:"user,omitempty"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_product;not null" json:"product_id"`
	Product   *Product  `json:"product,omitempty"`

	PurchaseDate    time.Time  `json:"purchase_date"`
	DownloadCount   int        `json:"download_count"`
	LastDownloadAt  *time.Time `json:"last_download_at"`
	AccessExpiresAt *time.Time `json:"access_expires_at"`
}

// BeforeCreate stamps the purchase date and the default 2-year expiry.
func (a *UserProductAccess) BeforeCreate(tx *gorm.DB) error {
	if err := a.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	if a.PurchaseDate.IsZero() {
		a.PurchaseDate = time.Now()
	}
	if a.AccessExpiresAt == nil {
		expires := a.PurchaseDate.AddDate(2, 0, 0)
		a.AccessExpiresAt = &expires
	}
	return nil
}

// Expired reports whether access has lapsed at the given instant.
func (a *UserProductAccess) Expired(now time.Time) bool {
	return a.AccessExpiresAt != nil && a.AccessExpiresAt.Before(now)
}

// WebhookEvent records a processed payment-provider event id so that
// at-least-once webhook delivery has at-most-once effect.
type WebhookEvent struct {
	EventID     string    `gorm:"primaryKey;size:128" json:"event_id"`
	Provider    string    `gorm:"size:16;index" json:"provider"`
	EventType   string    `gorm:"size:64" json:"event_type"`
	ProcessedAt time.Time `json:"processed_at"`
	CreatedAt   time.Time `json:"created_at"`
}
