package models

import "github.com/google/uuid"

// Review is a product review. One review per (user, product); purchase
// required before reviewing.
type Review struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_review_user_product" json:"user_id"`
	User      *User     `json:"user,omitempty"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_review_user_product" json:"product_id"`
	Product   *Product  `json:"product,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment"`
}

// ServiceReview is a review left after a completed booking.
type ServiceReview struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_review_user_service" json:"user_id"`
	User      *User     `json:"user,omitempty"`
	ServiceID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_review_user_service" json:"service_id"`
	Service   *Service  `json:"service,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment"`
}
