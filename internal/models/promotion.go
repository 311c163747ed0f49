package models

import "time"

// Discount types.
const (
	DiscountPercentage  = "PERCENTAGE"
	DiscountFixedAmount = "FIXED_AMOUNT"
)

// Promotion is a discount campaign. A nil code marks an automatic promotion
// applied by product/service/pack membership; coded promotions are looked up
// case-insensitively (codes are normalized to uppercase on write).
type Promotion struct {
	BaseModel
	Code          *string    `gorm:"uniqueIndex" json:"code"`
	Description   string     `json:"description"`
	DiscountType  string     `json:"discount_type"`
	DiscountValue float64    `json:"discount_value"`
	StartDate     *time.Time `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
	IsActive      bool       `gorm:"default:true" json:"is_active"`

	ApplicableProducts []Product     `gorm:"many2many:promotion_products;" json:"applicable_products,omitempty"`
	ApplicableServices []Service     `gorm:"many2many:promotion_services;" json:"applicable_services,omitempty"`
	ApplicablePacks    []ProductPack `gorm:"many2many:promotion_packs;" json:"applicable_packs,omitempty"`
}
