package models

import "github.com/google/uuid"

// Product is a digital product delivered as downloadable media.
type Product struct {
	BaseModel
	Names        Translations   `gorm:"type:jsonb" json:"names"`
	Descriptions Translations   `gorm:"type:jsonb" json:"descriptions"`
	Price        float64        `json:"price"`
	CategoryID   *uuid.UUID     `gorm:"type:uuid" json:"category_id"`
	Category     *Category      `json:"category,omitempty"`
	Tags         []Tag          `gorm:"many2many:product_tags;" json:"tags,omitempty"`
	Media        []ProductMedia `json:"media,omitempty"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
}

// ProductMedia is an uploaded asset stored in the object store.
type ProductMedia struct {
	BaseModel
	ProductID   uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	FileName    string    `json:"file_name"`
	StorageKey  string    `json:"-"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	IsPrimary   bool      `json:"is_primary"`
}
