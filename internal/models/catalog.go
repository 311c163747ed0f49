package models

import "github.com/google/uuid"

type Category struct {
	BaseModel
	Names        Translations `gorm:"type:jsonb" json:"names"`
	Descriptions Translations `gorm:"type:jsonb" json:"descriptions"`
	Products     []Product    `json:"products,omitempty"`
}

type Tag struct {
	BaseModel
	Names    Translations `gorm:"type:jsonb" json:"names"`
	Products []Product    `gorm:"many2many:product_tags;" json:"products,omitempty"`
}

// Service is a bookable offering (design work, installation, ...).
type Service struct {
	BaseModel
	Names        Translations `gorm:"type:jsonb" json:"names"`
	Descriptions Translations `gorm:"type:jsonb" json:"descriptions"`
	Price        float64      `json:"price"`
	IsActive     bool         `gorm:"default:true" json:"is_active"`
}

// ProductPack bundles several products sold as one order line. Confirming an
// order line that references a pack grants access to every child product.
type ProductPack struct {
	BaseModel
	Names        Translations `gorm:"type:jsonb" json:"names"`
	Descriptions Translations `gorm:"type:jsonb" json:"descriptions"`
	Price        float64      `json:"price"`
	CategoryID   *uuid.UUID   `gorm:"type:uuid" json:"category_id"`
	Products     []Product    `gorm:"many2many:pack_products;" json:"products,omitempty"`
}
