package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem holds one variant plus the buyer's per-side design payloads.
// Designs are stored as serialized JSON so they round-trip byte-for-byte.
type CartItem struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CartID          uuid.UUID `gorm:"column:cart_id;type:uuid;not null;index"`
	VariantID       uuid.UUID `gorm:"column:variant_id;type:uuid;not null;index"`
	Quantity        int       `gorm:"column:quantity;not null"`
	FrontDesign     *string   `gorm:"column:front_design;type:text"`
	BackDesign      *string   `gorm:"column:back_design;type:text"`
	FrontPreviewURL *string   `gorm:"column:front_preview_url"`
	BackPreviewURL  *string   `gorm:"column:back_preview_url"`
	Variant         *Variant  `gorm:"foreignKey:VariantID"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
