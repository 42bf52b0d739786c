package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem snapshots a purchased variant: the unit price at order time and
// the design payloads exactly as submitted. FinalPrintFile is set once the
// compositor has produced the production-ready PNG.
type OrderItem struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID         uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	VariantID       uuid.UUID       `gorm:"column:variant_id;type:uuid;not null;index"`
	Quantity        int             `gorm:"column:quantity;not null"`
	Price           decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	FrontDesign     *string         `gorm:"column:front_design;type:text"`
	BackDesign      *string         `gorm:"column:back_design;type:text"`
	FrontPreviewURL *string         `gorm:"column:front_preview_url"`
	BackPreviewURL  *string         `gorm:"column:back_preview_url"`
	FinalPrintFile  *string         `gorm:"column:final_print_file"`
	Variant         *Variant        `gorm:"foreignKey:VariantID"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
