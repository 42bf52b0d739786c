package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/inkforge/inkforge-backend/pkg/enums"
)

// Variant is the sellable unit of a product: a color/size combination with
// its own price, stock level, mockup images and printable area.
type Variant struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	Color     string          `gorm:"column:color;not null"`
	Size      enums.Size      `gorm:"column:size;type:text;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Stock     int             `gorm:"column:stock;not null;default:0"`

	FrontImageURL *string `gorm:"column:front_image_url"`
	BackImageURL  *string `gorm:"column:back_image_url"`

	// Print area as percentages of the mockup image, top-left anchored.
	PrintAreaTop    float64 `gorm:"column:print_area_top;not null;default:0"`
	PrintAreaLeft   float64 `gorm:"column:print_area_left;not null;default:0"`
	PrintAreaWidth  float64 `gorm:"column:print_area_width;not null;default:100"`
	PrintAreaHeight float64 `gorm:"column:print_area_height;not null;default:100"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
