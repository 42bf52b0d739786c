package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/inkforge/inkforge-backend/pkg/enums"
)

// Product represents a printable catalog listing. Sellable configuration
// (color, size, price, stock) lives on its variants.
type Product struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Name        string                `gorm:"column:name;not null"`
	Description *string               `gorm:"column:description"`
	Category    enums.ProductCategory `gorm:"column:category;type:text;not null"`
	IsActive    bool                  `gorm:"column:is_active;not null;default:true"`
	Variants    []Variant             `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
