package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/inkforge/inkforge-backend/pkg/enums"
)

// Order is a placed purchase. UserID is nullable: guest checkouts carry only
// the customer snapshot fields.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID        *uuid.UUID          `gorm:"column:user_id;type:uuid;index"`
	CustomerName  string              `gorm:"column:customer_name;not null"`
	CustomerPhone string              `gorm:"column:customer_phone;not null"`
	Region        string              `gorm:"column:region;not null"`
	Address       string              `gorm:"column:address;not null"`
	Status        enums.OrderStatus   `gorm:"column:status;type:text;not null;default:PENDING"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:UNPAID"`
	TotalPrice    decimal.Decimal     `gorm:"column:total_price;type:numeric(10,2);not null"`
	Items         []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
