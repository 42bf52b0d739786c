package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/inkforge/inkforge-backend/pkg/enums"
)

// User represents the canonical identity entity.
type User struct {
	ID               uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Email            string     `gorm:"column:email;type:text;not null;uniqueIndex"`
	Phone            *string    `gorm:"column:phone;uniqueIndex"`
	PasswordHash     string     `gorm:"column:password_hash;not null"`
	Name             string     `gorm:"column:name;not null"`
	Role             enums.Role `gorm:"column:role;type:text;not null;default:USER"`
	IsActive         bool       `gorm:"column:is_active;not null;default:false"`
	OTPCode          *string    `gorm:"column:otp_code"`
	OTPExpiresAt     *time.Time `gorm:"column:otp_expires_at"`
	RefreshTokenHash *string    `gorm:"column:refresh_token_hash"`
	LastLoginAt      *time.Time `gorm:"column:last_login_at"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
