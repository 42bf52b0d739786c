package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/inkforge/inkforge-backend/pkg/enums"
)

// Notification is one entry in a user's inbox.
type Notification struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index:idx_notifications_user_created"`
	Type      enums.NotificationType `gorm:"column:type;type:text;not null;default:ORDER"`
	Title     string                 `gorm:"column:title;not null"`
	Message   string                 `gorm:"column:message;not null"`
	IsRead    bool                   `gorm:"column:is_read;not null;default:false"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime;index:idx_notifications_user_created"`
	UpdatedAt time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
