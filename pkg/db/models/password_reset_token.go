package models

import (
	"time"

	"github.com/google/uuid"
)

// PasswordResetToken holds the single active reset code for a user.
type PasswordResetToken struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	ResetCode string    `gorm:"column:reset_code;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
