package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/autopartsvn/backend/pkg/enums"
)

// User represents the canonical identity entity.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserName     string         `gorm:"column:user_name;not null;uniqueIndex"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	FullName     string         `gorm:"column:full_name;not null"`
	Email        string         `gorm:"column:email;not null;uniqueIndex"`
	Role         enums.UserRole `gorm:"column:role;not null;default:'USER'"`
	Address      *string        `gorm:"column:address"`
	Phone        *string        `gorm:"column:phone"`
	AvatarURL    *string        `gorm:"column:avatar_url"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
