package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/autopartsvn/backend/pkg/enums"
)

// Cart is a user's shopping cart. At most one ACTIVE cart exists per user,
// enforced by a partial unique index in the schema.
type Cart struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID        `gorm:"column:user_id;type:uuid;not null"`
	Status    enums.CartStatus `gorm:"column:status;not null;default:'ACTIVE'"`
	Items     []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
