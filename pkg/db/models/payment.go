package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/autopartsvn/backend/pkg/enums"
)

// Payment records the gateway outcome for an order.
type Payment struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	PaymentMethod string              `gorm:"column:payment_method;not null"`
	PaymentDate   *time.Time          `gorm:"column:payment_date"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;not null;default:'PENDING'"`
	Amount        decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
