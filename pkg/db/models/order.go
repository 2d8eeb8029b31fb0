package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/autopartsvn/backend/pkg/enums"
)

// Order is the immutable record of a checkout. OrderCode is the public
// identifier shared with the payment gateway.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	CartID          *uuid.UUID        `gorm:"column:cart_id;type:uuid"`
	OrderCode       int64             `gorm:"column:order_code;not null;uniqueIndex"`
	Status          enums.OrderStatus `gorm:"column:status;not null;default:'PENDING'"`
	TotalPrice      decimal.Decimal   `gorm:"column:total_price;type:numeric(12,2);not null"`
	ShippingAddress *string           `gorm:"column:shipping_address"`
	QRCode          *string           `gorm:"column:qr_code"`
	Details         []OrderDetail     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
