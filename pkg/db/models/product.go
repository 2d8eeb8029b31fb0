package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a catalog listing for a single auto part.
type Product struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string          `gorm:"column:name;not null"`
	Brand             *string         `gorm:"column:brand"`
	Category          *string         `gorm:"column:category"`
	Price             decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Quantity          int             `gorm:"column:quantity;not null;default:0"`
	Description       *string         `gorm:"column:description"`
	YearOfManufacture *int            `gorm:"column:year_of_manufacture"`
	Size              *string         `gorm:"column:size"`
	Material          *string         `gorm:"column:material"`
	Images            []ProductImage  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
