package products

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/autopartsvn/backend/pkg/db/models"
)

// ProductView is the public catalog representation of a listing.
type ProductView struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	Brand             *string         `json:"brand,omitempty"`
	Category          *string         `json:"category,omitempty"`
	Price             decimal.Decimal `json:"price"`
	Quantity          int             `json:"quantity"`
	Description       *string         `json:"description,omitempty"`
	YearOfManufacture *int            `json:"yearOfManufacture,omitempty"`
	Size              *string         `json:"size,omitempty"`
	Material          *string         `json:"material,omitempty"`
	ImageURLs         []string        `json:"imageUrls"`
}

// CreateProductInput carries a new catalog listing.
type CreateProductInput struct {
	Name              string
	Brand             *string
	Category          *string
	Price             decimal.Decimal
	Quantity          int
	Description       *string
	YearOfManufacture *int
	Size              *string
	Material          *string
	ImageURLs         []string
}

// UpdateProductInput carries the editable listing fields. Nil pointers
// leave the stored value untouched; a non-nil ImageURLs replaces the
// whole image set.
type UpdateProductInput struct {
	Name              *string
	Brand             *string
	Category          *string
	Price             *decimal.Decimal
	Quantity          *int
	Description       *string
	YearOfManufacture *int
	Size              *string
	Material          *string
	ImageURLs         []string
}

// NewProductView maps a product row to its public view.
func NewProductView(product *models.Product) *ProductView {
	if product == nil {
		return nil
	}
	urls := make([]string, 0, len(product.Images))
	for _, image := range product.Images {
		urls = append(urls, image.URL)
	}
	return &ProductView{
		ID:                product.ID,
		Name:              product.Name,
		Brand:             product.Brand,
		Category:          product.Category,
		Price:             product.Price,
		Quantity:          product.Quantity,
		Description:       product.Description,
		YearOfManufacture: product.YearOfManufacture,
		Size:              product.Size,
		Material:          product.Material,
		ImageURLs:         urls,
	}
}
