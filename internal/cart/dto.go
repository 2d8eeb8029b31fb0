package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItemView is one cart line priced against the live catalog.
type CartItemView struct {
	ProductID   uuid.UUID       `json:"productId"`
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
	ImageURL    *string         `json:"imageUrl,omitempty"`
}

// CartSummary is the full cart view returned to the storefront.
type CartSummary struct {
	CartID   uuid.UUID       `json:"cartId"`
	UserName string          `json:"userName"`
	Status   string          `json:"status"`
	Items    []CartItemView  `json:"items"`
	Total    decimal.Decimal `json:"total"`
}
