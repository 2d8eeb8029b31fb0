package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/autopartsvn/backend/pkg/db/models"
)

// CreateOrderResult is what the storefront needs to hand the buyer
// over to the payment page.
type CreateOrderResult struct {
	OrderCode int64  `json:"orderCode"`
	Amount    int64  `json:"amount"`
	QRCode    string `json:"qrCode"`
}

// OrderView is the public representation of an order.
type OrderView struct {
	ID         uuid.UUID       `json:"id"`
	OrderCode  int64           `json:"orderCode"`
	Status     string          `json:"status"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	QRCode     *string         `json:"qrCode,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// OrderDetailView is one immutable line snapshot.
type OrderDetailView struct {
	ProductID  uuid.UUID       `json:"productId"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// NewOrderView maps an order row to its public view.
func NewOrderView(order *models.Order) *OrderView {
	if order == nil {
		return nil
	}
	return &OrderView{
		ID:         order.ID,
		OrderCode:  order.OrderCode,
		Status:     order.Status.String(),
		TotalPrice: order.TotalPrice,
		QRCode:     order.QRCode,
		CreatedAt:  order.CreatedAt,
	}
}

func newDetailViews(details []models.OrderDetail) []OrderDetailView {
	views := make([]OrderDetailView, 0, len(details))
	for _, d := range details {
		views = append(views, OrderDetailView{
			ProductID:  d.ProductID,
			Quantity:   d.Quantity,
			TotalPrice: d.TotalPrice,
		})
	}
	return views
}
