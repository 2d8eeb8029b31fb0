package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/autopartsvn/backend/pkg/db/models"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PaymentGateway is the slice of the PayOS client the workflow needs.
type PaymentGateway interface {
	CreatePaymentLink(ctx context.Context, orderCode int64, amount int64, description string) (string, error)
}

// userDirectory resolves buyers for order creation and the order
// queries. Satisfied by users.Repository.
type userDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByUserName(ctx context.Context, userName string) (*models.User, error)
}

// catalog resolves live product prices for the order snapshot.
// Satisfied by products.Repository.
type catalog interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}
