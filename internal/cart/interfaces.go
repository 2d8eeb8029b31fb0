package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/autopartsvn/backend/pkg/db/models"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// userDirectory resolves login names to user rows. Satisfied by
// users.Repository.
type userDirectory interface {
	FindByUserName(ctx context.Context, userName string) (*models.User, error)
}

// catalog resolves product rows with their images. Satisfied by
// products.Repository.
type catalog interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}
