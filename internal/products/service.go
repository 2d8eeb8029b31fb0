package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/autopartsvn/backend/pkg/db/models"
	pkgerrors "github.com/autopartsvn/backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes catalog management operations.
type Service interface {
	Create(ctx context.Context, input CreateProductInput) (*ProductView, error)
	GetAll(ctx context.Context) ([]ProductView, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ProductView, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductView, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ImageURLs(ctx context.Context, id uuid.UUID) ([]string, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds a product service backed by the provided stack.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*ProductView, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !input.Price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}

	var created *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product := &models.Product{
			Name:              name,
			Brand:             input.Brand,
			Category:          input.Category,
			Price:             input.Price,
			Quantity:          input.Quantity,
			Description:       input.Description,
			YearOfManufacture: input.YearOfManufacture,
			Size:              input.Size,
			Material:          input.Material,
		}
		var err error
		created, err = repo.Create(ctx, product)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
		}
		if err := repo.ReplaceImages(ctx, created.ID, input.ImageURLs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store images")
		}
		for i, url := range input.ImageURLs {
			created.Images = append(created.Images, models.ProductImage{
				ProductID: created.ID,
				URL:       url,
				Position:  i,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewProductView(created), nil
}

func (s *service) GetAll(ctx context.Context) ([]ProductView, error) {
	records, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	views := make([]ProductView, 0, len(records))
	for i := range records {
		views = append(views, *NewProductView(&records[i]))
	}
	return views, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*ProductView, error) {
	product, err := s.find(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	return NewProductView(product), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductView, error) {
	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := s.find(ctx, repo, id)
		if err != nil {
			return err
		}
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
			}
			product.Name = name
		}
		if input.Price != nil {
			if !input.Price.IsPositive() {
				return pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
			}
			product.Price = *input.Price
		}
		if input.Quantity != nil {
			if *input.Quantity < 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
			}
			product.Quantity = *input.Quantity
		}
		if input.Brand != nil {
			product.Brand = input.Brand
		}
		if input.Category != nil {
			product.Category = input.Category
		}
		if input.Description != nil {
			product.Description = input.Description
		}
		if input.YearOfManufacture != nil {
			product.YearOfManufacture = input.YearOfManufacture
		}
		if input.Size != nil {
			product.Size = input.Size
		}
		if input.Material != nil {
			product.Material = input.Material
		}
		if updated, err = repo.Update(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
		}
		if input.ImageURLs != nil {
			if err := repo.ReplaceImages(ctx, id, input.ImageURLs); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replace images")
			}
			updated.Images = updated.Images[:0]
			for i, url := range input.ImageURLs {
				updated.Images = append(updated.Images, models.ProductImage{
					ProductID: id,
					URL:       url,
					Position:  i,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewProductView(updated), nil
}

// Delete removes the listing; referencing cart lines go with it in the
// same transaction.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.find(ctx, repo, id); err != nil {
			return err
		}
		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
		}
		return nil
	})
}

func (s *service) ImageURLs(ctx context.Context, id uuid.UUID) ([]string, error) {
	if _, err := s.find(ctx, s.repo, id); err != nil {
		return nil, err
	}
	urls, err := s.repo.ImageURLs(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list images")
	}
	return urls, nil
}

func (s *service) find(ctx context.Context, repo Repository, id uuid.UUID) (*models.Product, error) {
	product, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return product, nil
}
