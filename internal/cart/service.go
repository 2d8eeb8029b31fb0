package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/autopartsvn/backend/pkg/db"
	"github.com/autopartsvn/backend/pkg/db/models"
	"github.com/autopartsvn/backend/pkg/enums"
	pkgerrors "github.com/autopartsvn/backend/pkg/errors"
)

// Service exposes cart operations for the storefront.
type Service interface {
	GetOrCreateActiveCart(ctx context.Context, userName string) (*CartSummary, error)
	AddItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) (*CartItemView, error)
	UpdateItemQuantity(ctx context.Context, cartID, productID uuid.UUID, quantity int) (*CartItemView, error)
	RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error
	ClearCart(ctx context.Context, cartID uuid.UUID) error
	Checkout(ctx context.Context, cartID uuid.UUID) error
	ListItems(ctx context.Context, cartID uuid.UUID) ([]CartItemView, error)
	TotalAmount(ctx context.Context, cartID uuid.UUID) (decimal.Decimal, error)
	GetStatus(ctx context.Context, cartID uuid.UUID) (enums.CartStatus, error)
	ImageURLs(ctx context.Context, cartID uuid.UUID) ([]string, error)
	RemoveItemsByProduct(ctx context.Context, productID uuid.UUID) error
	ChangeStatus(ctx context.Context, cartID uuid.UUID, status enums.CartStatus) error
}

type service struct {
	repo     Repository
	tx       txRunner
	users    userDirectory
	products catalog
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo Repository, tx txRunner, users userDirectory, products catalog) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if users == nil {
		return nil, fmt.Errorf("user directory required")
	}
	if products == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	return &service{repo: repo, tx: tx, users: users, products: products}, nil
}

// GetOrCreateActiveCart returns the user's ACTIVE cart, creating one if
// none exists. A concurrent create loses against the unique index and
// falls back to re-reading the winner's row.
func (s *service) GetOrCreateActiveCart(ctx context.Context, userName string) (*CartSummary, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "userName is required")
	}
	user, err := s.users.FindByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	cart, err := s.repo.FindActiveCartByUser(ctx, user.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart, err = s.repo.CreateCart(ctx, &models.Cart{
			UserID: user.ID,
			Status: enums.CartStatusActive,
		})
		// idx_carts_user_active rejects the second ACTIVE cart.
		if err != nil && db.IsUniqueViolation(err, "") {
			cart, err = s.repo.FindActiveCartByUser(ctx, user.ID)
		}
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve active cart")
	}

	items, err := s.itemViews(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	return s.summary(cart, userName, items), nil
}

func (s *service) AddItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) (*CartItemView, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	var line *models.CartItem
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.findCart(ctx, repo, cartID); err != nil {
			return err
		}

		existing, err := repo.FindItem(ctx, cartID, productID)
		switch {
		case err == nil:
			// Same product again merges onto the existing line.
			existing.Quantity += quantity
			if err := repo.UpdateItemQuantity(ctx, existing.ID, existing.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "merge cart line")
			}
			line = existing
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			line, err = repo.CreateItem(ctx, &models.CartItem{
				CartID:    cartID,
				ProductID: productID,
				Quantity:  quantity,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart line")
			}
			return nil
		default:
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart line")
		}
	})
	if err != nil {
		return nil, err
	}
	return newItemView(line, product), nil
}

func (s *service) UpdateItemQuantity(ctx context.Context, cartID, productID uuid.UUID, quantity int) (*CartItemView, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	var line *models.CartItem
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.findCart(ctx, repo, cartID); err != nil {
			return err
		}
		line, err = repo.FindItem(ctx, cartID, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart line")
		}
		line.Quantity = quantity
		if err := repo.UpdateItemQuantity(ctx, line.ID, quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newItemView(line, product), nil
}

func (s *service) RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error {
	affected, err := s.repo.DeleteItem(ctx, cartID, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart line")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	return nil
}

// ClearCart drops every line but keeps the cart row.
func (s *service) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	if _, err := s.findCart(ctx, s.repo, cartID); err != nil {
		return err
	}
	if err := s.repo.DeleteItemsByCart(ctx, cartID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return nil
}

// Checkout is the short-circuit payment path: the cart is marked PAID
// without going through the order workflow.
func (s *service) Checkout(ctx context.Context, cartID uuid.UUID) error {
	cart, err := s.findCart(ctx, s.repo, cartID)
	if err != nil {
		return err
	}
	if cart.Status == enums.CartStatusPaid {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cart already paid")
	}
	if err := s.repo.UpdateCartStatus(ctx, cartID, enums.CartStatusPaid); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark cart paid")
	}
	return nil
}

func (s *service) ListItems(ctx context.Context, cartID uuid.UUID) ([]CartItemView, error) {
	if _, err := s.findCart(ctx, s.repo, cartID); err != nil {
		return nil, err
	}
	return s.itemViews(ctx, cartID)
}

// TotalAmount recomputes the cart total against live catalog prices.
func (s *service) TotalAmount(ctx context.Context, cartID uuid.UUID) (decimal.Decimal, error) {
	items, err := s.ListItems(ctx, cartID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal)
	}
	return total, nil
}

func (s *service) GetStatus(ctx context.Context, cartID uuid.UUID) (enums.CartStatus, error) {
	cart, err := s.findCart(ctx, s.repo, cartID)
	if err != nil {
		return "", err
	}
	return cart.Status, nil
}

// ImageURLs returns the first catalog image of each line's product,
// in line order.
func (s *service) ImageURLs(ctx context.Context, cartID uuid.UUID) ([]string, error) {
	items, err := s.ListItems(ctx, cartID)
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(items))
	for _, item := range items {
		if item.ImageURL != nil {
			urls = append(urls, *item.ImageURL)
		}
	}
	return urls, nil
}

// RemoveItemsByProduct drops the product's lines from every cart. Used
// when a listing leaves the catalog.
func (s *service) RemoveItemsByProduct(ctx context.Context, productID uuid.UUID) error {
	if err := s.repo.DeleteItemsByProduct(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove product lines")
	}
	return nil
}

func (s *service) ChangeStatus(ctx context.Context, cartID uuid.UUID, status enums.CartStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid cart status")
	}
	if _, err := s.findCart(ctx, s.repo, cartID); err != nil {
		return err
	}
	if err := s.repo.UpdateCartStatus(ctx, cartID, status); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "change cart status")
	}
	return nil
}

func (s *service) itemViews(ctx context.Context, cartID uuid.UUID) ([]CartItemView, error) {
	items, err := s.repo.ListItems(ctx, cartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart lines")
	}
	views := make([]CartItemView, 0, len(items))
	for i := range items {
		product, err := s.findProduct(ctx, items[i].ProductID)
		if err != nil {
			return nil, err
		}
		views = append(views, *newItemView(&items[i], product))
	}
	return views, nil
}

func (s *service) summary(cart *models.Cart, userName string, items []CartItemView) *CartSummary {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal)
	}
	return &CartSummary{
		CartID:   cart.ID,
		UserName: userName,
		Status:   cart.Status.String(),
		Items:    items,
		Total:    total,
	}
}

func (s *service) findCart(ctx context.Context, repo Repository, cartID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindCartByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return cart, nil
}

func (s *service) findProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return product, nil
}

func newItemView(item *models.CartItem, product *models.Product) *CartItemView {
	view := &CartItemView{
		ProductID:   product.ID,
		ProductName: product.Name,
		UnitPrice:   product.Price,
		Quantity:    item.Quantity,
		LineTotal:   product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
	}
	if len(product.Images) > 0 {
		view.ImageURL = &product.Images[0].URL
	}
	return view
}
