package orders

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/autopartsvn/backend/internal/cart"
	"github.com/autopartsvn/backend/pkg/db/models"
	"github.com/autopartsvn/backend/pkg/enums"
	pkgerrors "github.com/autopartsvn/backend/pkg/errors"
	"github.com/autopartsvn/backend/pkg/logger"
)

const (
	// maxOrderCodeAttempts bounds the retry loop when the gateway
	// rejects a candidate code as already taken.
	maxOrderCodeAttempts = 5

	orderCodeRandomSpan = 10000

	checkoutDescription = "AutoParts Checkout"

	paymentMethodPayOS = "PAYOS"
)

// Service exposes the order workflow.
type Service interface {
	CreateOrder(ctx context.Context, cartID uuid.UUID) (*CreateOrderResult, error)
	ChangeOrderStatus(ctx context.Context, orderCode int64, status string) error
	ListAll(ctx context.Context) ([]OrderView, error)
	ListByStatus(ctx context.Context, status string) ([]OrderView, error)
	ListUserOrdersByStatus(ctx context.Context, userName, status string) ([]OrderView, error)
	HasPendingOrder(ctx context.Context, userName string) (bool, error)
	LatestPendingOrder(ctx context.Context, userName string) (*OrderView, error)
	PendingOrderDetails(ctx context.Context, userName string) ([]OrderDetailView, error)
}

type service struct {
	repo     Repository
	carts    cart.Repository
	users    userDirectory
	products catalog
	gateway  PaymentGateway
	tx       txRunner
	logg     *logger.Logger
}

// NewService builds an order service backed by the provided stack.
func NewService(repo Repository, carts cart.Repository, users userDirectory, products catalog, gateway PaymentGateway, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user directory required")
	}
	if products == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:     repo,
		carts:    carts,
		users:    users,
		products: products,
		gateway:  gateway,
		tx:       tx,
		logg:     logg,
	}, nil
}

// CreateOrder turns the cart into an immutable order. The public order
// code is allocated against the gateway first; a duplicate-code answer
// triggers a fresh candidate, bounded by maxOrderCodeAttempts.
func (s *service) CreateOrder(ctx context.Context, cartID uuid.UUID) (*CreateOrderResult, error) {
	cartRow, err := s.carts.FindCartByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if cartRow.Status != enums.CartStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is not active")
	}
	if len(cartRow.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart has no items")
	}

	buyer, err := s.users.FindByID(ctx, cartRow.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	details, total, err := s.snapshotLines(ctx, cartRow.Items)
	if err != nil {
		return nil, err
	}
	if !total.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total must be positive")
	}
	amount := total.Round(0).IntPart()

	orderCode, qrCode, err := s.allocateOrderCode(ctx, amount)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:          cartRow.UserID,
		CartID:          &cartID,
		OrderCode:       orderCode,
		Status:          enums.OrderStatusPending,
		TotalPrice:      total,
		ShippingAddress: buyer.Address,
		QRCode:          &qrCode,
		CreatedAt:       time.Now().Truncate(time.Second),
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.carts.WithTx(tx).UpdateCartStatus(ctx, cartID, enums.CartStatusSubmitted); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "submit cart")
		}
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}
		for i := range details {
			details[i].OrderID = order.ID
		}
		if err := repo.CreateDetails(ctx, details); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order details")
		}
		if _, err := repo.CreatePayment(ctx, &models.Payment{
			OrderID:       order.ID,
			PaymentMethod: paymentMethodPayOS,
			PaymentStatus: enums.PaymentStatusPending,
			Amount:        total,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create payment record")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderCode(ctx, orderCode), "order.created")
	}
	return &CreateOrderResult{
		OrderCode: orderCode,
		Amount:    amount,
		QRCode:    qrCode,
	}, nil
}

// allocateOrderCode asks the gateway for a payment link under a fresh
// candidate code until one is accepted.
func (s *service) allocateOrderCode(ctx context.Context, amount int64) (int64, string, error) {
	for attempt := 1; attempt <= maxOrderCodeAttempts; attempt++ {
		code := time.Now().UnixMilli() + rand.Int63n(orderCodeRandomSpan)
		qr, err := s.gateway.CreatePaymentLink(ctx, code, amount, checkoutDescription)
		if err == nil {
			return code, qr, nil
		}
		if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeConflict {
			if s.logg != nil {
				logCtx := s.logg.WithFields(ctx, map[string]any{
					"attempt":    attempt,
					"order_code": code,
				})
				s.logg.Warn(logCtx, "order.code_taken")
			}
			continue
		}
		return 0, "", err
	}
	return 0, "", pkgerrors.New(pkgerrors.CodeConflict, "cannot allocate order code")
}

func (s *service) snapshotLines(ctx context.Context, items []models.CartItem) ([]models.OrderDetail, decimal.Decimal, error) {
	details := make([]models.OrderDetail, 0, len(items))
	total := decimal.Zero
	for _, item := range items {
		product, err := s.products.FindByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "cart references a missing product")
			}
			return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}
		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		details = append(details, models.OrderDetail{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			TotalPrice: lineTotal,
		})
		total = total.Add(lineTotal)
	}
	return details, total, nil
}

// ChangeOrderStatus applies a gateway callback. An unknown order code
// is logged and swallowed so webhook retries stay quiet.
func (s *service) ChangeOrderStatus(ctx context.Context, orderCode int64, status string) error {
	parsed, err := enums.ParseOrderStatus(strings.ToUpper(strings.TrimSpace(status)))
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	order, err := s.repo.FindByCode(ctx, orderCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if s.logg != nil {
				s.logg.Warn(s.logg.WithOrderCode(ctx, orderCode), "order.status_change_unknown_code")
			}
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateStatus(ctx, order.ID, parsed); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
		}
		if parsed == enums.OrderStatusPaid {
			now := time.Now()
			if err := repo.UpdatePaymentStatus(ctx, order.ID, enums.PaymentStatusPaid, &now); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update payment status")
			}
		}
		return nil
	})
}

func (s *service) ListAll(ctx context.Context) ([]OrderView, error) {
	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return orderViews(records), nil
}

func (s *service) ListByStatus(ctx context.Context, status string) ([]OrderView, error) {
	parsed, err := enums.ParseOrderStatus(strings.ToUpper(strings.TrimSpace(status)))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	records, err := s.repo.ListByStatus(ctx, parsed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return orderViews(records), nil
}

func (s *service) ListUserOrdersByStatus(ctx context.Context, userName, status string) ([]OrderView, error) {
	parsed, err := enums.ParseOrderStatus(strings.ToUpper(strings.TrimSpace(status)))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	user, err := s.findUser(ctx, userName)
	if err != nil {
		return nil, err
	}
	records, err := s.repo.ListByUserAndStatus(ctx, user.ID, parsed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return orderViews(records), nil
}

func (s *service) HasPendingOrder(ctx context.Context, userName string) (bool, error) {
	user, err := s.findUser(ctx, userName)
	if err != nil {
		return false, err
	}
	_, err = s.repo.FindLatestByUserAndStatus(ctx, user.ID, enums.OrderStatusPending)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pending order")
	}
	return true, nil
}

func (s *service) LatestPendingOrder(ctx context.Context, userName string) (*OrderView, error) {
	user, err := s.findUser(ctx, userName)
	if err != nil {
		return nil, err
	}
	order, err := s.repo.FindLatestByUserAndStatus(ctx, user.ID, enums.OrderStatusPending)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no pending order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pending order")
	}
	return NewOrderView(order), nil
}

func (s *service) PendingOrderDetails(ctx context.Context, userName string) ([]OrderDetailView, error) {
	user, err := s.findUser(ctx, userName)
	if err != nil {
		return nil, err
	}
	order, err := s.repo.FindLatestByUserAndStatus(ctx, user.ID, enums.OrderStatusPending)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no pending order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pending order")
	}
	details, err := s.repo.FindDetails(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order details")
	}
	return newDetailViews(details), nil
}

func (s *service) findUser(ctx context.Context, userName string) (*models.User, error) {
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
	return user, nil
}

func orderViews(records []models.Order) []OrderView {
	views := make([]OrderView, 0, len(records))
	for i := range records {
		views = append(views, *NewOrderView(&records[i]))
	}
	return views
}
