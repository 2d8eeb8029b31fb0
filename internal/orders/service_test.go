package orders

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/autopartsvn/backend/internal/cart"
	"github.com/autopartsvn/backend/pkg/db/models"
	"github.com/autopartsvn/backend/pkg/enums"
	pkgerrors "github.com/autopartsvn/backend/pkg/errors"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{`
CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'ACTIVE',
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  cart_id TEXT,
  order_code INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'PENDING',
  total_price NUMERIC NOT NULL,
  shipping_address TEXT,
  qr_code TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_order_code ON orders (order_code);`, `
CREATE TABLE IF NOT EXISTS order_details (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  total_price NUMERIC NOT NULL,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS payments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  payment_method TEXT NOT NULL,
  payment_date DATETIME,
  payment_status TEXT NOT NULL DEFAULT 'PENDING',
  amount NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`}
	for _, stmt := range ddl {
		require.NoError(t, gdb.Exec(stmt).Error)
	}
	return gdb
}

type gormTx struct {
	db *gorm.DB
}

func (g gormTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

type stubUsers struct {
	byName map[string]*models.User
	byID   map[uuid.UUID]*models.User
}

func (s *stubUsers) add(u *models.User) {
	s.byName[u.UserName] = u
	s.byID[u.ID] = u
}

func (s *stubUsers) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUsers) FindByUserName(ctx context.Context, userName string) (*models.User, error) {
	if u, ok := s.byName[userName]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubCatalog struct {
	byID map[uuid.UUID]*models.Product
}

func (s *stubCatalog) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := s.byID[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// stubGateway rejects the first rejectPerCall codes of every
// allocation round, then accepts and remembers the code. Codes seen
// before always conflict.
type stubGateway struct {
	rejectPerCall int
	rejected      int
	seen          map[int64]bool
	calls         int
	failWith      error
}

func newStubGateway(rejectPerCall int) *stubGateway {
	return &stubGateway{rejectPerCall: rejectPerCall, seen: map[int64]bool{}}
}

func (g *stubGateway) CreatePaymentLink(ctx context.Context, orderCode int64, amount int64, description string) (string, error) {
	g.calls++
	if g.failWith != nil {
		return "", g.failWith
	}
	if g.seen[orderCode] {
		return "", pkgerrors.New(pkgerrors.CodeConflict, "duplicate order code")
	}
	if g.rejected < g.rejectPerCall {
		g.rejected++
		return "", pkgerrors.New(pkgerrors.CodeConflict, "duplicate order code")
	}
	g.rejected = 0
	g.seen[orderCode] = true
	return fmt.Sprintf("qr-%d", orderCode), nil
}

type orderFixture struct {
	gdb     *gorm.DB
	svc     Service
	repo    Repository
	carts   cart.Repository
	users   *stubUsers
	catalog *stubCatalog
	gateway *stubGateway
	user    *models.User
}

func newOrderFixture(t *testing.T, gateway *stubGateway) *orderFixture {
	t.Helper()

	gdb := setupOrdersTestDB(t)
	repo := NewRepository(gdb)
	carts := cart.NewRepository(gdb)

	address := "12 Ly Thuong Kiet, Hanoi"
	user := &models.User{ID: uuid.New(), UserName: "johndoe", Email: "john@example.com", Address: &address}
	users := &stubUsers{byName: map[string]*models.User{}, byID: map[uuid.UUID]*models.User{}}
	users.add(user)
	catalog := &stubCatalog{byID: map[uuid.UUID]*models.Product{}}

	svc, err := NewService(repo, carts, users, catalog, gateway, gormTx{db: gdb}, nil)
	require.NoError(t, err)
	return &orderFixture{
		gdb:     gdb,
		svc:     svc,
		repo:    repo,
		carts:   carts,
		users:   users,
		catalog: catalog,
		gateway: gateway,
		user:    user,
	}
}

func (f *orderFixture) addProduct(t *testing.T, price int64) *models.Product {
	t.Helper()
	product := &models.Product{ID: uuid.New(), Name: "Part", Price: decimal.NewFromInt(price)}
	f.catalog.byID[product.ID] = product
	return product
}

func (f *orderFixture) seedActiveCart(t *testing.T, userID uuid.UUID, lines map[uuid.UUID]int) *models.Cart {
	t.Helper()
	ctx := context.Background()
	cartRow, err := f.carts.CreateCart(ctx, &models.Cart{UserID: userID})
	require.NoError(t, err)
	for productID, qty := range lines {
		_, err := f.carts.CreateItem(ctx, &models.CartItem{
			CartID:    cartRow.ID,
			ProductID: productID,
			Quantity:  qty,
		})
		require.NoError(t, err)
	}
	return cartRow
}

func TestCreateOrderHappyPath(t *testing.T) {
	f := newOrderFixture(t, newStubGateway(0))
	ctx := context.Background()

	pad := f.addProduct(t, 250000)
	filter := f.addProduct(t, 90000)
	cartRow := f.seedActiveCart(t, f.user.ID, map[uuid.UUID]int{pad.ID: 2, filter.ID: 1})

	result, err := f.svc.CreateOrder(ctx, cartRow.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(590000), result.Amount)
	assert.Equal(t, fmt.Sprintf("qr-%d", result.OrderCode), result.QRCode)

	order, err := f.repo.FindByCode(ctx, result.OrderCode)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.True(t, order.TotalPrice.Equal(decimal.NewFromInt(590000)))
	assert.Zero(t, order.CreatedAt.Nanosecond(), "timestamp must be truncated to seconds")
	require.NotNil(t, order.ShippingAddress)
	assert.Equal(t, *f.user.Address, *order.ShippingAddress)
	require.Len(t, order.Details, 2)

	submitted, err := f.carts.FindCartByID(ctx, cartRow.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.CartStatusSubmitted, submitted.Status)

	var payment models.Payment
	require.NoError(t, f.gdb.First(&payment, "order_id = ?", order.ID).Error)
	assert.Equal(t, enums.PaymentStatusPending, payment.PaymentStatus)
	assert.True(t, payment.Amount.Equal(order.TotalPrice))
}

func TestOrderTotalsImmuneToPriceChanges(t *testing.T) {
	f := newOrderFixture(t, newStubGateway(0))
	ctx := context.Background()

	pad := f.addProduct(t, 250000)
	filter := f.addProduct(t, 90000)
	cartRow := f.seedActiveCart(t, f.user.ID, map[uuid.UUID]int{pad.ID: 2, filter.ID: 1})

	result, err := f.svc.CreateOrder(ctx, cartRow.ID)
	require.NoError(t, err)

	// A catalog reprice after checkout must not leak into the order.
	pad.Price = decimal.NewFromInt(999999)
	filter.Price = decimal.NewFromInt(1)

	order, err := f.repo.FindByCode(ctx, result.OrderCode)
	require.NoError(t, err)

	sum := decimal.Zero
	for _, detail := range order.Details {
		sum = sum.Add(detail.TotalPrice)
	}
	assert.True(t, sum.Equal(order.TotalPrice), "detail snapshots must sum to the stored total")
	assert.True(t, order.TotalPrice.Equal(decimal.NewFromInt(590000)))
}

func TestCreateOrderEmptyCart(t *testing.T) {
	f := newOrderFixture(t, newStubGateway(0))
	cartRow := f.seedActiveCart(t, f.user.ID, nil)

	_, err := f.svc.CreateOrder(context.Background(), cartRow.ID)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestCreateOrderCartNotActive(t *testing.T) {
	f := newOrderFixture(t, newStubGateway(0))
	ctx := context.Background()

	pad := f.addProduct(t, 250000)
	cartRow := f.seedActiveCart(t, f.user.ID, map[uuid.UUID]int{pad.ID: 1})
	require.NoError(t, f.carts.UpdateCartStatus(ctx, cartRow.ID, enums.CartStatusSubmitted))

	_, err := f.svc.CreateOrder(ctx, cartRow.ID)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())

	_, err = f.svc.CreateOrder(ctx, uuid.New())
	appErr = pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestCreateOrderRetriesOnDuplicateCode(t *testing.T) {
	gateway := newStubGateway(2)
	f := newOrderFixture(t, gateway)

	pad := f.addProduct(t, 100000)
	cartRow := f.seedActiveCart(t, f.user.ID, map[uuid.UUID]int{pad.ID: 1})

	result, err := f.svc.CreateOrder(context.Background(), cartRow.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, gateway.calls, "two conflicts then success")
	assert.NotZero(t, result.OrderCode)
}

func TestCreateOrderExhaustsRetries(t *testing.T) {
	gateway := newStubGateway(maxOrderCodeAttempts + 1)
	f := newOrderFixture(t, gateway)
	ctx := context.Background()

	pad := f.addProduct(t, 100000)
	cartRow := f.seedActiveCart(t, f.user.ID, map[uuid.UUID]int{pad.ID: 1})

	_, err := f.svc.CreateOrder(ctx, cartRow.ID)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())
	assert.Equal(t, maxOrderCodeAttempts, gateway.calls)

	// Nothing was persisted and the cart is still usable.
	still, err := f.carts.FindCartByID(ctx, cartRow.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.CartStatusActive, still.Status)
	var count int64
	require.NoError(t, f.gdb.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateOrderGatewayFailurePropagates(t *testing.T) {
	gateway := newStubGateway(0)
	gateway.failWith = pkgerrors.New(pkgerrors.CodeDependency, "gateway unreachable")
	f := newOrderFixture(t, gateway)

	pad := f.addProduct(t, 100000)
	cartRow := f.seedActiveCart(t, f.user.ID, map[uuid.UUID]int{pad.ID: 1})

	_, err := f.svc.CreateOrder(context.Background(), cartRow.ID)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeDependency, appErr.Code())
	assert.Equal(t, 1, gateway.calls, "non-conflict failures must not retry")
}

func TestChangeOrderStatus(t *testing.T) {
	f := newOrderFixture(t, newStubGateway(0))
	ctx := context.Background()

	pad := f.addProduct(t, 100000)
	cartRow := f.seedActiveCart(t, f.user.ID, map[uuid.UUID]int{pad.ID: 1})
	result, err := f.svc.CreateOrder(ctx, cartRow.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.ChangeOrderStatus(ctx, result.OrderCode, "paid"))

	order, err := f.repo.FindByCode(ctx, result.OrderCode)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, order.Status)

	var payment models.Payment
	require.NoError(t, f.gdb.First(&payment, "order_id = ?", order.ID).Error)
	assert.Equal(t, enums.PaymentStatusPaid, payment.PaymentStatus)
	assert.NotNil(t, payment.PaymentDate)

	// Unknown codes are swallowed, invalid statuses are not.
	require.NoError(t, f.svc.ChangeOrderStatus(ctx, 123456789, "PAID"))
	err = f.svc.ChangeOrderStatus(ctx, result.OrderCode, "NONSENSE")
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestOrderQueries(t *testing.T) {
	f := newOrderFixture(t, newStubGateway(0))
	ctx := context.Background()

	has, err := f.svc.HasPendingOrder(ctx, "johndoe")
	require.NoError(t, err)
	assert.False(t, has)

	pad := f.addProduct(t, 100000)
	cartRow := f.seedActiveCart(t, f.user.ID, map[uuid.UUID]int{pad.ID: 2})
	result, err := f.svc.CreateOrder(ctx, cartRow.ID)
	require.NoError(t, err)

	has, err = f.svc.HasPendingOrder(ctx, "johndoe")
	require.NoError(t, err)
	assert.True(t, has)

	latest, err := f.svc.LatestPendingOrder(ctx, "johndoe")
	require.NoError(t, err)
	assert.Equal(t, result.OrderCode, latest.OrderCode)

	details, err := f.svc.PendingOrderDetails(ctx, "johndoe")
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, 2, details[0].Quantity)
	assert.True(t, details[0].TotalPrice.Equal(decimal.NewFromInt(200000)))

	all, err := f.svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	pending, err := f.svc.ListByStatus(ctx, "PENDING")
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	paid, err := f.svc.ListByStatus(ctx, "PAID")
	require.NoError(t, err)
	assert.Empty(t, paid)

	mine, err := f.svc.ListUserOrdersByStatus(ctx, "johndoe", "PENDING")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	_, err = f.svc.ListUserOrdersByStatus(ctx, "ghost", "PENDING")
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

// Every allocation round survives four duplicate-code rejections and
// lands a unique code on the fifth attempt, over a thousand orders.
func TestOrderCodeAllocationUnderSustainedCollisions(t *testing.T) {
	if testing.Short() {
		t.Skip("long-running allocation check")
	}

	gateway := newStubGateway(4)
	f := newOrderFixture(t, gateway)
	ctx := context.Background()

	pad := f.addProduct(t, 50000)

	const rounds = 1000
	for i := 0; i < rounds; i++ {
		buyer := &models.User{ID: uuid.New(), UserName: fmt.Sprintf("buyer-%d", i)}
		f.users.add(buyer)
		cartRow := f.seedActiveCart(t, buyer.ID, map[uuid.UUID]int{pad.ID: 1})
		result, err := f.svc.CreateOrder(ctx, cartRow.ID)
		require.NoError(t, err, "round %d", i)
		require.NotZero(t, result.OrderCode)
	}

	assert.Len(t, gateway.seen, rounds, "every order must land a distinct code")
	assert.Equal(t, rounds*5, gateway.calls, "four rejections plus one success per round")

	var count int64
	require.NoError(t, f.gdb.Model(&models.Order{}).Count(&count).Error)
	assert.Equal(t, int64(rounds), count)
}
