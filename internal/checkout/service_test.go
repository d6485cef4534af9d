package checkout

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aminufarouk/kiosa-backend/internal/orders"
	"github.com/aminufarouk/kiosa-backend/pkg/db/models"
	"github.com/aminufarouk/kiosa-backend/pkg/enums"
	pkgerrors "github.com/aminufarouk/kiosa-backend/pkg/errors"
	"github.com/aminufarouk/kiosa-backend/pkg/logger"
	"github.com/aminufarouk/kiosa-backend/pkg/outbox"
	"github.com/aminufarouk/kiosa-backend/pkg/pagination"
)

type stubCheckoutOrdersRepo struct {
	created *models.Order
}

func (s *stubCheckoutOrdersRepo) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubCheckoutOrdersRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	s.created = order
	return order, nil
}

func (s *stubCheckoutOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCheckoutOrdersRepo) FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCheckoutOrdersRepo) FindByOrderNumberForUpdate(ctx context.Context, orderNumber string) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCheckoutOrdersRepo) ListByCustomer(ctx context.Context, customerEmail string, params pagination.Params) (*orders.OrderList, error) {
	return nil, nil
}

func (s *stubCheckoutOrdersRepo) ListAll(ctx context.Context, params pagination.Params, filters orders.AdminOrderFilters) (*orders.OrderList, error) {
	return nil, nil
}

func (s *stubCheckoutOrdersRepo) FindUnpaidBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	return nil, nil
}

func (s *stubCheckoutOrdersRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return nil
}

func (s *stubCheckoutOrdersRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	return nil
}

type stubProducts struct {
	products []models.Product
}

func (s *stubProducts) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	return s.products, nil
}

type stubCart struct {
	cleared []string
	err     error
}

func (s *stubCart) Clear(ctx context.Context, customerEmail string) error {
	s.cleared = append(s.cleared, customerEmail)
	return s.err
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubEmitter struct {
	events []outbox.DomainEvent
}

func (s *stubEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type checkoutFixture struct {
	repo    *stubCheckoutOrdersRepo
	cart    *stubCart
	emitter *stubEmitter
	svc     Service
}

func newCheckoutFixture(t *testing.T, products []models.Product) *checkoutFixture {
	t.Helper()
	f := &checkoutFixture{
		repo:    &stubCheckoutOrdersRepo{},
		cart:    &stubCart{},
		emitter: &stubEmitter{},
	}
	svc, err := NewService(ServiceParams{
		OrdersRepo: f.repo,
		Products:   &stubProducts{products: products},
		Cart:       f.cart,
		TxRunner:   stubTx{},
		Outbox:     f.emitter,
		Logger:     logger.New(logger.Options{ServiceName: "checkout-test", Level: logger.ParseLevel("error")}),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	f.svc = svc
	return f
}

func activeProduct(price string) models.Product {
	return models.Product{
		ID:       uuid.New(),
		Name:     "Jollof Rice",
		Slug:     "jollof-rice",
		Category: "meals",
		Currency: enums.CurrencyNGN,
		Price:    decimal.RequireFromString(price),
		Active:   true,
	}
}

var orderNumberPattern = regexp.MustCompile(`^KS-\d{6}-[A-Z0-9]{6}$`)

func TestPlaceOrderSnapshotsPricesAndEmits(t *testing.T) {
	product := activeProduct("1500.00")
	f := newCheckoutFixture(t, []models.Product{product})

	order, err := f.svc.PlaceOrder(context.Background(), Input{
		CustomerEmail:   "Ada@Example.com",
		ShippingAddress: "12 Marina Rd, Lagos",
		Items:           []ItemInput{{ProductID: product.ID, Qty: 2}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	if !orderNumberPattern.MatchString(order.OrderNumber) {
		t.Fatalf("order number %q does not match pattern", order.OrderNumber)
	}
	if order.CustomerEmail != "ada@example.com" {
		t.Fatalf("email not normalized: %q", order.CustomerEmail)
	}
	if !order.Total.Equal(decimal.RequireFromString("3000.00")) {
		t.Fatalf("total = %s", order.Total)
	}
	if order.PaymentStatus != enums.PaymentStatusUnpaid || order.Status != enums.OrderStatusPending {
		t.Fatalf("new order must start unpaid/pending, got %s/%s", order.PaymentStatus, order.Status)
	}
	if len(f.emitter.events) != 1 || f.emitter.events[0].EventType != enums.EventOrderCreated {
		t.Fatalf("events = %+v", f.emitter.events)
	}
	if len(f.cart.cleared) != 1 {
		t.Fatal("cart must be cleared after checkout")
	}
}

func TestPlaceOrderMergesDuplicateLines(t *testing.T) {
	product := activeProduct("1000.00")
	f := newCheckoutFixture(t, []models.Product{product})

	order, err := f.svc.PlaceOrder(context.Background(), Input{
		CustomerEmail:   "ada@example.com",
		ShippingAddress: "12 Marina Rd, Lagos",
		Items: []ItemInput{
			{ProductID: product.ID, Qty: 1},
			{ProductID: product.ID, Qty: 2},
		},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if len(order.Items) != 1 || order.Items[0].Qty != 3 {
		t.Fatalf("items = %+v", order.Items)
	}
}

func TestPlaceOrderRejectsInactiveProduct(t *testing.T) {
	product := activeProduct("1000.00")
	product.Active = false
	f := newCheckoutFixture(t, []models.Product{product})

	_, err := f.svc.PlaceOrder(context.Background(), Input{
		CustomerEmail:   "ada@example.com",
		ShippingAddress: "12 Marina Rd, Lagos",
		Items:           []ItemInput{{ProductID: product.ID, Qty: 1}},
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPlaceOrderRejectsUnknownProduct(t *testing.T) {
	f := newCheckoutFixture(t, nil)

	_, err := f.svc.PlaceOrder(context.Background(), Input{
		CustomerEmail:   "ada@example.com",
		ShippingAddress: "12 Marina Rd, Lagos",
		Items:           []ItemInput{{ProductID: uuid.New(), Qty: 1}},
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPlaceOrderCartClearFailureIsSwallowed(t *testing.T) {
	product := activeProduct("1000.00")
	f := newCheckoutFixture(t, []models.Product{product})
	f.cart.err = pkgerrors.New(pkgerrors.CodeDependency, "redis down")

	_, err := f.svc.PlaceOrder(context.Background(), Input{
		CustomerEmail:   "ada@example.com",
		ShippingAddress: "12 Marina Rd, Lagos",
		Items:           []ItemInput{{ProductID: product.ID, Qty: 1}},
	})
	if err != nil {
		t.Fatalf("cart clear failure must not fail checkout: %v", err)
	}
}

func TestGenerateOrderNumberFormat(t *testing.T) {
	number, err := generateOrderNumber(time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("generateOrderNumber: %v", err)
	}
	if !orderNumberPattern.MatchString(number) {
		t.Fatalf("number %q does not match pattern", number)
	}
	if number[:10] != "KS-260829-" {
		t.Fatalf("date segment wrong: %q", number)
	}
}
