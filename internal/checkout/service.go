package checkout

import (
	"context"
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aminufarouk/kiosa-backend/internal/orders"
	"github.com/aminufarouk/kiosa-backend/pkg/db"
	"github.com/aminufarouk/kiosa-backend/pkg/db/models"
	"github.com/aminufarouk/kiosa-backend/pkg/enums"
	pkgerrors "github.com/aminufarouk/kiosa-backend/pkg/errors"
	"github.com/aminufarouk/kiosa-backend/pkg/logger"
	"github.com/aminufarouk/kiosa-backend/pkg/outbox"
	"github.com/aminufarouk/kiosa-backend/pkg/outbox/payloads"
)

const (
	orderNumberPrefix  = "KS"
	orderNumberCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	orderNumberRandLen = 6
	maxItemsPerOrder   = 50
)

type productLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type cartClearer interface {
	Clear(ctx context.Context, customerEmail string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ItemInput is one requested line at checkout.
type ItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Qty       int       `json:"qty" validate:"required,min=1,max=99"`
}

// Input is the checkout payload. Prices are never accepted from the client;
// they are snapshotted from the catalog at placement time.
type Input struct {
	CustomerEmail   string      `json:"customer_email" validate:"required,email"`
	CustomerPhone   *string     `json:"customer_phone,omitempty"`
	ShippingAddress string      `json:"shipping_address" validate:"required,min=5"`
	Items           []ItemInput `json:"items" validate:"required,min=1,dive"`
}

// Service places orders. The order row, its items, and the order.created
// outbox event commit in one transaction; the order starts unpaid and waits
// for the payment reconciliation workflow.
type Service interface {
	PlaceOrder(ctx context.Context, input Input) (*models.Order, error)
}

type ServiceParams struct {
	OrdersRepo orders.Repository
	Products   productLoader
	Cart       cartClearer
	TxRunner   txRunner
	Outbox     outboxEmitter
	Logger     *logger.Logger
}

type service struct {
	ordersRepo orders.Repository
	products   productLoader
	cart       cartClearer
	tx         txRunner
	outbox     outboxEmitter
	logger     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.OrdersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository required")
	}
	if params.Products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "product loader required")
	}
	if params.Cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart service required")
	}
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox service required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &service{
		ordersRepo: params.OrdersRepo,
		products:   params.Products,
		cart:       params.Cart,
		tx:         params.TxRunner,
		outbox:     params.Outbox,
		logger:     params.Logger,
	}, nil
}

func (s *service) PlaceOrder(ctx context.Context, input Input) (*models.Order, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	items, total, err := s.priceItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:              uuid.New(),
		CustomerEmail:   strings.ToLower(strings.TrimSpace(input.CustomerEmail)),
		CustomerPhone:   input.CustomerPhone,
		ShippingAddress: strings.TrimSpace(input.ShippingAddress),
		Currency:        enums.CurrencyNGN,
		Total:           total,
		PaymentStatus:   enums.PaymentStatusUnpaid,
		Status:          enums.OrderStatusPending,
		Items:           items,
	}

	// Order numbers are random; a collision is possible and handled by
	// regenerating once.
	for attempt := 0; attempt < 2; attempt++ {
		order.OrderNumber, err = generateOrderNumber(time.Now().UTC())
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
		}
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.ordersRepo.WithTx(tx)
			if _, err := repo.Create(ctx, order); err != nil {
				return err
			}
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderCreated,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Data: payloads.OrderCreatedEvent{
					OrderID:       order.ID,
					OrderNumber:   order.OrderNumber,
					CustomerEmail: order.CustomerEmail,
					Total:         order.Total,
					Currency:      order.Currency,
				},
			})
		})
		if err == nil {
			break
		}
		if !db.IsUniqueViolation(err, "") || attempt == 1 {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "place order")
		}
	}

	logCtx := s.logger.WithOrderNumber(ctx, order.OrderNumber)
	s.logger.Info(logCtx, "order placed")

	if err := s.cart.Clear(ctx, order.CustomerEmail); err != nil {
		s.logger.Error(logCtx, "clear cart after checkout", err)
	}
	return order, nil
}

func validateInput(input Input) error {
	if strings.TrimSpace(input.CustomerEmail) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer email required")
	}
	if strings.TrimSpace(input.ShippingAddress) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping address required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}
	if len(input.Items) > maxItemsPerOrder {
		return pkgerrors.New(pkgerrors.CodeValidation, "too many items")
	}
	for _, item := range input.Items {
		if item.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
	}
	return nil
}

// priceItems snapshots catalog prices into order lines. Quantities for the
// same product are merged before pricing.
func (s *service) priceItems(ctx context.Context, inputs []ItemInput) ([]models.OrderItem, decimal.Decimal, error) {
	quantities := map[uuid.UUID]int{}
	ids := make([]uuid.UUID, 0, len(inputs))
	for _, item := range inputs {
		if _, seen := quantities[item.ProductID]; !seen {
			ids = append(ids, item.ProductID)
		}
		quantities[item.ProductID] += item.Qty
	}

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	var items []models.OrderItem
	total := decimal.Zero
	for _, id := range ids {
		product, ok := byID[id]
		if !ok {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "unknown product in cart")
		}
		if !product.Active {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "product is no longer available")
		}
		qty := quantities[id]
		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(qty)))
		items = append(items, models.OrderItem{
			ID:        uuid.New(),
			ProductID: product.ID,
			Name:      product.Name,
			Qty:       qty,
			UnitPrice: product.Price,
			LineTotal: lineTotal,
		})
		total = total.Add(lineTotal)
	}
	return items, total, nil
}

func generateOrderNumber(now time.Time) (string, error) {
	var b strings.Builder
	b.WriteString(orderNumberPrefix)
	b.WriteByte('-')
	b.WriteString(now.Format("060102"))
	b.WriteByte('-')
	max := big.NewInt(int64(len(orderNumberCharset)))
	for i := 0; i < orderNumberRandLen; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(orderNumberCharset[n.Int64()])
	}
	return b.String(), nil
}
