package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aminufarouk/kiosa-backend/pkg/db/models"
	"github.com/aminufarouk/kiosa-backend/pkg/enums"
	pkgerrors "github.com/aminufarouk/kiosa-backend/pkg/errors"
	"github.com/aminufarouk/kiosa-backend/pkg/logger"
	"github.com/aminufarouk/kiosa-backend/pkg/outbox"
	"github.com/aminufarouk/kiosa-backend/pkg/outbox/payloads"
	"github.com/aminufarouk/kiosa-backend/pkg/pagination"
	"github.com/aminufarouk/kiosa-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines order-level operations beyond repository reads.
type Service interface {
	MarkOrderPaid(ctx context.Context, orderNumber, providerRef string) (*MarkPaidResult, error)
	MarkOrderFailed(ctx context.Context, orderNumber, providerRef, reason string) error
	GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerEmail string, params pagination.Params) (*OrderList, error)
	ListAll(ctx context.Context, params pagination.Params, filters AdminOrderFilters) (*OrderList, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
	AssignRider(ctx context.Context, orderID, riderID uuid.UUID) error
	ExpireUnpaidBefore(ctx context.Context, cutoff time.Time) (int, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
}

// NewService builds an orders service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc, logg: logg}, nil
}

// MarkOrderPaid performs the unpaid -> paid transition exactly once. The order
// row is locked for the duration of the transaction, so concurrent
// confirmations for the same order serialize and at most one of them observes
// Transitioned=true. An unknown order number is not an error: the result
// carries a nil Order and the caller decides how to report it.
func (s *service) MarkOrderPaid(ctx context.Context, orderNumber, providerRef string) (*MarkPaidResult, error) {
	if orderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}

	result := &MarkPaidResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByOrderNumberForUpdate(ctx, orderNumber)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order for payment")
		}

		if order.PaymentStatus == enums.PaymentStatusPaid {
			result.Order = order
			return nil
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"payment_status": enums.PaymentStatusPaid,
			"paid_at":        now,
			"metadata":       withProviderRef(order.Metadata, providerRef),
		}
		if order.Status == enums.OrderStatusPending {
			updates["status"] = enums.OrderStatusProcessing
			order.Status = enums.OrderStatusProcessing
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist payment transition")
		}

		order.PaymentStatus = enums.PaymentStatusPaid
		order.PaidAt = &now

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderPaidEvent{
				OrderID:       order.ID,
				OrderNumber:   order.OrderNumber,
				CustomerEmail: order.CustomerEmail,
				ProviderRef:   providerRef,
				Total:         order.Total,
				Currency:      order.Currency,
				PaidAt:        now,
			},
		}
		if err := s.outbox.EmitIfNotExists(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue order paid event")
		}

		result.Order = order
		result.Transitioned = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Transitioned {
		logCtx := s.logg.WithOrderNumber(ctx, orderNumber)
		s.logg.Info(logCtx, "order marked paid")
	}
	return result, nil
}

// MarkOrderFailed records a failed payment attempt. Paid orders are never
// downgraded: a failure signal arriving after a success is a no-op.
func (s *service) MarkOrderFailed(ctx context.Context, orderNumber, providerRef, reason string) error {
	if orderNumber == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByOrderNumberForUpdate(ctx, orderNumber)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order for failure")
		}
		if order.PaymentStatus != enums.PaymentStatusUnpaid {
			return nil
		}
		metadata := withProviderRef(order.Metadata, providerRef)
		if reason != "" {
			metadata["failure_reason"] = reason
		}
		updates := map[string]any{
			"payment_status": enums.PaymentStatusFailed,
			"metadata":       metadata,
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist payment failure")
		}
		return nil
	})
}

func (s *service) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	if orderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	order, err := s.repo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) ListByCustomer(ctx context.Context, customerEmail string, params pagination.Params) (*OrderList, error) {
	if customerEmail == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email required")
	}
	list, err := s.repo.ListByCustomer(ctx, customerEmail, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customer orders")
	}
	return list, nil
}

func (s *service) ListAll(ctx context.Context, params pagination.Params, filters AdminOrderFilters) (*OrderList, error) {
	list, err := s.repo.ListAll(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status == status {
			return nil
		}
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is in a terminal status")
		}
		if status == enums.OrderStatusDispatched && order.PaymentStatus != enums.PaymentStatusPaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order must be paid before dispatch")
		}
		return repo.UpdateStatus(ctx, orderID, status)
	})
}

func (s *service) AssignRider(ctx context.Context, orderID, riderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if riderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "rider id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.PaymentStatus != enums.PaymentStatusPaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "unpaid orders cannot be assigned")
		}
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is in a terminal status")
		}
		return repo.Update(ctx, orderID, map[string]any{"rider_id": riderID})
	})
}

// ExpireUnpaidBefore transitions stale pending unpaid orders to expired and
// queues an event per order. Returns how many orders were expired.
func (s *service) ExpireUnpaidBefore(ctx context.Context, cutoff time.Time) (int, error) {
	expired := 0
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rows, err := repo.FindUnpaidBefore(ctx, cutoff)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find stale unpaid orders")
		}
		now := time.Now().UTC()
		for _, order := range rows {
			if err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusExpired); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire order")
			}
			event := outbox.DomainEvent{
				EventType:     enums.EventOrderExpired,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Data: payloads.OrderExpiredEvent{
					OrderID:       order.ID,
					OrderNumber:   order.OrderNumber,
					CustomerEmail: order.CustomerEmail,
					ExpiredAt:     now,
				},
			}
			if err := s.outbox.EmitIfNotExists(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue order expired event")
			}
			expired++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return expired, nil
}

func withProviderRef(metadata types.JSONMap, providerRef string) types.JSONMap {
	if metadata == nil {
		metadata = types.JSONMap{}
	}
	if providerRef != "" {
		metadata["provider_ref"] = providerRef
	}
	return metadata
}
