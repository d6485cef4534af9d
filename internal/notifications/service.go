package notifications

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/aminufarouk/kiosa-backend/pkg/db"
	"github.com/aminufarouk/kiosa-backend/pkg/db/models"
	"github.com/aminufarouk/kiosa-backend/pkg/enums"
	pkgerrors "github.com/aminufarouk/kiosa-backend/pkg/errors"
	"github.com/aminufarouk/kiosa-backend/pkg/logger"
	"github.com/aminufarouk/kiosa-backend/pkg/pagination"
)

// Service creates notification rows and hands them to the configured Sender.
// Per-order sends are deduplicated on (order_number, type), so a confirmation
// arriving through both the callback and the event worker lands once.
type Service interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order) error
	SendOrderCreated(ctx context.Context, order *models.Order) error
	SendOrderExpired(ctx context.Context, customerEmail, orderNumber string) error
	RedeliverUnsent(ctx context.Context, olderThan time.Time, limit int) (int, error)
	ListByCustomer(ctx context.Context, customerEmail string, params pagination.Params) ([]models.Notification, string, error)
}

type service struct {
	repo   Repository
	sender Sender
	logger *logger.Logger
}

func NewService(repo Repository, sender Sender, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notifications repository required")
	}
	if sender == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notification sender required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &service{repo: repo, sender: sender, logger: logg}, nil
}

func (s *service) SendOrderConfirmation(ctx context.Context, order *models.Order) error {
	if order == nil || order.OrderNumber == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	return s.deliverOnce(ctx, &models.Notification{
		CustomerEmail: order.CustomerEmail,
		Type:          enums.NotificationTypeOrderConfirmation,
		Title:         "Payment received",
		Message:       fmt.Sprintf("We have received payment for order %s. It is now being processed.", order.OrderNumber),
		OrderNumber:   &order.OrderNumber,
	})
}

func (s *service) SendOrderCreated(ctx context.Context, order *models.Order) error {
	if order == nil || order.OrderNumber == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	return s.deliverOnce(ctx, &models.Notification{
		CustomerEmail: order.CustomerEmail,
		Type:          enums.NotificationTypeOrderCreated,
		Title:         "Order placed",
		Message:       fmt.Sprintf("Your order %s has been placed. Complete payment to start processing.", order.OrderNumber),
		OrderNumber:   &order.OrderNumber,
	})
}

func (s *service) SendOrderExpired(ctx context.Context, customerEmail, orderNumber string) error {
	if customerEmail == "" || orderNumber == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer email and order number required")
	}
	return s.deliverOnce(ctx, &models.Notification{
		CustomerEmail: customerEmail,
		Type:          enums.NotificationTypeOrderExpired,
		Title:         "Order expired",
		Message:       fmt.Sprintf("Order %s was cancelled because payment was not received in time.", orderNumber),
		OrderNumber:   &orderNumber,
	})
}

// RedeliverUnsent retries rows whose initial delivery failed. Only rows older
// than the cutoff are picked up so in-flight sends are not double-delivered.
func (s *service) RedeliverUnsent(ctx context.Context, olderThan time.Time, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.repo.ListUnsentBefore(ctx, olderThan, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list unsent notifications")
	}

	delivered := 0
	var errs []error
	for i := range rows {
		notification := rows[i]
		logCtx := s.logger.WithFields(ctx, map[string]any{
			"notification_id":   notification.ID,
			"notification_type": notification.Type,
		})
		if err := s.sender.Send(ctx, &notification); err != nil {
			// The row keeps its null sent_at, so the next sweep picks it up.
			s.logger.Error(logCtx, "notification redelivery failed", err)
			continue
		}
		if err := s.repo.MarkSent(ctx, notification.ID); err != nil {
			// Delivered but not marked: the next sweep would send it again.
			s.logger.Error(logCtx, "mark notification sent", err)
			errs = append(errs, fmt.Errorf("mark notification %s sent: %w", notification.ID, err))
			continue
		}
		delivered++
	}
	return delivered, multierr.Combine(errs...)
}

func (s *service) ListByCustomer(ctx context.Context, customerEmail string, params pagination.Params) ([]models.Notification, string, error) {
	if customerEmail == "" {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "customer email required")
	}
	rows, cursor, err := s.repo.ListByCustomer(ctx, customerEmail, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	return rows, cursor, nil
}

// deliverOnce persists the row, then delivers. A delivery failure leaves the
// row with a null sent_at so the worker can retry it; it is not surfaced as
// an error because delivery is best-effort for every caller.
//
// Per-order dedup rests on the unique (order_number, type) index, not on the
// existence check: the callback dispatch and the event worker can race for
// the same order, and both pass ExistsForOrder before either inserts. The
// existence check is only the fast path.
func (s *service) deliverOnce(ctx context.Context, notification *models.Notification) error {
	if notification.OrderNumber != nil {
		exists, err := s.repo.ExistsForOrder(ctx, *notification.OrderNumber, notification.Type)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing notification")
		}
		if exists {
			return nil
		}
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		if notification.OrderNumber != nil && db.IsUniqueViolation(err, "") {
			// The other dispatcher won the insert; the row and its delivery
			// belong to the winner.
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}

	logCtx := s.logger.WithFields(ctx, map[string]any{
		"notification_id":   notification.ID,
		"notification_type": notification.Type,
	})
	if err := s.sender.Send(ctx, notification); err != nil {
		s.logger.Error(logCtx, "notification delivery failed", err)
		return nil
	}
	if err := s.repo.MarkSent(ctx, notification.ID); err != nil {
		s.logger.Error(logCtx, "mark notification sent", err)
		return nil
	}
	s.logger.Info(logCtx, "notification delivered")
	return nil
}
