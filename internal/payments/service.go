package payments

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/aminufarouk/kiosa-backend/internal/orders"
	"github.com/aminufarouk/kiosa-backend/pkg/db/models"
	"github.com/aminufarouk/kiosa-backend/pkg/enums"
	pkgerrors "github.com/aminufarouk/kiosa-backend/pkg/errors"
	"github.com/aminufarouk/kiosa-backend/pkg/logger"
	"github.com/aminufarouk/kiosa-backend/pkg/metrics"
	"github.com/aminufarouk/kiosa-backend/pkg/paygate"
)

// amountEpsilon absorbs formatting drift in gateway-reported amounts. Anything
// beyond it is logged and counted but never blocks the transition.
var amountEpsilon = decimal.NewFromFloat(0.01)

// verifiedRef tags transitions confirmed through the status-check API, where
// no webhook-native transaction reference exists.
const verifiedRef = "verified via status check"

type ordersService interface {
	GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	MarkOrderPaid(ctx context.Context, orderNumber, providerRef string) (*orders.MarkPaidResult, error)
	MarkOrderFailed(ctx context.Context, orderNumber, providerRef, reason string) error
}

type statsRecorder interface {
	RecordOrder(ctx context.Context, customerEmail string, amount decimal.Decimal) error
}

type notificationSender interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order) error
}

type gatewayClient interface {
	CheckStatus(ctx context.Context, reference string) (*paygate.TransactionStatus, error)
}

// CallbackResult is the body returned to the gateway. The gateway retries on
// non-2xx, so it reads Success from the body rather than the HTTP code.
type CallbackResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// VerifyResult reports the order's payment state to a polling client.
type VerifyResult struct {
	Success       bool                `json:"success"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	Message       string              `json:"message"`
}

type ServiceParams struct {
	Orders        ordersService
	Stats         statsRecorder
	Notifications notificationSender
	Gateway       gatewayClient
	Metrics       *metrics.PaymentMetrics
	Logger        *logger.Logger
}

// Service reconciles payment confirmations arriving on either channel: the
// gateway's webhook callback and the client-initiated verify poll. Both funnel
// into the same atomic mark-paid primitive, which is what keeps the two
// channels from double-crediting an order.
type Service struct {
	orders        ordersService
	stats         statsRecorder
	notifications notificationSender
	gateway       gatewayClient
	metrics       *metrics.PaymentMetrics
	logger        *logger.Logger
}

// NewService validates dependencies. Gateway is optional: without credentials
// the verify path degrades to reporting the last known status.
func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders service required")
	}
	if params.Stats == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stats recorder required")
	}
	if params.Notifications == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notification sender required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		orders:        params.Orders,
		stats:         params.Stats,
		notifications: params.Notifications,
		gateway:       params.Gateway,
		metrics:       params.Metrics,
		logger:        params.Logger,
	}, nil
}

// HandleCallback processes a gateway webhook. The gateway redelivers on
// non-2xx responses, so every path through here must be safe to replay for
// the same order.
func (s *Service) HandleCallback(ctx context.Context, event *ConfirmationEvent) (*CallbackResult, error) {
	if event == nil || event.OrderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order reference required")
	}
	ctx = s.logger.WithOrderNumber(ctx, event.OrderNumber)

	order, err := s.orders.GetByOrderNumber(ctx, event.OrderNumber)
	if err != nil {
		if coded := pkgerrors.As(err); coded != nil && coded.Code() == pkgerrors.CodeNotFound {
			s.metrics.IncCallback(metrics.OutcomeNotFound)
		} else {
			s.metrics.IncCallback(metrics.OutcomeError)
		}
		return nil, err
	}

	if order.PaymentStatus == enums.PaymentStatusPaid {
		// Duplicate delivery for an order that already landed. Report success
		// so the gateway stops retrying; no side effects re-run.
		s.metrics.IncCallback(metrics.OutcomeAlreadyPaid)
		return &CallbackResult{Success: true, Message: "order already processed"}, nil
	}

	if !event.Success() {
		if err := s.orders.MarkOrderFailed(ctx, event.OrderNumber, event.ProviderRef, event.Message); err != nil {
			s.metrics.IncCallback(metrics.OutcomeError)
			return nil, err
		}
		s.metrics.IncCallback(metrics.OutcomeIgnored)
		s.metrics.IncTransition(string(enums.PaymentStatusFailed))
		s.logger.Warn(s.logger.WithField(ctx, "gateway_status", event.Status), "payment callback reported failure")
		return &CallbackResult{Success: false, Message: "payment not successful"}, nil
	}

	if event.Amount != nil {
		s.checkAmount(ctx, order, *event.Amount)
	}

	result, err := s.orders.MarkOrderPaid(ctx, event.OrderNumber, event.ProviderRef)
	if err != nil {
		s.metrics.IncCallback(metrics.OutcomeError)
		return nil, err
	}
	if result.Order == nil {
		s.metrics.IncCallback(metrics.OutcomeNotFound)
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if !result.Transitioned {
		// Lost the race against a concurrent confirmation. The winner owns
		// the side effects.
		s.metrics.IncCallback(metrics.OutcomeAlreadyPaid)
		return &CallbackResult{Success: true, Message: "order already processed"}, nil
	}

	s.metrics.IncCallback(metrics.OutcomeMarkedPaid)
	s.metrics.IncTransition(string(enums.PaymentStatusPaid))
	s.dispatchSideEffects(ctx, result.Order)
	return &CallbackResult{Success: true, Message: "payment confirmed"}, nil
}

// Verify is the client-facing fallback for late or lost webhooks. It never
// fails hard on an unreachable gateway; it degrades to reporting the order's
// current status.
func (s *Service) Verify(ctx context.Context, orderNumber string) (*VerifyResult, error) {
	if orderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	ctx = s.logger.WithOrderNumber(ctx, orderNumber)

	order, err := s.orders.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		if coded := pkgerrors.As(err); coded != nil && coded.Code() == pkgerrors.CodeNotFound {
			s.metrics.IncVerify(metrics.OutcomeNotFound)
		} else {
			s.metrics.IncVerify(metrics.OutcomeError)
		}
		return nil, err
	}

	if order.PaymentStatus == enums.PaymentStatusPaid {
		s.metrics.IncVerify(metrics.OutcomeAlreadyPaid)
		return &VerifyResult{
			Success:       true,
			Status:        order.Status,
			PaymentStatus: order.PaymentStatus,
			Message:       "payment already confirmed",
		}, nil
	}

	if s.gateway == nil {
		s.metrics.IncVerify(metrics.OutcomeIgnored)
		return s.unverified(order, "payment not yet confirmed"), nil
	}

	status, err := s.gateway.CheckStatus(ctx, orderNumber)
	if err != nil {
		// A dead gateway must not fail the poll; the client retries later.
		s.logger.Warn(ctx, "gateway status check failed")
		s.metrics.IncVerify(metrics.OutcomeError)
		return s.unverified(order, "payment not yet confirmed"), nil
	}

	if !isSuccessStatus(status.Status) {
		s.metrics.IncVerify(metrics.OutcomeIgnored)
		return s.unverified(order, "payment not yet confirmed"), nil
	}

	if !status.Amount.IsZero() {
		s.checkAmount(ctx, order, status.Amount)
	}

	providerRef := status.Reference
	if providerRef == "" {
		providerRef = verifiedRef
	}
	result, err := s.orders.MarkOrderPaid(ctx, orderNumber, providerRef)
	if err != nil {
		s.metrics.IncVerify(metrics.OutcomeError)
		return nil, err
	}
	if result.Order == nil {
		s.metrics.IncVerify(metrics.OutcomeNotFound)
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if result.Transitioned {
		s.metrics.IncVerify(metrics.OutcomeMarkedPaid)
		s.metrics.IncTransition(string(enums.PaymentStatusPaid))
		s.dispatchSideEffects(ctx, result.Order)
	} else {
		s.metrics.IncVerify(metrics.OutcomeAlreadyPaid)
	}

	return &VerifyResult{
		Success:       true,
		Status:        result.Order.Status,
		PaymentStatus: result.Order.PaymentStatus,
		Message:       "payment confirmed",
	}, nil
}

func (s *Service) unverified(order *models.Order, message string) *VerifyResult {
	return &VerifyResult{
		Success:       false,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Message:       message,
	}
}

// checkAmount compares the gateway-reported amount against the stored total.
// Gateways format amounts inconsistently, so a mismatch is observability, not
// a reason to hold a customer's payment.
func (s *Service) checkAmount(ctx context.Context, order *models.Order, reported decimal.Decimal) {
	if reported.Sub(order.Total).Abs().LessThanOrEqual(amountEpsilon) {
		return
	}
	s.metrics.IncAmountMismatch()
	s.logger.Warn(s.logger.WithFields(ctx, map[string]any{
		"reported_amount": reported.String(),
		"order_total":     order.Total.String(),
	}), "callback amount does not match order total")
}

// dispatchSideEffects runs the post-transition work. Each effect has its own
// error boundary: a notification or stats failure never unwinds a payment
// that already landed.
func (s *Service) dispatchSideEffects(ctx context.Context, order *models.Order) {
	if err := s.stats.RecordOrder(ctx, order.CustomerEmail, order.Total); err != nil {
		s.logger.Error(ctx, "record customer stats", err)
	}
	if err := s.notifications.SendOrderConfirmation(ctx, order); err != nil {
		s.logger.Error(ctx, "send order confirmation", err)
	}
}
