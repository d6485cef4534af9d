package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/aminufarouk/kiosa-backend/pkg/db/models"
	"github.com/aminufarouk/kiosa-backend/pkg/enums"
	"github.com/aminufarouk/kiosa-backend/pkg/logger"
	"github.com/aminufarouk/kiosa-backend/pkg/outbox"
	"github.com/aminufarouk/kiosa-backend/pkg/outbox/payloads"
)

const consumerName = "notification-worker"

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer turns order events into customer notifications. It is the async
// backstop behind the direct dispatch in the payment path: the notification
// service dedupes per order, and Redis dedupes per event, so redelivered or
// double-published events fold into one send.
type Consumer struct {
	notifications Service
	manager       idempotencyChecker
	logg          *logger.Logger
}

func NewConsumer(notifications Service, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if notifications == nil {
		return nil, fmt.Errorf("notifications service required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{notifications: notifications, manager: manager, logg: logg}, nil
}

// Process handles one outbox envelope. Returning an error nacks the message
// so the subscription redelivers it.
func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": eventType,
	})

	if envelope.EventID == "" {
		return fmt.Errorf("event id missing")
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		return fmt.Errorf("parse event id: %w", err)
	}

	already, err := c.manager.CheckAndMarkProcessed(ctx, consumerName, eventID)
	if err != nil {
		return fmt.Errorf("idempotency check: %w", err)
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	if err := c.handle(ctx, eventType, envelope); err != nil {
		c.logg.Error(logCtx, "handle order event", err)
		_ = c.manager.Delete(ctx, consumerName, eventID)
		return err
	}

	c.logg.Info(logCtx, "order event processed")
	return nil
}

func (c *Consumer) handle(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	switch eventType {
	case enums.EventOrderCreated:
		var payload payloads.OrderCreatedEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return fmt.Errorf("decode order created payload: %w", err)
		}
		return c.notifications.SendOrderCreated(ctx, &models.Order{
			ID:            payload.OrderID,
			OrderNumber:   payload.OrderNumber,
			CustomerEmail: payload.CustomerEmail,
			Total:         payload.Total,
			Currency:      payload.Currency,
		})
	case enums.EventOrderPaid:
		var payload payloads.OrderPaidEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return fmt.Errorf("decode order paid payload: %w", err)
		}
		return c.notifications.SendOrderConfirmation(ctx, &models.Order{
			ID:            payload.OrderID,
			OrderNumber:   payload.OrderNumber,
			CustomerEmail: payload.CustomerEmail,
			Total:         payload.Total,
			Currency:      payload.Currency,
		})
	case enums.EventOrderExpired:
		var payload payloads.OrderExpiredEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return fmt.Errorf("decode order expired payload: %w", err)
		}
		return c.notifications.SendOrderExpired(ctx, payload.CustomerEmail, payload.OrderNumber)
	default:
		// Unknown types are acked; a new producer version must not wedge the
		// subscription.
		return nil
	}
}
