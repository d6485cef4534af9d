package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/aminufarouk/kiosa-backend/pkg/logger"
)

const defaultUnpaidTTL = 24 * time.Hour

type unpaidOrderExpirer interface {
	ExpireUnpaidBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// ExpireUnpaidJobParams configure the stale-order sweep.
type ExpireUnpaidJobParams struct {
	Logger *logger.Logger
	Orders unpaidOrderExpirer
	TTL    time.Duration
}

// NewExpireUnpaidJob builds the job that cancels pending orders whose payment
// window has lapsed. Each expired order also emits an order.expired event so
// the customer is told.
func NewExpireUnpaidJob(params ExpireUnpaidJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultUnpaidTTL
	}
	return &expireUnpaidJob{
		logg:   params.Logger,
		orders: params.Orders,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

type expireUnpaidJob struct {
	logg   *logger.Logger
	orders unpaidOrderExpirer
	ttl    time.Duration
	now    func() time.Time
}

func (j *expireUnpaidJob) Name() string { return "expire-unpaid-orders" }

func (j *expireUnpaidJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	expired, err := j.orders.ExpireUnpaidBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("expire unpaid orders: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"orders_expired": expired,
	})
	j.logg.Info(logCtx, "unpaid order sweep complete")
	return nil
}
