package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/aminufarouk/kiosa-backend/pkg/logger"
)

const (
	defaultNotificationRetentionDays = 90
	defaultRedeliveryBatch           = 100

	// Rows younger than this are likely still in a first delivery attempt.
	redeliveryGracePeriod = 10 * time.Minute
)

type notificationPruner interface {
	DeleteSentBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type notificationRedeliverer interface {
	RedeliverUnsent(ctx context.Context, olderThan time.Time, limit int) (int, error)
}

// NotificationCleanupJobParams configure retention for delivered notifications.
type NotificationCleanupJobParams struct {
	Logger        *logger.Logger
	Repository    notificationPruner
	RetentionDays int
}

func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	retention := params.RetentionDays
	if retention <= 0 {
		retention = defaultNotificationRetentionDays
	}
	return &notificationCleanupJob{
		logg:      params.Logger,
		repo:      params.Repository,
		retention: retention,
		now:       time.Now,
	}, nil
}

type notificationCleanupJob struct {
	logg      *logger.Logger
	repo      notificationPruner
	retention int
	now       func() time.Time
}

func (j *notificationCleanupJob) Name() string { return "notification-cleanup" }

func (j *notificationCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	deleted, err := j.repo.DeleteSentBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("notification cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "notification retention sweep complete")
	return nil
}

// NotificationRedeliveryJobParams configure the retry sweep for notifications
// whose first delivery attempt failed.
type NotificationRedeliveryJobParams struct {
	Logger        *logger.Logger
	Notifications notificationRedeliverer
	BatchSize     int
}

func NewNotificationRedeliveryJob(params NotificationRedeliveryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultRedeliveryBatch
	}
	return &notificationRedeliveryJob{
		logg:          params.Logger,
		notifications: params.Notifications,
		batch:         batch,
		now:           time.Now,
	}, nil
}

type notificationRedeliveryJob struct {
	logg          *logger.Logger
	notifications notificationRedeliverer
	batch         int
	now           func() time.Time
}

func (j *notificationRedeliveryJob) Name() string { return "notification-redelivery" }

func (j *notificationRedeliveryJob) Run(ctx context.Context) error {
	olderThan := j.now().UTC().Add(-redeliveryGracePeriod)
	delivered, err := j.notifications.RedeliverUnsent(ctx, olderThan, j.batch)
	if err != nil {
		return fmt.Errorf("notification redelivery: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "redelivered", delivered)
	j.logg.Info(logCtx, "notification redelivery sweep complete")
	return nil
}
