package cron

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubExpirer struct {
	cutoff  time.Time
	expired int
	err     error
}

func (s *stubExpirer) ExpireUnpaidBefore(ctx context.Context, cutoff time.Time) (int, error) {
	s.cutoff = cutoff
	return s.expired, s.err
}

func TestExpireUnpaidJobUsesConfiguredTTL(t *testing.T) {
	expirer := &stubExpirer{expired: 3}
	job, err := NewExpireUnpaidJob(ExpireUnpaidJobParams{
		Logger: cronTestLogger(),
		Orders: expirer,
		TTL:    48 * time.Hour,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	frozen := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	job.(*expireUnpaidJob).now = func() time.Time { return frozen }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := frozen.Add(-48 * time.Hour)
	if !expirer.cutoff.Equal(want) {
		t.Fatalf("cutoff = %s, want %s", expirer.cutoff, want)
	}
}

func TestExpireUnpaidJobPropagatesError(t *testing.T) {
	job, err := NewExpireUnpaidJob(ExpireUnpaidJobParams{
		Logger: cronTestLogger(),
		Orders: &stubExpirer{err: errors.New("db down")},
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected the sweep error to surface")
	}
}

type stubOutboxPruner struct {
	cutoff  time.Time
	deleted int64
}

func (s *stubOutboxPruner) DeletePublishedBefore(cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return s.deleted, nil
}

func TestOutboxRetentionJobCutoff(t *testing.T) {
	pruner := &stubOutboxPruner{deleted: 12}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:        cronTestLogger(),
		Repository:    pruner,
		RetentionDays: 7,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	frozen := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	job.(*outboxRetentionJob).now = func() time.Time { return frozen }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := frozen.Add(-7 * 24 * time.Hour)
	if !pruner.cutoff.Equal(want) {
		t.Fatalf("cutoff = %s, want %s", pruner.cutoff, want)
	}
}

type stubNotificationPruner struct {
	cutoff time.Time
}

func (s *stubNotificationPruner) DeleteSentBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return 0, nil
}

func TestNotificationCleanupJobDefaultRetention(t *testing.T) {
	pruner := &stubNotificationPruner{}
	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:     cronTestLogger(),
		Repository: pruner,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	frozen := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	job.(*notificationCleanupJob).now = func() time.Time { return frozen }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := frozen.Add(-time.Duration(defaultNotificationRetentionDays) * 24 * time.Hour)
	if !pruner.cutoff.Equal(want) {
		t.Fatalf("cutoff = %s, want %s", pruner.cutoff, want)
	}
}

type stubRedeliverer struct {
	olderThan time.Time
	limit     int
	delivered int
}

func (s *stubRedeliverer) RedeliverUnsent(ctx context.Context, olderThan time.Time, limit int) (int, error) {
	s.olderThan = olderThan
	s.limit = limit
	return s.delivered, nil
}

func TestNotificationRedeliveryJobAppliesGracePeriod(t *testing.T) {
	redeliverer := &stubRedeliverer{delivered: 2}
	job, err := NewNotificationRedeliveryJob(NotificationRedeliveryJobParams{
		Logger:        cronTestLogger(),
		Notifications: redeliverer,
		BatchSize:     25,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	frozen := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	job.(*notificationRedeliveryJob).now = func() time.Time { return frozen }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !redeliverer.olderThan.Equal(frozen.Add(-redeliveryGracePeriod)) {
		t.Fatalf("olderThan = %s, want grace period before now", redeliverer.olderThan)
	}
	if redeliverer.limit != 25 {
		t.Fatalf("limit = %d, want 25", redeliverer.limit)
	}
}
