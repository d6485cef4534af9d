package notifications

import (
	"context"

	"github.com/aminufarouk/kiosa-backend/pkg/db/models"
	"github.com/aminufarouk/kiosa-backend/pkg/logger"
)

// LogSender writes notifications to the log instead of an outside channel.
// Used in development and as the fallback when no delivery transport is
// configured.
type LogSender struct {
	logg *logger.Logger
}

func NewLogSender(logg *logger.Logger) *LogSender {
	return &LogSender{logg: logg}
}

func (s *LogSender) Send(ctx context.Context, notification *models.Notification) error {
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"customer_email":    notification.CustomerEmail,
		"notification_type": notification.Type,
		"title":             notification.Title,
	}), "notification send (log transport)")
	return nil
}
