package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aminufarouk/kiosa-backend/pkg/db/models"
	"github.com/aminufarouk/kiosa-backend/pkg/enums"
	"github.com/aminufarouk/kiosa-backend/pkg/pagination"
)

// Repository persists notification rows. Rows double as the audit trail for
// what the customer was told and when.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, notification *models.Notification) error
	ExistsForOrder(ctx context.Context, orderNumber string, notificationType enums.NotificationType) (bool, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	ListUnsentBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Notification, error)
	DeleteSentBefore(ctx context.Context, cutoff time.Time) (int64, error)
	ListByCustomer(ctx context.Context, customerEmail string, params pagination.Params) ([]models.Notification, string, error)
}

// Sender delivers a notification over an outside channel (email/SMS/push).
// Delivery infrastructure is a boundary; implementations live with the
// transport they wrap.
type Sender interface {
	Send(ctx context.Context, notification *models.Notification) error
}
