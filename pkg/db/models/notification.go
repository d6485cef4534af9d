package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/aminufarouk/kiosa-backend/pkg/enums"
)

// Notification stores a customer-facing notification row. Delivery to the
// outside channel (email/SMS/push) happens in the worker; the row is the
// audit trail.
type Notification struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerEmail string                 `gorm:"column:customer_email;type:text;not null;index"`
	Type          enums.NotificationType `gorm:"column:type;type:notification_type;not null"`
	Title         string                 `gorm:"column:title;type:text;not null"`
	Message       string                 `gorm:"column:message;type:text;not null"`
	OrderNumber   *string                `gorm:"column:order_number;type:text"`
	SentAt        *time.Time             `gorm:"column:sent_at"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
}
