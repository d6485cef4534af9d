package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/aminufarouk/kiosa-backend/pkg/types"
)

// CartRecord persists the customer's cart server-side. The client owns the
// cart's composition; PUT replaces the items payload wholesale.
type CartRecord struct {
	ID            uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerEmail string        `gorm:"column:customer_email;type:text;not null;uniqueIndex"`
	Items         types.JSONMap `gorm:"column:items;type:jsonb;serializer:json"`
	UpdatedAt     time.Time     `gorm:"column:updated_at;autoUpdateTime"`
	CreatedAt     time.Time     `gorm:"column:created_at;autoCreateTime"`
}
