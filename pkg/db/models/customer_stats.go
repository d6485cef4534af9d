package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerStats aggregates per-customer purchase history, keyed by email.
// Updated best-effort after a successful payment transition.
type CustomerStats struct {
	Email         string          `gorm:"column:email;type:text;primaryKey"`
	OrderCount    int             `gorm:"column:order_count;not null;default:0"`
	LifetimeSpend decimal.Decimal `gorm:"column:lifetime_spend;type:numeric(14,2);not null;default:0"`
	LastOrderAt   *time.Time      `gorm:"column:last_order_at"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
