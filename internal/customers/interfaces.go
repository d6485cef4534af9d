package customers

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aminufarouk/kiosa-backend/pkg/db/models"
)

// Repository persists per-customer purchase aggregates.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	UpsertOrderStats(ctx context.Context, email string, amount decimal.Decimal, at time.Time) error
	FindByEmail(ctx context.Context, email string) (*models.CustomerStats, error)
	ListTopSpenders(ctx context.Context, limit int) ([]models.CustomerStats, error)
}
