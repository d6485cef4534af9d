package customers

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aminufarouk/kiosa-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

// UpsertOrderStats folds one paid order into the customer's aggregates. The
// increment happens inside the conflict clause so concurrent confirmations
// for different orders of the same customer never lose an update.
func (r *repository) UpsertOrderStats(ctx context.Context, email string, amount decimal.Decimal, at time.Time) error {
	stats := models.CustomerStats{
		Email:         email,
		OrderCount:    1,
		LifetimeSpend: amount,
		LastOrderAt:   &at,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "email"}},
			DoUpdates: clause.Assignments(map[string]any{
				"order_count":    gorm.Expr("order_count + 1"),
				"lifetime_spend": gorm.Expr("lifetime_spend + ?", amount),
				"last_order_at":  at,
				"updated_at":     at,
			}),
		}).
		Create(&stats).Error
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*models.CustomerStats, error) {
	var stats models.CustomerStats
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&stats).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *repository) ListTopSpenders(ctx context.Context, limit int) ([]models.CustomerStats, error) {
	var rows []models.CustomerStats
	err := r.db.WithContext(ctx).
		Order("lifetime_spend DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
