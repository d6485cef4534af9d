package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aminufarouk/kiosa-backend/pkg/db/models"
	"github.com/aminufarouk/kiosa-backend/pkg/types"
)

// Repository persists server-side cart snapshots, one row per customer.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, customerEmail string, items types.JSONMap) (*models.CartRecord, error)
	FindByEmail(ctx context.Context, customerEmail string) (*models.CartRecord, error)
	DeleteByEmail(ctx context.Context, customerEmail string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

// Upsert replaces the items payload wholesale. The client owns cart
// composition; the server only snapshots it.
func (r *repository) Upsert(ctx context.Context, customerEmail string, items types.JSONMap) (*models.CartRecord, error) {
	record := models.CartRecord{
		ID:            uuid.New(),
		CustomerEmail: customerEmail,
		Items:         items,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_email"}},
			DoUpdates: clause.AssignmentColumns([]string{"items", "updated_at"}),
		}).
		Create(&record).Error
	if err != nil {
		return nil, err
	}
	return r.FindByEmail(ctx, customerEmail)
}

func (r *repository) FindByEmail(ctx context.Context, customerEmail string) (*models.CartRecord, error) {
	var record models.CartRecord
	if err := r.db.WithContext(ctx).Where("customer_email = ?", customerEmail).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) DeleteByEmail(ctx context.Context, customerEmail string) error {
	return r.db.WithContext(ctx).
		Where("customer_email = ?", customerEmail).
		Delete(&models.CartRecord{}).Error
}
