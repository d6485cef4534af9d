package wishlist

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aminufarouk/kiosa-backend/pkg/db/models"
)

// Repository persists wishlist rows, unique per (customer, product).
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Add(ctx context.Context, customerEmail string, productID uuid.UUID) error
	Remove(ctx context.Context, customerEmail string, productID uuid.UUID) (bool, error)
	ListByEmail(ctx context.Context, customerEmail string) ([]models.WishlistItem, error)
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

// Add is idempotent: re-saving an already-saved product is a no-op.
func (r *repository) Add(ctx context.Context, customerEmail string, productID uuid.UUID) error {
	item := models.WishlistItem{
		ID:            uuid.New(),
		CustomerEmail: customerEmail,
		ProductID:     productID,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_email"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(&item).Error
}

func (r *repository) Remove(ctx context.Context, customerEmail string, productID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("customer_email = ? AND product_id = ?", customerEmail, productID).
		Delete(&models.WishlistItem{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) ListByEmail(ctx context.Context, customerEmail string) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := r.db.WithContext(ctx).
		Where("customer_email = ?", customerEmail).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
