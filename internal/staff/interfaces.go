package staff

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aminufarouk/kiosa-backend/pkg/db/models"
)

// Repository persists back-office accounts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, user *models.StaffUser) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.StaffUser, error)
	FindByEmail(ctx context.Context, email string) (*models.StaffUser, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListActive(ctx context.Context) ([]models.StaffUser, error)
}
