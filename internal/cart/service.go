package cart

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/aminufarouk/kiosa-backend/pkg/db/models"
	pkgerrors "github.com/aminufarouk/kiosa-backend/pkg/errors"
	"github.com/aminufarouk/kiosa-backend/pkg/logger"
	"github.com/aminufarouk/kiosa-backend/pkg/types"
)

// Service reads and replaces the customer's cart snapshot. A missing cart is
// returned as an empty one, never an error; checkout clears it after the
// order is placed.
type Service interface {
	Get(ctx context.Context, customerEmail string) (*models.CartRecord, error)
	Replace(ctx context.Context, customerEmail string, items types.JSONMap) (*models.CartRecord, error)
	Clear(ctx context.Context, customerEmail string) error
}

type service struct {
	repo   Repository
	logger *logger.Logger
}

func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart repository required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &service{repo: repo, logger: logg}, nil
}

func (s *service) Get(ctx context.Context, customerEmail string) (*models.CartRecord, error) {
	if customerEmail == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email required")
	}
	record, err := s.repo.FindByEmail(ctx, customerEmail)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.CartRecord{CustomerEmail: customerEmail, Items: types.JSONMap{}}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return record, nil
}

func (s *service) Replace(ctx context.Context, customerEmail string, items types.JSONMap) (*models.CartRecord, error) {
	if customerEmail == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email required")
	}
	if items == nil {
		items = types.JSONMap{}
	}
	record, err := s.repo.Upsert(ctx, customerEmail, items)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return record, nil
}

func (s *service) Clear(ctx context.Context, customerEmail string) error {
	if customerEmail == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer email required")
	}
	if err := s.repo.DeleteByEmail(ctx, customerEmail); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}
