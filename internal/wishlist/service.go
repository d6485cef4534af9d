package wishlist

import (
	"context"

	"github.com/google/uuid"

	"github.com/aminufarouk/kiosa-backend/pkg/db/models"
	pkgerrors "github.com/aminufarouk/kiosa-backend/pkg/errors"
	"github.com/aminufarouk/kiosa-backend/pkg/logger"
)

type productChecker interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service manages per-customer saved products. Saves verify the product
// exists; removes of absent rows are reported as not found.
type Service interface {
	Save(ctx context.Context, customerEmail string, productID uuid.UUID) error
	Remove(ctx context.Context, customerEmail string, productID uuid.UUID) error
	List(ctx context.Context, customerEmail string) ([]models.WishlistItem, error)
}

type service struct {
	repo    Repository
	catalog productChecker
	logger  *logger.Logger
}

func NewService(repo Repository, catalog productChecker, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "wishlist repository required")
	}
	if catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog service required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &service{repo: repo, catalog: catalog, logger: logg}, nil
}

func (s *service) Save(ctx context.Context, customerEmail string, productID uuid.UUID) error {
	if customerEmail == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer email required")
	}
	if _, err := s.catalog.GetByID(ctx, productID); err != nil {
		return err
	}
	if err := s.repo.Add(ctx, customerEmail, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save wishlist item")
	}
	return nil
}

func (s *service) Remove(ctx context.Context, customerEmail string, productID uuid.UUID) error {
	if customerEmail == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer email required")
	}
	removed, err := s.repo.Remove(ctx, customerEmail, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist item")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "wishlist item not found")
	}
	return nil
}

func (s *service) List(ctx context.Context, customerEmail string) ([]models.WishlistItem, error) {
	if customerEmail == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email required")
	}
	items, err := s.repo.ListByEmail(ctx, customerEmail)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
	}
	return items, nil
}
