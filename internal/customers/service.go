package customers

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aminufarouk/kiosa-backend/pkg/db/models"
	pkgerrors "github.com/aminufarouk/kiosa-backend/pkg/errors"
	"github.com/aminufarouk/kiosa-backend/pkg/logger"
)

const defaultTopSpenders = 10

// Service maintains customer purchase aggregates. RecordOrder is called
// best-effort after a payment lands; callers own the error boundary.
type Service interface {
	RecordOrder(ctx context.Context, customerEmail string, amount decimal.Decimal) error
	GetStats(ctx context.Context, email string) (*models.CustomerStats, error)
	TopSpenders(ctx context.Context, limit int) ([]models.CustomerStats, error)
}

type service struct {
	repo   Repository
	logger *logger.Logger
	now    func() time.Time
}

func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "customers repository required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &service{repo: repo, logger: logg, now: time.Now}, nil
}

func (s *service) RecordOrder(ctx context.Context, customerEmail string, amount decimal.Decimal) error {
	if customerEmail == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer email required")
	}
	if amount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "order amount cannot be negative")
	}
	if err := s.repo.UpsertOrderStats(ctx, customerEmail, amount, s.now().UTC()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer stats")
	}
	s.logger.Info(s.logger.WithField(ctx, "customer_email", customerEmail), "customer stats updated")
	return nil
}

func (s *service) GetStats(ctx context.Context, email string) (*models.CustomerStats, error) {
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email required")
	}
	stats, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer stats not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer stats")
	}
	return stats, nil
}

func (s *service) TopSpenders(ctx context.Context, limit int) ([]models.CustomerStats, error) {
	if limit <= 0 {
		limit = defaultTopSpenders
	}
	rows, err := s.repo.ListTopSpenders(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list top spenders")
	}
	return rows, nil
}
