package staff

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aminufarouk/kiosa-backend/pkg/auth"
	"github.com/aminufarouk/kiosa-backend/pkg/config"
	"github.com/aminufarouk/kiosa-backend/pkg/db"
	"github.com/aminufarouk/kiosa-backend/pkg/db/models"
	"github.com/aminufarouk/kiosa-backend/pkg/enums"
	pkgerrors "github.com/aminufarouk/kiosa-backend/pkg/errors"
	"github.com/aminufarouk/kiosa-backend/pkg/logger"
	"github.com/aminufarouk/kiosa-backend/pkg/security"
)

const tempPasswordLength = 12

type sessionManager interface {
	Activate(ctx context.Context, staffID, jti string) error
	Revoke(ctx context.Context, staffID string) error
}

// LoginResult carries the minted token and the account it belongs to.
type LoginResult struct {
	Token string
	Staff *models.StaffUser
}

// CreateStaffInput is the admin payload for provisioning an account. The
// account starts with a generated temporary password returned once.
type CreateStaffInput struct {
	Email    string          `json:"email" validate:"required,email"`
	FullName string          `json:"full_name" validate:"required,min=2,max=120"`
	Role     enums.StaffRole `json:"role" validate:"required"`
}

// Service manages back-office accounts and their sessions.
type Service interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Logout(ctx context.Context, staffID uuid.UUID) error
	CreateStaff(ctx context.Context, input CreateStaffInput) (*models.StaffUser, string, error)
	ChangePassword(ctx context.Context, staffID uuid.UUID, current, next string) error
	DeactivateStaff(ctx context.Context, staffID uuid.UUID) error
	ListStaff(ctx context.Context) ([]models.StaffUser, error)
	GetByID(ctx context.Context, staffID uuid.UUID) (*models.StaffUser, error)
}

type ServiceParams struct {
	Repo      Repository
	Sessions  sessionManager
	JWT       config.JWTConfig
	Passwords config.PasswordConfig
	Logger    *logger.Logger
}

type service struct {
	repo      Repository
	sessions  sessionManager
	jwt       config.JWTConfig
	passwords config.PasswordConfig
	logger    *logger.Logger
	now       func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "staff repository required")
	}
	if params.Sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session manager required")
	}
	if params.JWT.Secret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "jwt config required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &service{
		repo:      params.Repo,
		sessions:  params.Sessions,
		jwt:       params.JWT,
		passwords: params.Passwords,
		logger:    params.Logger,
		now:       time.Now,
	}, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password required")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Same error as a bad password; do not leak which emails exist.
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load staff account")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	jti := uuid.NewString()
	token, err := auth.MintStaffToken(s.jwt, s.now(), auth.StaffTokenPayload{
		StaffID: user.ID,
		Email:   user.Email,
		Role:    user.Role,
		JTI:     jti,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint staff token")
	}
	if err := s.sessions.Activate(ctx, user.ID.String(), jti); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activate session")
	}

	now := s.now().UTC()
	if err := s.repo.Update(ctx, user.ID, map[string]any{"last_login_at": now}); err != nil {
		s.logger.Error(ctx, "record last login", err)
	}
	user.LastLoginAt = &now

	s.logger.Info(s.logger.WithStaffID(ctx, user.ID.String()), "staff login")
	return &LoginResult{Token: token, Staff: user}, nil
}

func (s *service) Logout(ctx context.Context, staffID uuid.UUID) error {
	if staffID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "staff id required")
	}
	if err := s.sessions.Revoke(ctx, staffID.String()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) CreateStaff(ctx context.Context, input CreateStaffInput) (*models.StaffUser, string, error) {
	if strings.TrimSpace(input.Email) == "" || strings.TrimSpace(input.FullName) == "" {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "email and full name required")
	}
	if !input.Role.IsValid() {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "unknown staff role")
	}

	tempPassword, err := security.GenerateTempPassword(tempPasswordLength)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate temporary password")
	}
	hash, err := security.HashPassword(tempPassword, s.passwords)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.StaffUser{
		Email:        input.Email,
		FullName:     strings.TrimSpace(input.FullName),
		PasswordHash: hash,
		Role:         input.Role,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, "", pkgerrors.New(pkgerrors.CodeConflict, "staff email already registered")
		}
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create staff account")
	}

	s.logger.Info(s.logger.WithStaffID(ctx, user.ID.String()), "staff account created")
	return user, tempPassword, nil
}

func (s *service) ChangePassword(ctx context.Context, staffID uuid.UUID, current, next string) error {
	if len(next) < 8 {
		return pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	user, err := s.GetByID(ctx, staffID)
	if err != nil {
		return err
	}
	ok, err := security.VerifyPassword(current, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "current password incorrect")
	}

	hash, err := security.HashPassword(next, s.passwords)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.repo.Update(ctx, staffID, map[string]any{"password_hash": hash}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
	}

	// Force a fresh login with the new password.
	if err := s.sessions.Revoke(ctx, staffID.String()); err != nil {
		s.logger.Error(ctx, "revoke session after password change", err)
	}
	return nil
}

func (s *service) DeactivateStaff(ctx context.Context, staffID uuid.UUID) error {
	if _, err := s.GetByID(ctx, staffID); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, staffID, map[string]any{"is_active": false}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate staff account")
	}
	if err := s.sessions.Revoke(ctx, staffID.String()); err != nil {
		s.logger.Error(ctx, "revoke session on deactivation", err)
	}
	s.logger.Info(s.logger.WithStaffID(ctx, staffID.String()), "staff account deactivated")
	return nil
}

func (s *service) ListStaff(ctx context.Context) ([]models.StaffUser, error) {
	users, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list staff")
	}
	return users, nil
}

func (s *service) GetByID(ctx context.Context, staffID uuid.UUID) (*models.StaffUser, error) {
	user, err := s.repo.FindByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "staff account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load staff account")
	}
	return user, nil
}
