package staff

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aminufarouk/kiosa-backend/pkg/auth"
	"github.com/aminufarouk/kiosa-backend/pkg/config"
	"github.com/aminufarouk/kiosa-backend/pkg/db/models"
	"github.com/aminufarouk/kiosa-backend/pkg/enums"
	pkgerrors "github.com/aminufarouk/kiosa-backend/pkg/errors"
	"github.com/aminufarouk/kiosa-backend/pkg/logger"
	"github.com/aminufarouk/kiosa-backend/pkg/security"
)

type stubStaffRepo struct {
	byEmail    map[string]*models.StaffUser
	byID       map[uuid.UUID]*models.StaffUser
	updates    []map[string]any
	createErr  error
	createdIDs []uuid.UUID
}

func newStubStaffRepo() *stubStaffRepo {
	return &stubStaffRepo{
		byEmail: map[string]*models.StaffUser{},
		byID:    map[uuid.UUID]*models.StaffUser{},
	}
}

func (r *stubStaffRepo) add(user *models.StaffUser) {
	r.byEmail[user.Email] = user
	r.byID[user.ID] = user
}

func (r *stubStaffRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *stubStaffRepo) Create(ctx context.Context, user *models.StaffUser) error {
	if r.createErr != nil {
		return r.createErr
	}
	user.ID = uuid.New()
	r.createdIDs = append(r.createdIDs, user.ID)
	r.add(user)
	return nil
}

func (r *stubStaffRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.StaffUser, error) {
	user, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *stubStaffRepo) FindByEmail(ctx context.Context, email string) (*models.StaffUser, error) {
	user, ok := r.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *stubStaffRepo) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	r.updates = append(r.updates, fields)
	if user, ok := r.byID[id]; ok {
		if hash, ok := fields["password_hash"].(string); ok {
			user.PasswordHash = hash
		}
		if active, ok := fields["is_active"].(bool); ok {
			user.IsActive = active
		}
	}
	return nil
}

func (r *stubStaffRepo) ListActive(ctx context.Context) ([]models.StaffUser, error) {
	var out []models.StaffUser
	for _, user := range r.byID {
		if user.IsActive {
			out = append(out, *user)
		}
	}
	return out, nil
}

type fakeSessions struct {
	active  map[string]string
	revoked []string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{active: map[string]string{}}
}

func (f *fakeSessions) Activate(ctx context.Context, staffID, jti string) error {
	f.active[staffID] = jti
	return nil
}

func (f *fakeSessions) Revoke(ctx context.Context, staffID string) error {
	delete(f.active, staffID)
	f.revoked = append(f.revoked, staffID)
	return nil
}

var testPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

var testJWTConfig = config.JWTConfig{
	Secret:            "unit-test-secret",
	Issuer:            "kiosa-test",
	ExpirationMinutes: 30,
}

type staffFixture struct {
	repo     *stubStaffRepo
	sessions *fakeSessions
	service  Service
}

func newStaffFixture(t *testing.T) *staffFixture {
	t.Helper()
	repo := newStubStaffRepo()
	sessions := newFakeSessions()
	log := logger.New(logger.Options{ServiceName: "staff-test", Level: logger.ParseLevel("error")})
	svc, err := NewService(ServiceParams{
		Repo:      repo,
		Sessions:  sessions,
		JWT:       testJWTConfig,
		Passwords: testPasswordConfig,
		Logger:    log,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &staffFixture{repo: repo, sessions: sessions, service: svc}
}

func seedStaff(t *testing.T, repo *stubStaffRepo, email, password string, role enums.StaffRole, active bool) *models.StaffUser {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.StaffUser{
		ID:           uuid.New(),
		Email:        email,
		FullName:     "Test User",
		PasswordHash: hash,
		Role:         role,
		IsActive:     active,
	}
	repo.add(user)
	return user
}

func TestLoginMintsTokenAndActivatesSession(t *testing.T) {
	f := newStaffFixture(t)
	user := seedStaff(t, f.repo, "ade@kiosa.ng", "s3cret-pass", enums.StaffRoleSupport, true)

	result, err := f.service.Login(context.Background(), "  Ade@Kiosa.ng ", "s3cret-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected a signed token")
	}
	claims, err := auth.ParseStaffToken(testJWTConfig, result.Token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.StaffID != user.ID {
		t.Fatalf("token staff id = %s, want %s", claims.StaffID, user.ID)
	}
	if got := f.sessions.active[user.ID.String()]; got != claims.ID {
		t.Fatalf("active session jti = %q, want token jti %q", got, claims.ID)
	}
	if result.Staff.LastLoginAt == nil {
		t.Fatal("expected last login to be stamped")
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	f := newStaffFixture(t)
	seedStaff(t, f.repo, "ade@kiosa.ng", "s3cret-pass", enums.StaffRoleSupport, true)

	_, err := f.service.Login(context.Background(), "ade@kiosa.ng", "wrong")
	assertErrorCode(t, err, pkgerrors.CodeUnauthorized)
	if len(f.sessions.active) != 0 {
		t.Fatal("no session should be activated for a failed login")
	}
}

func TestLoginRejectsUnknownEmailWithSameError(t *testing.T) {
	f := newStaffFixture(t)
	seedStaff(t, f.repo, "ade@kiosa.ng", "s3cret-pass", enums.StaffRoleSupport, true)

	_, unknownErr := f.service.Login(context.Background(), "nobody@kiosa.ng", "s3cret-pass")
	_, badPassErr := f.service.Login(context.Background(), "ade@kiosa.ng", "wrong")
	assertErrorCode(t, unknownErr, pkgerrors.CodeUnauthorized)
	if unknownErr.Error() != badPassErr.Error() {
		t.Fatalf("unknown-email and bad-password errors differ: %q vs %q", unknownErr, badPassErr)
	}
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	f := newStaffFixture(t)
	seedStaff(t, f.repo, "ade@kiosa.ng", "s3cret-pass", enums.StaffRoleSupport, false)

	_, err := f.service.Login(context.Background(), "ade@kiosa.ng", "s3cret-pass")
	assertErrorCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newStaffFixture(t)
	user := seedStaff(t, f.repo, "ade@kiosa.ng", "s3cret-pass", enums.StaffRoleSupport, true)
	if _, err := f.service.Login(context.Background(), "ade@kiosa.ng", "s3cret-pass"); err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := f.service.Logout(context.Background(), user.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := f.sessions.active[user.ID.String()]; ok {
		t.Fatal("session should be revoked after logout")
	}
}

func TestCreateStaffReturnsTempPasswordOnce(t *testing.T) {
	f := newStaffFixture(t)

	user, tempPassword, err := f.service.CreateStaff(context.Background(), CreateStaffInput{
		Email:    "bola@kiosa.ng",
		FullName: "Bola A",
		Role:     enums.StaffRoleAdmin,
	})
	if err != nil {
		t.Fatalf("create staff: %v", err)
	}
	if tempPassword == "" {
		t.Fatal("expected a temporary password")
	}
	ok, err := security.VerifyPassword(tempPassword, user.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("temp password should verify against stored hash (ok=%v err=%v)", ok, err)
	}
	if !user.IsActive {
		t.Fatal("new accounts start active")
	}
}

func TestCreateStaffDuplicateEmailConflicts(t *testing.T) {
	f := newStaffFixture(t)
	f.repo.createErr = errDuplicateEmail{}

	_, _, err := f.service.CreateStaff(context.Background(), CreateStaffInput{
		Email:    "bola@kiosa.ng",
		FullName: "Bola A",
		Role:     enums.StaffRoleSupport,
	})
	assertErrorCode(t, err, pkgerrors.CodeConflict)
}

func TestCreateStaffRejectsUnknownRole(t *testing.T) {
	f := newStaffFixture(t)

	_, _, err := f.service.CreateStaff(context.Background(), CreateStaffInput{
		Email:    "bola@kiosa.ng",
		FullName: "Bola A",
		Role:     enums.StaffRole("superuser"),
	})
	assertErrorCode(t, err, pkgerrors.CodeValidation)
}

func TestChangePasswordRotatesHashAndRevokesSession(t *testing.T) {
	f := newStaffFixture(t)
	user := seedStaff(t, f.repo, "ade@kiosa.ng", "old-password", enums.StaffRoleSupport, true)
	f.sessions.active[user.ID.String()] = "jti-1"

	if err := f.service.ChangePassword(context.Background(), user.ID, "old-password", "new-password"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	ok, err := security.VerifyPassword("new-password", user.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("new password should verify (ok=%v err=%v)", ok, err)
	}
	if _, active := f.sessions.active[user.ID.String()]; active {
		t.Fatal("session should be revoked after a password change")
	}
}

func TestChangePasswordRejectsWrongCurrent(t *testing.T) {
	f := newStaffFixture(t)
	user := seedStaff(t, f.repo, "ade@kiosa.ng", "old-password", enums.StaffRoleSupport, true)

	err := f.service.ChangePassword(context.Background(), user.ID, "nope", "new-password")
	assertErrorCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestDeactivateStaffRevokesSession(t *testing.T) {
	f := newStaffFixture(t)
	user := seedStaff(t, f.repo, "ade@kiosa.ng", "s3cret-pass", enums.StaffRoleRider, true)
	f.sessions.active[user.ID.String()] = "jti-1"

	if err := f.service.DeactivateStaff(context.Background(), user.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if user.IsActive {
		t.Fatal("account should be inactive")
	}
	if _, active := f.sessions.active[user.ID.String()]; active {
		t.Fatal("session should be revoked on deactivation")
	}
}

func TestGetByIDNotFound(t *testing.T) {
	f := newStaffFixture(t)

	_, err := f.service.GetByID(context.Background(), uuid.New())
	assertErrorCode(t, err, pkgerrors.CodeNotFound)
}

type errDuplicateEmail struct{}

func (errDuplicateEmail) Error() string {
	return `duplicate key value violates unique constraint "staff_users_email_key"`
}

func assertErrorCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	appErr := pkgerrors.As(err)
	if appErr == nil {
		t.Fatalf("expected app error, got %T: %v", err, err)
	}
	if appErr.Code() != code {
		t.Fatalf("error code = %s, want %s", appErr.Code(), code)
	}
}
