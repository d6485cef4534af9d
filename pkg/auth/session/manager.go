package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/aminufarouk/kiosa-backend/pkg/config"
	redisclient "github.com/aminufarouk/kiosa-backend/pkg/redis"
)

var ErrSessionNotFound = errors.New("staff session not found")

type sessionStore interface {
	StoreStaffSession(ctx context.Context, staffID, token string, ttl time.Duration) error
	GetStaffSession(ctx context.Context, staffID string) (string, error)
	RevokeStaffSession(ctx context.Context, staffID string) error
}

// Manager tracks the single active session per staff account. The stored
// value is the token's jti: issuing a new token displaces the previous one,
// and revoking the session invalidates a token before its expiry.
type Manager struct {
	store sessionStore
	ttl   time.Duration
}

// SessionChecker exposes the read-only surface needed by middleware.
type SessionChecker interface {
	IsActive(ctx context.Context, staffID, jti string) (bool, error)
}

func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.Expiration()
	if ttl <= 0 {
		return nil, fmt.Errorf("jwt expiration must be positive")
	}
	return &Manager{store: client, ttl: ttl}, nil
}

// Activate records jti as the staff member's current session.
func (m *Manager) Activate(ctx context.Context, staffID, jti string) error {
	if strings.TrimSpace(staffID) == "" || strings.TrimSpace(jti) == "" {
		return fmt.Errorf("staff id and jti are required")
	}
	return m.store.StoreStaffSession(ctx, staffID, jti, m.ttl)
}

// IsActive reports whether jti is the staff member's current session.
func (m *Manager) IsActive(ctx context.Context, staffID, jti string) (bool, error) {
	stored, err := m.store.GetStaffSession(ctx, staffID)
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(jti)) == 1, nil
}

// Revoke drops the staff member's session, invalidating any outstanding token.
func (m *Manager) Revoke(ctx context.Context, staffID string) error {
	if strings.TrimSpace(staffID) == "" {
		return fmt.Errorf("staff id is required")
	}
	return m.store.RevokeStaffSession(ctx, staffID)
}
