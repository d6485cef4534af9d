package session

import (
	"context"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessionStore struct {
	sessions map[string]string
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string]string{}}
}

func (f *fakeSessionStore) StoreStaffSession(ctx context.Context, staffID, token string, ttl time.Duration) error {
	f.sessions[staffID] = token
	return nil
}

func (f *fakeSessionStore) GetStaffSession(ctx context.Context, staffID string) (string, error) {
	token, ok := f.sessions[staffID]
	if !ok {
		return "", redislib.Nil
	}
	return token, nil
}

func (f *fakeSessionStore) RevokeStaffSession(ctx context.Context, staffID string) error {
	delete(f.sessions, staffID)
	return nil
}

func TestSessionLifecycle(t *testing.T) {
	manager := &Manager{store: newFakeSessionStore(), ttl: time.Hour}
	ctx := context.Background()

	require.NoError(t, manager.Activate(ctx, "staff-1", "jti-1"))

	active, err := manager.IsActive(ctx, "staff-1", "jti-1")
	require.NoError(t, err)
	assert.True(t, active)

	active, err = manager.IsActive(ctx, "staff-1", "jti-2")
	require.NoError(t, err)
	assert.False(t, active, "stale jti must not be active")

	// A new login displaces the previous session.
	require.NoError(t, manager.Activate(ctx, "staff-1", "jti-2"))
	active, err = manager.IsActive(ctx, "staff-1", "jti-1")
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, manager.Revoke(ctx, "staff-1"))
	active, err = manager.IsActive(ctx, "staff-1", "jti-2")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestActivateValidation(t *testing.T) {
	manager := &Manager{store: newFakeSessionStore(), ttl: time.Hour}

	require.Error(t, manager.Activate(context.Background(), "", "jti"))
	require.Error(t, manager.Activate(context.Background(), "staff-1", ""))
}
