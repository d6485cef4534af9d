package cron

import (
	"context"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type fakeLockStore struct {
	values map[string]string
}

func newFakeLockStore() *fakeLockStore {
	return &fakeLockStore{values: map[string]string{}}
}

func (f *fakeLockStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, held := f.values[key]; held {
		return false, nil
	}
	f.values[key] = value.(string)
	return true, nil
}

func (f *fakeLockStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", redislib.Nil
	}
	return value, nil
}

func (f *fakeLockStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func TestRedisLockAcquireIsExclusive(t *testing.T) {
	store := newFakeLockStore()
	first, err := NewRedisLock(store, "cron:cycle", time.Minute)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	second, _ := NewRedisLock(store, "cron:cycle", time.Minute)
	ctx := context.Background()

	ok, err := first.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("first acquire = (%v, %v), want (true, nil)", ok, err)
	}
	ok, err = second.Acquire(ctx)
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if ok {
		t.Fatal("second holder must not acquire a held lock")
	}
}

func TestRedisLockReleaseOnlyByOwner(t *testing.T) {
	store := newFakeLockStore()
	owner, _ := NewRedisLock(store, "cron:cycle", time.Minute)
	intruder, _ := NewRedisLock(store, "cron:cycle", time.Minute)
	ctx := context.Background()

	if ok, _ := owner.Acquire(ctx); !ok {
		t.Fatal("owner should acquire")
	}

	// A lock that was never acquired must be a no-op release.
	if err := intruder.Release(ctx); err != nil {
		t.Fatalf("intruder release: %v", err)
	}
	if _, held := store.values["cron:cycle"]; !held {
		t.Fatal("lock must survive a non-owner release")
	}

	if err := owner.Release(ctx); err != nil {
		t.Fatalf("owner release: %v", err)
	}
	if _, held := store.values["cron:cycle"]; held {
		t.Fatal("owner release must free the lock")
	}
}

func TestRedisLockReleaseAfterExpiry(t *testing.T) {
	store := newFakeLockStore()
	lock, _ := NewRedisLock(store, "cron:cycle", time.Minute)
	ctx := context.Background()

	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("acquire should succeed")
	}
	// Simulate TTL expiry followed by another holder taking the key.
	store.values["cron:cycle"] = "someone-else"

	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if store.values["cron:cycle"] != "someone-else" {
		t.Fatal("release must not delete another holder's lock")
	}
}
