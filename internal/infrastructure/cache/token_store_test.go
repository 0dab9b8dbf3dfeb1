package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*TokenStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewTokenStore(client), mr
}

func TestTokenStore_SaveExistsRevoke(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	if err := store.Save(ctx, AccessTokenKind, userID, "tok-1", time.Minute); err != nil {
		t.Fatalf("Save: %v", err)
	}

	ok, err := store.Exists(ctx, AccessTokenKind, userID, "tok-1")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v; want true, nil", ok, err)
	}

	ok, _ = store.Exists(ctx, RefreshTokenKind, userID, "tok-1")
	if ok {
		t.Error("access token must not satisfy a refresh lookup")
	}

	if err := store.Revoke(ctx, AccessTokenKind, userID, "tok-1"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	ok, _ = store.Exists(ctx, AccessTokenKind, userID, "tok-1")
	if ok {
		t.Error("token still present after Revoke")
	}
}

func TestTokenStore_Expiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	store.Save(ctx, AccessTokenKind, userID, "short", time.Second)
	mr.FastForward(2 * time.Second)

	ok, err := store.Exists(ctx, AccessTokenKind, userID, "short")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Error("expired token still present")
	}
}

func TestTokenStore_RevokeUser(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	store.Save(ctx, AccessTokenKind, alice, "a1", time.Minute)
	store.Save(ctx, RefreshTokenKind, alice, "a2", time.Minute)
	store.Save(ctx, AccessTokenKind, bob, "b1", time.Minute)

	if err := store.RevokeUser(ctx, alice); err != nil {
		t.Fatalf("RevokeUser: %v", err)
	}

	if ok, _ := store.Exists(ctx, AccessTokenKind, alice, "a1"); ok {
		t.Error("alice access token survived RevokeUser")
	}
	if ok, _ := store.Exists(ctx, RefreshTokenKind, alice, "a2"); ok {
		t.Error("alice refresh token survived RevokeUser")
	}
	if ok, _ := store.Exists(ctx, AccessTokenKind, bob, "b1"); !ok {
		t.Error("bob token was revoked by alice's RevokeUser")
	}
}
