package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TokenKind separates access from refresh tokens in the key space.
type TokenKind string

const (
	AccessTokenKind  TokenKind = "access_token"
	RefreshTokenKind TokenKind = "refresh_token"
)

// TokenStore tracks issued tokens. A token is valid only while its key
// exists; deleting the key revokes it.
type TokenStore struct {
	client *redis.Client
}

func NewTokenStore(client *redis.Client) *TokenStore {
	return &TokenStore{client: client}
}

func tokenKey(kind TokenKind, userID uuid.UUID, tokenID string) string {
	return fmt.Sprintf("%s:%s:%s", kind, userID.String(), tokenID)
}

func (s *TokenStore) Save(ctx context.Context, kind TokenKind, userID uuid.UUID, tokenID string, ttl time.Duration) error {
	return s.client.Set(ctx, tokenKey(kind, userID, tokenID), "valid", ttl).Err()
}

func (s *TokenStore) Exists(ctx context.Context, kind TokenKind, userID uuid.UUID, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, tokenKey(kind, userID, tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *TokenStore) Revoke(ctx context.Context, kind TokenKind, userID uuid.UUID, tokenID string) error {
	return s.client.Del(ctx, tokenKey(kind, userID, tokenID)).Err()
}

// RevokeUser deletes every token of the user.
func (s *TokenStore) RevokeUser(ctx context.Context, userID uuid.UUID) error {
	for _, kind := range []TokenKind{AccessTokenKind, RefreshTokenKind} {
		if err := s.deleteMatching(ctx, fmt.Sprintf("%s:%s:*", kind, userID.String())); err != nil {
			return err
		}
	}
	return nil
}

func (s *TokenStore) deleteMatching(ctx context.Context, pattern string) error {
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}
