package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dtroode/authflow/internal/model"
)

var _ model.RevocationStore = (*RevocationStore)(nil)

// RevocationStore marks revoked token IDs with keys that expire with the token.
type RevocationStore struct {
	redis *goredis.Client
	now   func() time.Time
}

func NewRevocationStore(client *goredis.Client) *RevocationStore {
	return &RevocationStore{redis: client, now: time.Now}
}

func (s *RevocationStore) key(jti string) string {
	return revocationKeyPrefix + ":" + jti
}

func (s *RevocationStore) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := until.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, s.key(jti), 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (s *RevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check revoked token: %w", err)
	}
	return n > 0, nil
}
