// Package redis keeps short-lived auth state in redis so several server
// replicas can share it.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dtroode/authflow/internal/model"
)

const (
	challengeKeyPrefix  = "authflow:challenge"
	revocationKeyPrefix = "authflow:revoked"
)

type challengeRecord struct {
	UserID       uuid.UUID `json:"uid"`
	IssuedAt     time.Time `json:"iat"`
	CodeIssuedAt time.Time `json:"cat"`
	ExpiresAt    time.Time `json:"exp"`
	Attempts     int       `json:"att"`
	CodeHash     []byte    `json:"ch,omitempty"`
}

var _ model.ChallengeStore = (*ChallengeStore)(nil)

// ChallengeStore keeps each challenge under its own key with a TTL that
// matches the challenge expiry.
type ChallengeStore struct {
	redis *goredis.Client
	now   func() time.Time
}

func NewChallengeStore(client *goredis.Client) *ChallengeStore {
	return &ChallengeStore{redis: client, now: time.Now}
}

func (s *ChallengeStore) key(id uuid.UUID) string {
	return challengeKeyPrefix + ":" + id.String()
}

func (s *ChallengeStore) Create(ctx context.Context, challenge model.Challenge) error {
	ttl := challenge.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("challenge %s already expired", challenge.ID)
	}

	data, err := encodeChallenge(challenge)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(challenge.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}
	return nil
}

func (s *ChallengeStore) Get(ctx context.Context, id uuid.UUID) (model.Challenge, error) {
	data, err := s.redis.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return model.Challenge{}, model.ErrNotFound
		}
		return model.Challenge{}, fmt.Errorf("failed to get challenge: %w", err)
	}

	return decodeChallenge(id, data)
}

// Update rewrites an existing challenge and keeps its remaining TTL.
func (s *ChallengeStore) Update(ctx context.Context, challenge model.Challenge) error {
	data, err := encodeChallenge(challenge)
	if err != nil {
		return err
	}

	err = s.redis.SetArgs(ctx, s.key(challenge.ID), data, goredis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if errors.Is(err, goredis.Nil) {
		return model.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update challenge: %w", err)
	}
	return nil
}

func (s *ChallengeStore) Consume(ctx context.Context, id uuid.UUID) error {
	n, err := s.redis.Del(ctx, s.key(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to consume challenge: %w", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func encodeChallenge(c model.Challenge) ([]byte, error) {
	data, err := json.Marshal(challengeRecord{
		UserID:       c.UserID,
		IssuedAt:     c.IssuedAt,
		CodeIssuedAt: c.CodeIssuedAt,
		ExpiresAt:    c.ExpiresAt,
		Attempts:     c.Attempts,
		CodeHash:     c.CodeHash,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode challenge: %w", err)
	}
	return data, nil
}

func decodeChallenge(id uuid.UUID, data []byte) (model.Challenge, error) {
	var r challengeRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return model.Challenge{}, fmt.Errorf("failed to decode challenge: %w", err)
	}
	return model.Challenge{
		ID:           id,
		UserID:       r.UserID,
		IssuedAt:     r.IssuedAt,
		CodeIssuedAt: r.CodeIssuedAt,
		ExpiresAt:    r.ExpiresAt,
		Attempts:     r.Attempts,
		CodeHash:     r.CodeHash,
	}, nil
}
