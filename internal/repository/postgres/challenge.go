package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/authflow/internal/logger"
	"github.com/dtroode/authflow/internal/model"
)

// Ensure ChallengeRepository implements the model.ChallengeStore interface.
var _ model.ChallengeStore = (*ChallengeRepository)(nil)

type querier interface {
	execer
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type ChallengeRepository struct {
	db     querier
	logger *logger.Logger
}

func NewChallengeRepository(db *Connection, logger *logger.Logger) *ChallengeRepository {
	return &ChallengeRepository{db: db, logger: logger}
}

func (r *ChallengeRepository) Create(ctx context.Context, challenge model.Challenge) error {
	const query = `
        INSERT INTO pending_challenges (id, user_id, issued_at, code_issued_at, expires_at, attempts, code_hash)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `

	if _, err := r.db.Exec(ctx, query,
		challenge.ID,
		challenge.UserID,
		challenge.IssuedAt,
		challenge.CodeIssuedAt,
		challenge.ExpiresAt,
		challenge.Attempts,
		challenge.CodeHash,
	); err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}

	// Expired rows are swept on the write path. The new row is already stored.
	if _, err := r.db.Exec(ctx, `DELETE FROM pending_challenges WHERE expires_at <= NOW()`); err != nil {
		r.logger.Error("Challenge repository: failed to sweep expired challenges",
			"error", err,
			"challenge_id", challenge.ID)
	}
	return nil
}

func (r *ChallengeRepository) Get(ctx context.Context, id uuid.UUID) (model.Challenge, error) {
	const query = `
        SELECT id, user_id, issued_at, code_issued_at, expires_at, attempts, code_hash
        FROM pending_challenges
        WHERE id = $1 AND expires_at > NOW()
    `
	var c model.Challenge
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.UserID,
		&c.IssuedAt,
		&c.CodeIssuedAt,
		&c.ExpiresAt,
		&c.Attempts,
		&c.CodeHash,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Challenge{}, model.ErrNotFound
		}
		return model.Challenge{}, fmt.Errorf("failed to get challenge: %w", err)
	}
	return c, nil
}

func (r *ChallengeRepository) Update(ctx context.Context, challenge model.Challenge) error {
	const query = `
        UPDATE pending_challenges
        SET code_issued_at = $2, attempts = $3, code_hash = $4
        WHERE id = $1
    `
	tag, err := r.db.Exec(ctx, query, challenge.ID, challenge.CodeIssuedAt, challenge.Attempts, challenge.CodeHash)
	if err != nil {
		return fmt.Errorf("failed to update challenge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Consume deletes the row. Concurrent callers race on the DELETE and only
// one of them sees a row affected.
func (r *ChallengeRepository) Consume(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM pending_challenges WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to consume challenge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
