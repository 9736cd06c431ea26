package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dtroode/authflow/internal/model"
)

var _ model.IdentityStore = (*IdentityRepository)(nil)

type IdentityRepository struct {
	db *Connection
}

func NewIdentityRepository(db *Connection) *IdentityRepository {
	return &IdentityRepository{
		db: db,
	}
}

const identityColumns = `id, email, password_hash, name, avatar, two_factor_enabled, totp_secret,
			  is_locked, is_suspended, is_email_verified`

func scanIdentity(row pgx.Row) (model.Identity, error) {
	var i model.Identity
	err := row.Scan(
		&i.ID, &i.Email, &i.PasswordHash, &i.Name, &i.Avatar, &i.TwoFactorEnabled, &i.TOTPSecret,
		&i.IsLocked, &i.IsSuspended, &i.IsEmailVerified,
	)
	return i, err
}

func (r *IdentityRepository) GetByEmail(ctx context.Context, email string) (model.Identity, error) {
	query := `SELECT ` + identityColumns + `
			  FROM identities WHERE lower(email) = lower($1)`

	identity, err := scanIdentity(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Identity{}, model.ErrNotFound
		}
		return model.Identity{}, fmt.Errorf("failed to get identity by email: %w", err)
	}

	return identity, nil
}

func (r *IdentityRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Identity, error) {
	query := `SELECT ` + identityColumns + `
			  FROM identities WHERE id = $1`

	identity, err := scanIdentity(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Identity{}, model.ErrNotFound
		}
		return model.Identity{}, fmt.Errorf("failed to get identity by id: %w", err)
	}

	return identity, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const upsertIdentityQuery = `INSERT INTO identities (` + identityColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  ON CONFLICT (id) DO UPDATE SET
			      email = EXCLUDED.email,
			      password_hash = EXCLUDED.password_hash,
			      name = EXCLUDED.name,
			      avatar = EXCLUDED.avatar,
			      two_factor_enabled = EXCLUDED.two_factor_enabled,
			      totp_secret = EXCLUDED.totp_secret,
			      is_locked = EXCLUDED.is_locked,
			      is_suspended = EXCLUDED.is_suspended,
			      is_email_verified = EXCLUDED.is_email_verified,
			      updated_at = NOW()`

func upsertIdentity(ctx context.Context, q execer, identity model.Identity) error {
	_, err := q.Exec(ctx, upsertIdentityQuery,
		identity.ID, identity.Email, identity.PasswordHash, identity.Name, identity.Avatar,
		identity.TwoFactorEnabled, identity.TOTPSecret,
		identity.IsLocked, identity.IsSuspended, identity.IsEmailVerified,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert identity %s: %w", identity.Email, err)
	}
	return nil
}

// Upsert inserts identity or overwrites the row with the same ID.
func (r *IdentityRepository) Upsert(ctx context.Context, identity model.Identity) error {
	return upsertIdentity(ctx, r.db, identity)
}

// Seed upserts identities in one transaction.
func (r *IdentityRepository) Seed(ctx context.Context, identities []model.Identity) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, identity := range identities {
		if err := upsertIdentity(ctx, tx, identity); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit seed transaction: %w", err)
	}
	return nil
}
