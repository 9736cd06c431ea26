package postgres

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/authflow/internal/logger"
	"github.com/dtroode/authflow/internal/model"
	"github.com/dtroode/authflow/internal/testutil"
)

func TestNewRepositories(t *testing.T) {
	db := &Connection{}

	identities := NewIdentityRepository(db)
	assert.NotNil(t, identities)
	assert.Equal(t, db, identities.db)

	challenges := NewChallengeRepository(db, testutil.MakeNoopLogger())
	assert.NotNil(t, challenges)
	assert.Equal(t, db, challenges.db)

	revocations := NewRevocationRepository(db)
	assert.NotNil(t, revocations)
	assert.Equal(t, db, revocations.db)
}

func TestConnection_PingWithoutPool(t *testing.T) {
	conn := &Connection{}
	assert.Error(t, conn.Ping(t.Context()))
	assert.NoError(t, conn.Close())
}

type scriptedQuerier struct {
	errs  []error
	calls []string
}

func (q *scriptedQuerier) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	q.calls = append(q.calls, sql)
	var err error
	if len(q.errs) > 0 {
		err, q.errs = q.errs[0], q.errs[1:]
	}
	return pgconn.NewCommandTag("INSERT 0 1"), err
}

func (q *scriptedQuerier) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

func TestChallengeRepository_Create(t *testing.T) {
	ctx := context.Background()
	c := model.Challenge{ID: uuid.New(), UserID: uuid.New()}

	t.Run("sweep failure is logged", func(t *testing.T) {
		var out bytes.Buffer
		q := &scriptedQuerier{errs: []error{nil, errors.New("statement timeout")}}
		r := &ChallengeRepository{db: q, logger: logger.NewWithWriter(&out, 0)}

		require.NoError(t, r.Create(ctx, c))
		assert.Len(t, q.calls, 2)
		assert.Contains(t, out.String(), "failed to sweep expired challenges")
		assert.Contains(t, out.String(), "statement timeout")
	})

	t.Run("insert failure", func(t *testing.T) {
		q := &scriptedQuerier{errs: []error{errors.New("connection reset")}}
		r := &ChallengeRepository{db: q, logger: testutil.MakeNoopLogger()}

		err := r.Create(ctx, c)
		assert.ErrorContains(t, err, "failed to create challenge")
		assert.Len(t, q.calls, 1)
	})
}
