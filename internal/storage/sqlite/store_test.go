package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/authflow/internal/model"
)

func TestStore_File(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)

	_, err = s.Get(ctx, "authToken")
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, s.Set(ctx, "authToken", "first"))
	require.NoError(t, s.Set(ctx, "authToken", "second"))
	require.NoError(t, s.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	v, err := reopened.Get(ctx, "authToken")
	require.NoError(t, err)
	assert.Equal(t, "second", v, "values survive reopening")

	require.NoError(t, reopened.Delete(ctx, "authToken"))
	_, err = reopened.Get(ctx, "authToken")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS kv`).WillReturnResult(sqlmock.NewResult(0, 0))
	s, err := New(context.Background(), db)
	require.NoError(t, err)
	return s, mock
}

func TestStore_Get(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(sqlmock.Sqlmock)
		want    string
		wantErr error
	}{
		{
			name: "found",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT value FROM kv WHERE key = \?`).
					WithArgs("user").
					WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`{"id":"x"}`))
			},
			want: `{"id":"x"}`,
		},
		{
			name: "missing",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT value FROM kv`).
					WithArgs("user").
					WillReturnRows(sqlmock.NewRows([]string{"value"}))
			},
			wantErr: model.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStore(t)
			tt.setup(mock)

			got, err := s.Get(context.Background(), "user")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_DatabaseErrors(t *testing.T) {
	boom := errors.New("disk I/O error")

	t.Run("get", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(`SELECT value FROM kv`).WillReturnError(boom)

		_, err := s.Get(context.Background(), "user")
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("set", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec(`INSERT INTO kv`).WithArgs("user", "v").WillReturnError(boom)

		assert.ErrorIs(t, s.Set(context.Background(), "user", "v"), boom)
	})

	t.Run("delete", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec(`DELETE FROM kv`).WithArgs("user").WillReturnError(boom)

		assert.ErrorIs(t, s.Delete(context.Background(), "user"), boom)
	})

	t.Run("schema", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectExec(`CREATE TABLE`).WillReturnError(boom)

		_, err = New(context.Background(), db)
		assert.ErrorIs(t, err, boom)
	})
}
