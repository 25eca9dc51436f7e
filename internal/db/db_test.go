package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *sqlx.DB {
	t.Helper()
	h, err := Open(context.Background(), DriverSQLite, "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return NewSQLX(h, DriverSQLite)
}

func TestSchemaIsIdempotent(t *testing.T) {
	x := openMemory(t)
	require.NoError(t, EnsureSchema(context.Background(), x.DB, DriverSQLite))
}

func TestWithTxRollsBack(t *testing.T) {
	x := openMemory(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := WithTx(ctx, x, nil, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (id,username,role,created_at) VALUES ($1,$2,$3,$4)`, "u1", "ann", "student", 1)
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, x.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`))
	assert.Zero(t, n)
}

func TestUniqueViolation(t *testing.T) {
	x := openMemory(t)
	ctx := context.Background()
	ins := `INSERT INTO users (id,username,role,created_at) VALUES ($1,$2,$3,$4)`
	_, err := x.ExecContext(ctx, ins, "u1", "ann", "student", 1)
	require.NoError(t, err)
	_, err = x.ExecContext(ctx, ins, "u2", "ann", "student", 1)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(nil))
}
