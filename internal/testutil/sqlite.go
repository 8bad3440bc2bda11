// Package testutil provides store fixtures for package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-readiness-go/pkg/database"
)

// SQLiteConfig returns a config for a fresh database file under t.TempDir().
func SQLiteConfig(t testing.TB) database.Config {
	t.Helper()
	return database.Config{
		Driver:      database.DriverSQLite,
		DSN:         filepath.Join(t.TempDir(), "readiness.db"),
		MaxConns:    4,
		Timeout:     5 * time.Second,
		BusyTimeout: 5 * time.Second,
	}
}

// NewSession opens a session on a fresh SQLite file, closed at cleanup.
func NewSession(t testing.TB) *database.Session {
	t.Helper()
	s, err := database.Open(SQLiteConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// WithTx runs fn in a write transaction on s and fails the test on error.
func WithTx(t testing.TB, s *database.Session, fn func(ctx context.Context, tx *sqlx.Tx) error) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.WithWriteTx(ctx, "test", func(tx *sqlx.Tx) error {
		return fn(ctx, tx)
	}))
}
