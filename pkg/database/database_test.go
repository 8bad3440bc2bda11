package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func mockSession(t *testing.T) (*Session, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	s := NewSession(sqlx.NewDb(db, "sqlmock"))
	t.Cleanup(func() { _ = s.Close() })
	return s, mock
}

func sqliteConfig(t *testing.T, name string) Config {
	return Config{Driver: DriverSQLite, DSN: filepath.Join(t.TempDir(), name), MaxConns: 2}
}

func TestWithWriteTxCommits(t *testing.T) {
	s, mock := mockSession(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE packaging_records").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.WithWriteTx(context.Background(), "patch", func(tx *sqlx.Tx) error {
		_, err := tx.Exec("UPDATE packaging_records SET status = 'Ready'")
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithWriteTxRollsBack(t *testing.T) {
	s, mock := mockSession(t)
	boom := errors.New("disk full")
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO access_records").WillReturnError(boom)
	mock.ExpectRollback()

	err := s.WithWriteTx(context.Background(), "import Access", func(tx *sqlx.Tx) error {
		_, err := tx.Exec("INSERT INTO access_records (id) VALUES ('1')")
		return err
	})
	var txErr *TxError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, "import Access", txErr.Op)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "import Access: transaction failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithReadTxBeginFailure(t *testing.T) {
	s, mock := mockSession(t)
	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	err := s.WithReadTx(context.Background(), "summary", func(*sqlx.Tx) error { return nil })
	var txErr *TxError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, "summary", txErr.Op)
}

func TestNestedTxErrorNotRewrapped(t *testing.T) {
	s, mock := mockSession(t)
	inner := &TxError{Op: "inner", Err: errors.New("x")}
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := s.WithWriteTx(context.Background(), "outer", func(*sqlx.Tx) error { return inner })
	assert.Same(t, inner, err)
}

func TestSessionClosed(t *testing.T) {
	s, err := Open(sqliteConfig(t, "closed.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.DB()
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	err = s.WithWriteTx(context.Background(), "import", func(*sqlx.Tx) error { return nil })
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	err = s.WithReadTx(context.Background(), "query", func(*sqlx.Tx) error { return nil })
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	var nilSession *Session
	_, err = nilSession.DB()
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestReconnectSwapsStore(t *testing.T) {
	ctx := context.Background()
	first := sqliteConfig(t, "first.db")
	s, err := Open(first)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.WithWriteTx(ctx, "seed", func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `CREATE TABLE marker (v TEXT)`)
		return err
	}))

	second := sqliteConfig(t, "second.db")
	require.NoError(t, s.Reconnect(second))
	assert.Equal(t, second.DSN, s.Config().DSN)

	var n int
	require.NoError(t, s.WithReadTx(ctx, "probe", func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM sqlite_master WHERE name = 'marker'`)
	}))
	assert.Zero(t, n)

	bad := Config{Driver: "nosuchdriver", DSN: "x"}
	assert.Error(t, s.Reconnect(bad))
	assert.Equal(t, second.DSN, s.Config().DSN)
}

func TestReconnectWaitsForRunningTx(t *testing.T) {
	ctx := context.Background()
	s, err := Open(sqliteConfig(t, "first.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	second := sqliteConfig(t, "second.db")
	started, proceed := make(chan struct{}), make(chan struct{})
	readErr := make(chan error, 1)
	go func() {
		readErr <- s.WithReadTx(ctx, "summary", func(tx *sqlx.Tx) error {
			close(started)
			<-proceed
			var n int
			return tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM sqlite_master`)
		})
	}()
	<-started

	reconnected := make(chan error, 1)
	go func() { reconnected <- s.Reconnect(second) }()
	require.Eventually(t, func() bool { return s.Config().DSN == second.DSN }, time.Second, 5*time.Millisecond)
	select {
	case <-reconnected:
		t.Fatal("reconnect closed the pool under a running transaction")
	case <-time.After(50 * time.Millisecond):
	}

	close(proceed)
	require.NoError(t, <-readErr)
	require.NoError(t, <-reconnected)
}

func TestReadTxOptions(t *testing.T) {
	assert.Nil(t, readOptions(DriverSQLite))
	opts := readOptions(DriverPostgres)
	require.NotNil(t, opts)
	assert.True(t, opts.ReadOnly)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	s := NewSession(sqlx.NewDb(db, DriverPostgres))
	t.Cleanup(func() { _ = s.Close() })
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectCommit()

	var n int
	require.NoError(t, s.WithReadTx(context.Background(), "summary", func(tx *sqlx.Tx) error {
		return tx.Get(&n, "SELECT COUNT(*) FROM access_records")
	}))
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteTimestampsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := Open(sqliteConfig(t, "ts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	at := time.Date(2024, 5, 1, 9, 30, 0, 123000000, time.UTC)
	require.NoError(t, s.WithWriteTx(ctx, "ts", func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `CREATE TABLE ts (at TIMESTAMP NOT NULL)`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO ts (at) VALUES (?)`), at)
		return err
	}))
	var got time.Time
	require.NoError(t, s.WithReadTx(ctx, "ts", func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &got, `SELECT at FROM ts`)
	}))
	assert.True(t, at.Equal(got), "got %v", got)
}

func TestSQLiteDSN(t *testing.T) {
	got := sqliteDSN("data/readiness.db", 2*time.Second)
	assert.Equal(t, "file:data/readiness.db?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_time_format=sqlite", got)

	got = sqliteDSN("file:x.db?mode=rwc", 0)
	assert.Contains(t, got, "file:x.db?mode=rwc&_pragma=busy_timeout(5000)")

	assert.Equal(t, ":memory:", sqliteDSN(":memory:", 0))
	assert.Equal(t, "file:y.db?_pragma=foo(1)", sqliteDSN("file:y.db?_pragma=foo(1)", 0))
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_MAX_CONNS", "12")
	t.Setenv("DATABASE_TIMEZONE", "UTC")
	cfg := ConfigFromEnv()
	assert.Equal(t, DriverPostgres, cfg.Driver)
	assert.Contains(t, cfg.DSN, "postgres://")
	assert.Equal(t, 12, cfg.MaxConns)
	assert.Equal(t, "UTC", cfg.TimeZone)

	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("DATABASE_MAX_CONNS", "zero")
	cfg = ConfigFromEnv()
	assert.Equal(t, DriverSQLite, cfg.Driver)
	assert.Equal(t, "readiness.db", cfg.DSN)
	assert.Equal(t, 5, cfg.MaxConns)
}

func TestQuoteLiteral(t *testing.T) {
	assert.Equal(t, `'Europe/London'`, quoteLiteral("Europe/London"))
	assert.Equal(t, `'it''s'`, quoteLiteral("it's"))
}
