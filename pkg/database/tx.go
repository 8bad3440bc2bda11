package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// TxError reports a store failure inside a transaction. The whole transaction
// has been rolled back when it is returned.
type TxError struct {
	Op  string
	Err error
}

func (e *TxError) Error() string { return fmt.Sprintf("%s: transaction failed: %v", e.Op, e.Err) }

func (e *TxError) Unwrap() error { return e.Err }

// WithWriteTx runs fn inside a write transaction. Only one write transaction
// per session runs at a time. Any error from fn rolls back everything fn did.
func (s *Session) WithWriteTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	s.inflight.RLock()
	defer s.inflight.RUnlock()
	db, err := s.DB()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.writer.Lock()
	defer s.writer.Unlock()
	return runTx(ctx, db, op, nil, fn)
}

// WithReadTx runs fn inside a transaction that only reads. Readers do not take
// the writer lock. On postgres the transaction is opened READ ONLY.
func (s *Session) WithReadTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	s.inflight.RLock()
	defer s.inflight.RUnlock()
	db, err := s.DB()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return runTx(ctx, db, op, readOptions(db.DriverName()), fn)
}

// readOptions returns the options for a read transaction on driver. Other
// drivers than postgres get the defaults.
func readOptions(driver string) *sql.TxOptions {
	if driver == DriverPostgres {
		return &sql.TxOptions{ReadOnly: true}
	}
	return nil
}

func runTx(ctx context.Context, db *sqlx.DB, op string, opts *sql.TxOptions, fn func(tx *sqlx.Tx) error) (retErr error) {
	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		return &TxError{Op: op, Err: err}
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		var txErr *TxError
		if errors.As(err, &txErr) {
			return err
		}
		return &TxError{Op: op, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &TxError{Op: op, Err: err}
	}
	return nil
}
