package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Queries are written with ? placeholders and rebound for the driver in use;
// the DDL below is accepted unchanged by both SQLite and PostgreSQL.

func ensure(ctx context.Context, db sqlx.ExtContext, stmts ...string) error {
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func findID(ctx context.Context, db sqlx.ExtContext, query string, args ...any) (string, bool, error) {
	var id string
	if err := sqlx.GetContext(ctx, db, &id, db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return id, true, nil
}

func exists(ctx context.Context, db sqlx.ExtContext, query string, args ...any) (bool, error) {
	var one int
	if err := sqlx.GetContext(ctx, db, &one, db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func countRows(ctx context.Context, db sqlx.ExtContext, table string) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, db, &n, "SELECT COUNT(*) FROM "+table); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func clearTable(ctx context.Context, db sqlx.ExtContext, table string) (int64, error) {
	res, err := db.ExecContext(ctx, "DELETE FROM "+table)
	if err != nil {
		return 0, fmt.Errorf("clear %s: %w", table, err)
	}
	return res.RowsAffected()
}

func expectOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("expected 1 row affected, got %d", n)
	}
	return nil
}
