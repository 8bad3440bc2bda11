package repo

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/ovaphlow/pitchfork/service-readiness-go/internal/source/entity"
)

// TestingRepo provides data access for the testing_records table.
type TestingRepo struct {
	db sqlx.ExtContext
}

func NewTestingRepo(db sqlx.ExtContext) *TestingRepo { return &TestingRepo{db: db} }

func (r *TestingRepo) EnsureTable(ctx context.Context) error {
	return ensure(ctx, r.db, `
CREATE TABLE IF NOT EXISTS testing_records (
  id TEXT PRIMARY KEY,
  application_name TEXT NOT NULL,
  status TEXT NOT NULL,
  result TEXT NOT NULL DEFAULT '',
  test_date TEXT,
  plan_date TEXT,
  comments TEXT,
  imported_at TIMESTAMP NOT NULL,
  import_batch TEXT NOT NULL
)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_testing_records_application ON testing_records (application_name)`,
	)
}

func (r *TestingRepo) FindID(ctx context.Context, application string) (string, bool, error) {
	return findID(ctx, r.db, `SELECT id FROM testing_records WHERE application_name = ?`, application)
}

func (r *TestingRepo) Insert(ctx context.Context, rec *entity.TestingRecord) error {
	const q = `INSERT INTO testing_records (id, application_name, status, result, test_date, plan_date, comments, imported_at, import_batch)
		VALUES (:id, :application_name, :status, :result, :test_date, :plan_date, :comments, :imported_at, :import_batch)`
	_, err := sqlx.NamedExecContext(ctx, r.db, q, rec)
	return err
}

func (r *TestingRepo) Update(ctx context.Context, rec *entity.TestingRecord) error {
	const q = `UPDATE testing_records SET status = :status, result = :result, test_date = :test_date, plan_date = :plan_date,
		comments = :comments, imported_at = :imported_at, import_batch = :import_batch WHERE id = :id`
	return expectOne(sqlx.NamedExecContext(ctx, r.db, q, rec))
}

func (r *TestingRepo) List(ctx context.Context) ([]entity.TestingRecord, error) {
	const q = `SELECT id, application_name, status, result, test_date, plan_date, comments, imported_at, import_batch
		FROM testing_records ORDER BY id`
	var rows []entity.TestingRecord
	if err := sqlx.SelectContext(ctx, r.db, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *TestingRepo) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "testing_records")
}

func (r *TestingRepo) Clear(ctx context.Context) (int64, error) {
	return clearTable(ctx, r.db, "testing_records")
}
