package repo

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/ovaphlow/pitchfork/service-readiness-go/internal/source/entity"
)

// PackagingRepo provides data access for the packaging_records table.
type PackagingRepo struct {
	db sqlx.ExtContext
}

func NewPackagingRepo(db sqlx.ExtContext) *PackagingRepo { return &PackagingRepo{db: db} }

func (r *PackagingRepo) EnsureTable(ctx context.Context) error {
	return ensure(ctx, r.db, `
CREATE TABLE IF NOT EXISTS packaging_records (
  id TEXT PRIMARY KEY,
  application_name TEXT NOT NULL,
  status TEXT NOT NULL,
  readiness_date TEXT,
  imported_at TIMESTAMP NOT NULL,
  import_batch TEXT NOT NULL
)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_packaging_records_application ON packaging_records (application_name)`,
	)
}

func (r *PackagingRepo) FindID(ctx context.Context, application string) (string, bool, error) {
	return findID(ctx, r.db, `SELECT id FROM packaging_records WHERE application_name = ?`, application)
}

func (r *PackagingRepo) Insert(ctx context.Context, rec *entity.PackagingRecord) error {
	const q = `INSERT INTO packaging_records (id, application_name, status, readiness_date, imported_at, import_batch)
		VALUES (:id, :application_name, :status, :readiness_date, :imported_at, :import_batch)`
	_, err := sqlx.NamedExecContext(ctx, r.db, q, rec)
	return err
}

func (r *PackagingRepo) Update(ctx context.Context, rec *entity.PackagingRecord) error {
	const q = `UPDATE packaging_records SET status = :status, readiness_date = :readiness_date,
		imported_at = :imported_at, import_batch = :import_batch WHERE id = :id`
	return expectOne(sqlx.NamedExecContext(ctx, r.db, q, rec))
}

func (r *PackagingRepo) List(ctx context.Context) ([]entity.PackagingRecord, error) {
	const q = `SELECT id, application_name, status, readiness_date, imported_at, import_batch FROM packaging_records ORDER BY id`
	var rows []entity.PackagingRecord
	if err := sqlx.SelectContext(ctx, r.db, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PackagingRepo) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "packaging_records")
}

func (r *PackagingRepo) Clear(ctx context.Context) (int64, error) {
	return clearTable(ctx, r.db, "packaging_records")
}
