package repo

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/ovaphlow/pitchfork/service-readiness-go/internal/source/entity"
)

// AccessRepo provides data access for the access_records table.
type AccessRepo struct {
	db sqlx.ExtContext
}

func NewAccessRepo(db sqlx.ExtContext) *AccessRepo { return &AccessRepo{db: db} }

// EnsureTable creates the access_records table if not exists (idempotent).
func (r *AccessRepo) EnsureTable(ctx context.Context) error {
	return ensure(ctx, r.db, `
CREATE TABLE IF NOT EXISTS access_records (
  id TEXT PRIMARY KEY,
  access_group TEXT NOT NULL,
  account TEXT NOT NULL,
  application_name TEXT NOT NULL,
  application_suite TEXT NOT NULL DEFAULT '',
  environment_tier TEXT NOT NULL DEFAULT '',
  criticality TEXT NOT NULL DEFAULT '',
  imported_at TIMESTAMP NOT NULL,
  import_batch TEXT NOT NULL
)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_access_records_group_account ON access_records (access_group, account)`,
		`CREATE INDEX IF NOT EXISTS idx_access_records_application ON access_records (application_name)`,
		`CREATE INDEX IF NOT EXISTS idx_access_records_account ON access_records (account)`,
	)
}

// FindID returns the surrogate id of the row holding (group, account).
func (r *AccessRepo) FindID(ctx context.Context, group, account string) (string, bool, error) {
	return findID(ctx, r.db, `SELECT id FROM access_records WHERE access_group = ? AND account = ?`, group, account)
}

// Insert writes a new row; rec.ID must already be assigned.
func (r *AccessRepo) Insert(ctx context.Context, rec *entity.AccessRecord) error {
	const q = `INSERT INTO access_records (id, access_group, account, application_name, application_suite, environment_tier, criticality, imported_at, import_batch)
		VALUES (:id, :access_group, :account, :application_name, :application_suite, :environment_tier, :criticality, :imported_at, :import_batch)`
	_, err := sqlx.NamedExecContext(ctx, r.db, q, rec)
	return err
}

// Update replaces every non-key field of the row identified by rec.ID.
func (r *AccessRepo) Update(ctx context.Context, rec *entity.AccessRecord) error {
	const q = `UPDATE access_records SET application_name = :application_name, application_suite = :application_suite,
		environment_tier = :environment_tier, criticality = :criticality, imported_at = :imported_at, import_batch = :import_batch
		WHERE id = :id`
	return expectOne(sqlx.NamedExecContext(ctx, r.db, q, rec))
}

// List returns every row in storage order.
func (r *AccessRepo) List(ctx context.Context) ([]entity.AccessRecord, error) {
	const q = `SELECT id, access_group, account, application_name, application_suite, environment_tier, criticality, imported_at, import_batch
		FROM access_records ORDER BY id`
	var rows []entity.AccessRecord
	if err := sqlx.SelectContext(ctx, r.db, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}

// ApplicationExists reports whether any access row names the application.
func (r *AccessRepo) ApplicationExists(ctx context.Context, application string) (bool, error) {
	return exists(ctx, r.db, `SELECT 1 FROM access_records WHERE application_name = ? LIMIT 1`, application)
}

func (r *AccessRepo) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "access_records")
}

// Clear deletes every row and returns how many were removed.
func (r *AccessRepo) Clear(ctx context.Context) (int64, error) {
	return clearTable(ctx, r.db, "access_records")
}
