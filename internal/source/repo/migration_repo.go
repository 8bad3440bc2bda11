package repo

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/ovaphlow/pitchfork/service-readiness-go/internal/source/entity"
)

// MigrationPlanRepo provides data access for the migration_plan_records table.
type MigrationPlanRepo struct {
	db sqlx.ExtContext
}

func NewMigrationPlanRepo(db sqlx.ExtContext) *MigrationPlanRepo { return &MigrationPlanRepo{db: db} }

func (r *MigrationPlanRepo) EnsureTable(ctx context.Context) error {
	return ensure(ctx, r.db, `
CREATE TABLE IF NOT EXISTS migration_plan_records (
  id TEXT PRIMARY KEY,
  application_name TEXT NOT NULL,
  application_new TEXT,
  suite_new TEXT,
  target_application TEXT,
  scope_division TEXT,
  platform TEXT,
  readiness TEXT,
  imported_at TIMESTAMP NOT NULL,
  import_batch TEXT NOT NULL
)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_migration_plan_records_application ON migration_plan_records (application_name)`,
	)
}

func (r *MigrationPlanRepo) FindID(ctx context.Context, application string) (string, bool, error) {
	return findID(ctx, r.db, `SELECT id FROM migration_plan_records WHERE application_name = ?`, application)
}

func (r *MigrationPlanRepo) Insert(ctx context.Context, rec *entity.MigrationPlanRecord) error {
	const q = `INSERT INTO migration_plan_records (id, application_name, application_new, suite_new, target_application, scope_division, platform, readiness, imported_at, import_batch)
		VALUES (:id, :application_name, :application_new, :suite_new, :target_application, :scope_division, :platform, :readiness, :imported_at, :import_batch)`
	_, err := sqlx.NamedExecContext(ctx, r.db, q, rec)
	return err
}

func (r *MigrationPlanRepo) Update(ctx context.Context, rec *entity.MigrationPlanRecord) error {
	const q = `UPDATE migration_plan_records SET application_new = :application_new, suite_new = :suite_new,
		target_application = :target_application, scope_division = :scope_division, platform = :platform,
		readiness = :readiness, imported_at = :imported_at, import_batch = :import_batch WHERE id = :id`
	return expectOne(sqlx.NamedExecContext(ctx, r.db, q, rec))
}

func (r *MigrationPlanRepo) List(ctx context.Context) ([]entity.MigrationPlanRecord, error) {
	const q = `SELECT id, application_name, application_new, suite_new, target_application, scope_division, platform, readiness, imported_at, import_batch
		FROM migration_plan_records ORDER BY id`
	var rows []entity.MigrationPlanRecord
	if err := sqlx.SelectContext(ctx, r.db, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *MigrationPlanRepo) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "migration_plan_records")
}

func (r *MigrationPlanRepo) Clear(ctx context.Context) (int64, error) {
	return clearTable(ctx, r.db, "migration_plan_records")
}
