package repo

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/ovaphlow/pitchfork/service-readiness-go/internal/source/entity"
)

// EmploymentRepo provides data access for the employment_records table.
type EmploymentRepo struct {
	db sqlx.ExtContext
}

func NewEmploymentRepo(db sqlx.ExtContext) *EmploymentRepo { return &EmploymentRepo{db: db} }

func (r *EmploymentRepo) EnsureTable(ctx context.Context) error {
	return ensure(ctx, r.db, `
CREATE TABLE IF NOT EXISTS employment_records (
  id TEXT PRIMARY KEY,
  account TEXT NOT NULL,
  department TEXT NOT NULL,
  job_role TEXT NOT NULL DEFAULT '',
  division TEXT NOT NULL DEFAULT '',
  leave_date TEXT,
  department_simple TEXT,
  imported_at TIMESTAMP NOT NULL,
  import_batch TEXT NOT NULL
)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_employment_records_account ON employment_records (account)`,
		`CREATE INDEX IF NOT EXISTS idx_employment_records_department ON employment_records (department)`,
	)
}

func (r *EmploymentRepo) FindID(ctx context.Context, account string) (string, bool, error) {
	return findID(ctx, r.db, `SELECT id FROM employment_records WHERE account = ?`, account)
}

func (r *EmploymentRepo) Insert(ctx context.Context, rec *entity.EmploymentRecord) error {
	const q = `INSERT INTO employment_records (id, account, department, job_role, division, leave_date, department_simple, imported_at, import_batch)
		VALUES (:id, :account, :department, :job_role, :division, :leave_date, :department_simple, :imported_at, :import_batch)`
	_, err := sqlx.NamedExecContext(ctx, r.db, q, rec)
	return err
}

func (r *EmploymentRepo) Update(ctx context.Context, rec *entity.EmploymentRecord) error {
	const q = `UPDATE employment_records SET department = :department, job_role = :job_role, division = :division,
		leave_date = :leave_date, department_simple = :department_simple, imported_at = :imported_at, import_batch = :import_batch
		WHERE id = :id`
	return expectOne(sqlx.NamedExecContext(ctx, r.db, q, rec))
}

func (r *EmploymentRepo) List(ctx context.Context) ([]entity.EmploymentRecord, error) {
	const q = `SELECT id, account, department, job_role, division, leave_date, department_simple, imported_at, import_batch
		FROM employment_records ORDER BY id`
	var rows []entity.EmploymentRecord
	if err := sqlx.SelectContext(ctx, r.db, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}

// DepartmentExists reports whether any employee belongs to department.
func (r *EmploymentRepo) DepartmentExists(ctx context.Context, department string) (bool, error) {
	return exists(ctx, r.db, `SELECT 1 FROM employment_records WHERE department = ? LIMIT 1`, department)
}

func (r *EmploymentRepo) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "employment_records")
}

func (r *EmploymentRepo) Clear(ctx context.Context) (int64, error) {
	return clearTable(ctx, r.db, "employment_records")
}
