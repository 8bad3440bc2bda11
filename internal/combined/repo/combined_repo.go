package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/ovaphlow/pitchfork/service-readiness-go/internal/combined/entity"
)

// Assignment sets one joined column to Value.
type Assignment struct {
	Column string
	Value  any
}

// patchable holds the joined columns an in-place patch may write. Anchor
// columns and identity are never patched.
var patchable = map[string]bool{
	"department": true, "job_role": true, "division": true, "leave_date": true, "department_simple": true,
	"packaging_status": true, "packaging_readiness_date": true,
	"testing_status": true, "testing_result": true, "test_date": true, "test_plan_date": true, "test_comments": true,
	"migration_application": true, "application_new": true, "suite_new": true, "target_application": true, "scope_division": true, "platform": true,
	"migration_readiness": true,
	"cluster_department": true, "cluster_domain": true, "migration_cluster": true, "cluster_readiness": true,
}

// CombinedRepo provides data access for the combined_records table.
type CombinedRepo struct {
	db sqlx.ExtContext
}

func NewCombinedRepo(db sqlx.ExtContext) *CombinedRepo { return &CombinedRepo{db: db} }

// EnsureTable creates the combined_records table if not exists (idempotent).
// (access_group, account) is not unique here: the anchor table guarantees it
// and a rebuild always starts from an empty table.
func (r *CombinedRepo) EnsureTable(ctx context.Context) error {
	stmts := []string{`
CREATE TABLE IF NOT EXISTS combined_records (
  id TEXT PRIMARY KEY,
  access_group TEXT NOT NULL,
  account TEXT NOT NULL,
  application_name TEXT NOT NULL,
  application_suite TEXT NOT NULL DEFAULT '',
  environment_tier TEXT NOT NULL DEFAULT '',
  criticality TEXT NOT NULL DEFAULT '',
  department TEXT,
  job_role TEXT,
  division TEXT,
  leave_date TEXT,
  department_simple TEXT,
  packaging_status TEXT,
  packaging_readiness_date TEXT,
  testing_status TEXT,
  testing_result TEXT,
  test_date TEXT,
  test_plan_date TEXT,
  test_comments TEXT,
  migration_application TEXT,
  application_new TEXT,
  suite_new TEXT,
  target_application TEXT,
  scope_division TEXT,
  platform TEXT,
  migration_readiness TEXT,
  cluster_department TEXT,
  cluster_domain TEXT,
  migration_cluster TEXT,
  cluster_readiness TEXT,
  imported_at TIMESTAMP NOT NULL,
  import_batch TEXT NOT NULL,
  updated_at TIMESTAMP NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_combined_records_application ON combined_records (application_name)`,
		`CREATE INDEX IF NOT EXISTS idx_combined_records_department ON combined_records (department)`,
		`CREATE INDEX IF NOT EXISTS idx_combined_records_group_account ON combined_records (access_group, account)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// DeleteAll removes every combined row.
func (r *CombinedRepo) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM combined_records`)
	if err != nil {
		return 0, fmt.Errorf("delete combined records: %w", err)
	}
	return res.RowsAffected()
}

var insertQuery = fmt.Sprintf(`INSERT INTO combined_records (%s) VALUES (:%s)`,
	strings.Join(entity.Columns, ", "), strings.Join(entity.Columns, ", :"))

// Insert writes one combined row; rec.ID must already be assigned.
func (r *CombinedRepo) Insert(ctx context.Context, rec *entity.CombinedRecord) error {
	_, err := sqlx.NamedExecContext(ctx, r.db, insertQuery, rec)
	return err
}

// List returns every combined row in storage order.
func (r *CombinedRepo) List(ctx context.Context) ([]entity.CombinedRecord, error) {
	q := `SELECT ` + strings.Join(entity.Columns, ", ") + ` FROM combined_records ORDER BY id`
	var rows []entity.CombinedRecord
	if err := sqlx.SelectContext(ctx, r.db, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CombinedRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, r.db, &n, `SELECT COUNT(*) FROM combined_records`); err != nil {
		return 0, err
	}
	return n, nil
}

// UpdateByApplication patches every row for application.
func (r *CombinedRepo) UpdateByApplication(ctx context.Context, application string, set []Assignment, now time.Time) (int64, error) {
	return r.updateWhere(ctx, "application_name", application, set, now)
}

// UpdateByDepartment patches every row whose joined department equals department.
func (r *CombinedRepo) UpdateByDepartment(ctx context.Context, department string, set []Assignment, now time.Time) (int64, error) {
	return r.updateWhere(ctx, "department", department, set, now)
}

func (r *CombinedRepo) updateWhere(ctx context.Context, keyColumn, key string, set []Assignment, now time.Time) (int64, error) {
	if len(set) == 0 {
		return 0, nil
	}
	parts := make([]string, 0, len(set)+1)
	args := make([]any, 0, len(set)+2)
	for _, a := range set {
		if !patchable[a.Column] {
			return 0, fmt.Errorf("column %q cannot be patched", a.Column)
		}
		parts = append(parts, a.Column+" = ?")
		args = append(args, a.Value)
	}
	parts = append(parts, "updated_at = ?")
	args = append(args, now, key)
	q := r.db.Rebind(`UPDATE combined_records SET ` + strings.Join(parts, ", ") + ` WHERE ` + keyColumn + ` = ?`)
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
