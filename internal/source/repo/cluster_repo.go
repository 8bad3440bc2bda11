package repo

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/ovaphlow/pitchfork/service-readiness-go/internal/source/entity"
)

// ClusterRepo provides data access for the cluster_records table.
type ClusterRepo struct {
	db sqlx.ExtContext
}

func NewClusterRepo(db sqlx.ExtContext) *ClusterRepo { return &ClusterRepo{db: db} }

func (r *ClusterRepo) EnsureTable(ctx context.Context) error {
	return ensure(ctx, r.db, `
CREATE TABLE IF NOT EXISTS cluster_records (
  id TEXT PRIMARY KEY,
  department TEXT NOT NULL,
  department_simple TEXT,
  domain TEXT,
  migration_cluster TEXT,
  cluster_readiness TEXT,
  imported_at TIMESTAMP NOT NULL,
  import_batch TEXT NOT NULL
)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_cluster_records_department ON cluster_records (department)`,
	)
}

func (r *ClusterRepo) FindID(ctx context.Context, department string) (string, bool, error) {
	return findID(ctx, r.db, `SELECT id FROM cluster_records WHERE department = ?`, department)
}

func (r *ClusterRepo) Insert(ctx context.Context, rec *entity.ClusterRecord) error {
	const q = `INSERT INTO cluster_records (id, department, department_simple, domain, migration_cluster, cluster_readiness, imported_at, import_batch)
		VALUES (:id, :department, :department_simple, :domain, :migration_cluster, :cluster_readiness, :imported_at, :import_batch)`
	_, err := sqlx.NamedExecContext(ctx, r.db, q, rec)
	return err
}

func (r *ClusterRepo) Update(ctx context.Context, rec *entity.ClusterRecord) error {
	const q = `UPDATE cluster_records SET department_simple = :department_simple, domain = :domain,
		migration_cluster = :migration_cluster, cluster_readiness = :cluster_readiness,
		imported_at = :imported_at, import_batch = :import_batch WHERE id = :id`
	return expectOne(sqlx.NamedExecContext(ctx, r.db, q, rec))
}

func (r *ClusterRepo) List(ctx context.Context) ([]entity.ClusterRecord, error) {
	const q = `SELECT id, department, department_simple, domain, migration_cluster, cluster_readiness, imported_at, import_batch
		FROM cluster_records ORDER BY id`
	var rows []entity.ClusterRecord
	if err := sqlx.SelectContext(ctx, r.db, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ClusterRepo) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "cluster_records")
}

func (r *ClusterRepo) Clear(ctx context.Context) (int64, error) {
	return clearTable(ctx, r.db, "cluster_records")
}
