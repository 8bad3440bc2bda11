package repo

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/ovaphlow/pitchfork/service-readiness-go/internal/source/entity"
)

// BatchRepo records one audit row per import or rebuild call.
type BatchRepo struct {
	db sqlx.ExtContext
}

func NewBatchRepo(db sqlx.ExtContext) *BatchRepo { return &BatchRepo{db: db} }

func (r *BatchRepo) EnsureTable(ctx context.Context) error {
	return ensure(ctx, r.db, `
CREATE TABLE IF NOT EXISTS import_batches (
  id TEXT PRIMARY KEY,
  label TEXT NOT NULL,
  source TEXT NOT NULL,
  saved INTEGER NOT NULL DEFAULT 0,
  skipped INTEGER NOT NULL DEFAULT 0,
  started_at TIMESTAMP NOT NULL,
  finished_at TIMESTAMP NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_import_batches_label ON import_batches (label)`,
	)
}

func (r *BatchRepo) Insert(ctx context.Context, b *entity.ImportBatch) error {
	const q = `INSERT INTO import_batches (id, label, source, saved, skipped, started_at, finished_at)
		VALUES (:id, :label, :source, :saved, :skipped, :started_at, :finished_at)`
	_, err := sqlx.NamedExecContext(ctx, r.db, q, b)
	return err
}

// List returns the most recent batches first.
func (r *BatchRepo) List(ctx context.Context, limit int) ([]entity.ImportBatch, error) {
	if limit <= 0 {
		limit = 100
	}
	q := r.db.Rebind(`SELECT id, label, source, saved, skipped, started_at, finished_at FROM import_batches ORDER BY started_at DESC, id DESC LIMIT ?`)
	var rows []entity.ImportBatch
	if err := sqlx.SelectContext(ctx, r.db, &rows, q, limit); err != nil {
		return nil, err
	}
	return rows, nil
}
