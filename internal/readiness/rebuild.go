package readiness

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	combinedrepo "github.com/ovaphlow/pitchfork/service-readiness-go/internal/combined/repo"
	source "github.com/ovaphlow/pitchfork/service-readiness-go/internal/source/entity"
	sourcerepo "github.com/ovaphlow/pitchfork/service-readiness-go/internal/source/repo"
	"github.com/ovaphlow/pitchfork/service-readiness-go/pkg/utilities"
)

// Rebuild regenerates the combined table from the source stores in one write
// transaction and returns the number of combined rows, which always equals
// the number of access rows.
func (s *Service) Rebuild(ctx context.Context) (int, error) {
	start := s.now()
	label, stamp := s.labels.next(CombinedSource, start)
	var count int
	err := s.session.WithWriteTx(ctx, "rebuild", func(tx *sqlx.Tx) error {
		var err error
		count, err = rebuildTx(ctx, tx, source.Audit{ImportedAt: stamp, ImportBatch: label})
		if err != nil {
			return err
		}
		return sourcerepo.NewBatchRepo(tx).Insert(ctx, &source.ImportBatch{
			ID:         utilities.NewKSUID(),
			Label:      label,
			Source:     CombinedSource,
			Saved:      count,
			StartedAt:  stamp,
			FinishedAt: s.now().UTC(),
		})
	})
	s.observe(ctx, "rebuild", start, err)
	if err != nil {
		s.logger.Warnw("rebuild failed", "op", "rebuild", "batch", label, "err", err)
		return 0, err
	}
	s.metrics.CombinedRows(count)
	s.logger.Infow("combined rebuilt",
		"op", "rebuild",
		"batch", label,
		"combined", count,
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)
	return count, nil
}

func rebuildTx(ctx context.Context, tx sqlx.ExtContext, audit source.Audit) (int, error) {
	set := sourcerepo.NewSet(tx)
	out := combinedrepo.NewCombinedRepo(tx)

	if _, err := out.DeleteAll(ctx); err != nil {
		return 0, err
	}

	access, err := set.Access.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("load access: %w", err)
	}
	employment, err := set.Employment.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("load employment: %w", err)
	}
	packaging, err := set.Packaging.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("load packaging: %w", err)
	}
	testing, err := set.Testing.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("load testing: %w", err)
	}
	migration, err := set.MigrationPlan.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("load migration plan: %w", err)
	}
	cluster, err := set.Cluster.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("load cluster: %w", err)
	}

	ix := newSourceIndex(employment, packaging, testing, migration, cluster)
	inserted := 0
	for i := range access {
		rec := ix.combine(&access[i], utilities.NewSnowflakeID(), audit, audit.ImportedAt)
		if err := out.Insert(ctx, rec); err != nil {
			return 0, fmt.Errorf("insert combined %s/%s: %w", rec.AccessGroup, rec.Account, err)
		}
		inserted++
	}

	stored, err := out.Count(ctx)
	if err != nil {
		return 0, err
	}
	if inserted != len(access) || stored != len(access) {
		return 0, fmt.Errorf("%w: access %d, inserted %d, stored %d", ErrAnchorMismatch, len(access), inserted, stored)
	}
	return inserted, nil
}
