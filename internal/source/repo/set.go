package repo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/ovaphlow/pitchfork/service-readiness-go/internal/source/entity"
)

// Set bundles the source repositories bound to one connection or transaction.
type Set struct {
	Access        *AccessRepo
	Employment    *EmploymentRepo
	Packaging     *PackagingRepo
	Testing       *TestingRepo
	MigrationPlan *MigrationPlanRepo
	Cluster       *ClusterRepo
	Batches       *BatchRepo
}

func NewSet(db sqlx.ExtContext) *Set {
	return &Set{
		Access:        NewAccessRepo(db),
		Employment:    NewEmploymentRepo(db),
		Packaging:     NewPackagingRepo(db),
		Testing:       NewTestingRepo(db),
		MigrationPlan: NewMigrationPlanRepo(db),
		Cluster:       NewClusterRepo(db),
		Batches:       NewBatchRepo(db),
	}
}

// EnsureTables creates every source table and the batch audit table.
func (s *Set) EnsureTables(ctx context.Context) error {
	for _, fn := range []func(context.Context) error{
		s.Access.EnsureTable,
		s.Employment.EnsureTable,
		s.Packaging.EnsureTable,
		s.Testing.EnsureTable,
		s.MigrationPlan.EnsureTable,
		s.Cluster.EnsureTable,
		s.Batches.EnsureTable,
	} {
		if err := fn(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Clear purges the store backing source.
func (s *Set) Clear(ctx context.Context, source entity.Source) (int64, error) {
	switch source {
	case entity.SourceAccess:
		return s.Access.Clear(ctx)
	case entity.SourceEmployment:
		return s.Employment.Clear(ctx)
	case entity.SourcePackaging:
		return s.Packaging.Clear(ctx)
	case entity.SourceTesting:
		return s.Testing.Clear(ctx)
	case entity.SourceMigrationPlan:
		return s.MigrationPlan.Clear(ctx)
	case entity.SourceCluster:
		return s.Cluster.Clear(ctx)
	}
	return 0, fmt.Errorf("clear: unknown source %q", source)
}

// Count returns the row count of the store backing source.
func (s *Set) Count(ctx context.Context, source entity.Source) (int, error) {
	switch source {
	case entity.SourceAccess:
		return s.Access.Count(ctx)
	case entity.SourceEmployment:
		return s.Employment.Count(ctx)
	case entity.SourcePackaging:
		return s.Packaging.Count(ctx)
	case entity.SourceTesting:
		return s.Testing.Count(ctx)
	case entity.SourceMigrationPlan:
		return s.MigrationPlan.Count(ctx)
	case entity.SourceCluster:
		return s.Cluster.Count(ctx)
	}
	return 0, fmt.Errorf("count: unknown source %q", source)
}
