package readiness

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	combinedrepo "github.com/ovaphlow/pitchfork/service-readiness-go/internal/combined/repo"
	source "github.com/ovaphlow/pitchfork/service-readiness-go/internal/source/entity"
)

// FieldSet maps source column names to new values. Blank and N/A values are
// ignored so a partial update never clears what is already there.
type FieldSet map[string]string

type fieldSpec struct {
	column    string
	date      bool
	readiness bool
}

// propagation lists, per source, the source columns that reach combined rows
// and the combined column each one lands in. Access and Employment are absent:
// they change row membership and need a rebuild.
var propagation = map[source.Source]map[string]fieldSpec{
	source.SourcePackaging: {
		"status":         {column: "packaging_status"},
		"readiness_date": {column: "packaging_readiness_date", date: true},
	},
	source.SourceTesting: {
		"status":    {column: "testing_status"},
		"result":    {column: "testing_result"},
		"test_date": {column: "test_date", date: true},
		"plan_date": {column: "test_plan_date", date: true},
		"comments":  {column: "test_comments"},
	},
	source.SourceMigrationPlan: {
		"application_new":    {column: "application_new"},
		"suite_new":          {column: "suite_new"},
		"target_application": {column: "target_application"},
		"scope_division":     {column: "scope_division"},
		"platform":           {column: "platform"},
		"readiness":          {column: "migration_readiness"},
	},
	source.SourceCluster: {
		"domain":            {column: "cluster_domain"},
		"migration_cluster": {column: "migration_cluster"},
		"cluster_readiness": {column: "cluster_readiness", readiness: true},
	},
}

// Propagates reports whether writes to src are patched into combined rows.
func Propagates(src source.Source) bool {
	_, ok := propagation[src]
	return ok
}

// Propagate patches every combined row matching key with fields. Packaging,
// Testing and MigrationPlan match on application name; Cluster matches the
// department resolved from employment. No rows are created, and zero matches
// returns 0 without error.
func (s *Service) Propagate(ctx context.Context, src source.Source, key string, fields FieldSet) (int64, error) {
	start := time.Now()
	n, err := s.propagate(ctx, src, key, fields)
	s.observe(ctx, "propagate", start, err)
	if err != nil {
		return 0, err
	}
	s.logger.Infow("propagated", "op", "propagate", "source", src, "key", key, "updated", n)
	return n, nil
}

func (s *Service) propagate(ctx context.Context, src source.Source, key string, fields FieldSet) (int64, error) {
	if !Propagates(src) {
		return 0, fmt.Errorf("propagate %s: %w", src, ErrNotPropagated)
	}
	key = strings.TrimSpace(key)
	if !source.Present(key) {
		return 0, fmt.Errorf("propagate %s: missing key: %w", src, ErrInvalidValue)
	}
	set, err := assignments(src, fields)
	if err != nil {
		return 0, err
	}
	if len(set) > 0 {
		set = append(set, presence(src, key)...)
	}
	var n int64
	err = s.session.WithWriteTx(ctx, "propagate "+string(src), func(tx *sqlx.Tx) error {
		var err error
		n, err = patchCombined(ctx, combinedrepo.NewCombinedRepo(tx), src, key, set, s.now())
		return err
	})
	return n, err
}

func patchCombined(ctx context.Context, repo *combinedrepo.CombinedRepo, src source.Source, key string, set []combinedrepo.Assignment, now time.Time) (int64, error) {
	if len(set) == 0 {
		return 0, nil
	}
	if src == source.SourceCluster {
		return repo.UpdateByDepartment(ctx, key, set, now)
	}
	return repo.UpdateByApplication(ctx, key, set, now)
}

// presence marks the migration plan or cluster segment of matching rows as
// joined. Both segments consist of optional fields only, so their values
// alone cannot tell a matched row from an unmatched one.
func presence(src source.Source, key string) []combinedrepo.Assignment {
	switch src {
	case source.SourceMigrationPlan:
		return []combinedrepo.Assignment{{Column: "migration_application", Value: key}}
	case source.SourceCluster:
		return []combinedrepo.Assignment{{Column: "cluster_department", Value: key}}
	}
	return nil
}

// assignments validates fields against the propagation set of src and returns
// the combined columns to write, in column order.
func assignments(src source.Source, fields FieldSet) ([]combinedrepo.Assignment, error) {
	specs, ok := propagation[src]
	if !ok {
		return nil, fmt.Errorf("propagate %s: %w", src, ErrNotPropagated)
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]combinedrepo.Assignment, 0, len(names))
	for _, name := range names {
		spec, ok := specs[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("propagate %s: %q: %w", src, name, ErrUnknownField)
		}
		raw := strings.TrimSpace(fields[name])
		if !source.Present(raw) {
			continue
		}
		var value any = raw
		switch {
		case spec.date:
			d, err := source.ParseDate(raw)
			if err != nil {
				return nil, fmt.Errorf("propagate %s: %s: %w", src, name, ErrInvalidValue)
			}
			value = d
		case spec.readiness:
			label, err := source.ParseReadinessLabel(raw)
			if err != nil {
				return nil, fmt.Errorf("propagate %s: %s: %w", src, name, ErrInvalidValue)
			}
			value = label
		}
		out = append(out, combinedrepo.Assignment{Column: spec.column, Value: value})
	}
	return out, nil
}

func packagingFields(r *source.PackagingRecord) FieldSet {
	return FieldSet{"status": r.Status, "readiness_date": dateText(r.ReadinessDate)}
}

func testingFields(r *source.TestingRecord) FieldSet {
	return FieldSet{
		"status":    r.Status,
		"result":    r.Result,
		"test_date": dateText(r.TestDate),
		"plan_date": dateText(r.PlanDate),
		"comments":  deref(r.Comments),
	}
}

func migrationFields(r *source.MigrationPlanRecord) FieldSet {
	return FieldSet{
		"application_new":    deref(r.ApplicationNew),
		"suite_new":          deref(r.SuiteNew),
		"target_application": deref(r.TargetApplication),
		"scope_division":     deref(r.ScopeDivision),
		"platform":           deref(r.Platform),
		"readiness":          deref(r.Readiness),
	}
}

func clusterFields(r *source.ClusterRecord) FieldSet {
	return FieldSet{
		"domain":            deref(r.Domain),
		"migration_cluster": deref(r.MigrationCluster),
		"cluster_readiness": deref(r.ClusterReadiness),
	}
}

func dateText(d *source.Date) string {
	if d == nil || d.IsZero() {
		return ""
	}
	return d.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
