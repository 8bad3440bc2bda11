package readiness

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	combinedrepo "github.com/ovaphlow/pitchfork/service-readiness-go/internal/combined/repo"
	source "github.com/ovaphlow/pitchfork/service-readiness-go/internal/source/entity"
	sourcerepo "github.com/ovaphlow/pitchfork/service-readiness-go/internal/source/repo"
	"github.com/ovaphlow/pitchfork/service-readiness-go/pkg/utilities"
)

// SkipKind classifies why a candidate was not written.
type SkipKind string

const (
	SkipValidation SkipKind = "validation"
	SkipDuplicate  SkipKind = "duplicate"
)

// SkipReason describes one skipped candidate. Row is 1-based.
type SkipReason struct {
	Row    int      `json:"row"`
	Key    string   `json:"key,omitempty"`
	Kind   SkipKind `json:"kind"`
	Reason string   `json:"reason"`
}

// ImportResult reports the outcome of one Import call.
type ImportResult struct {
	Source     source.Source `json:"source"`
	BatchID    string        `json:"batch_id"`
	Batch      string        `json:"batch"`
	Saved      int           `json:"saved"`
	Inserted   int           `json:"inserted"`
	Updated    int           `json:"updated"`
	Skipped    int           `json:"skipped"`
	Propagated int64         `json:"propagated"`
	Skips      []SkipReason  `json:"skips"`
}

func (r *ImportResult) skip(row int, key string, kind SkipKind, reason string) {
	r.Skipped++
	r.Skips = append(r.Skips, SkipReason{Row: row, Key: key, Kind: kind, Reason: reason})
}

// Import upserts every candidate of b by its natural key inside one write
// transaction. Invalid candidates are skipped and reported; a store error
// rolls the whole batch back.
func (s *Service) Import(ctx context.Context, b Batch) (*ImportResult, error) {
	if b == nil {
		return nil, fmt.Errorf("import: nil batch")
	}
	src := b.Source()
	start := s.now()
	label, stamp := s.labels.next(string(src), start)
	res := &ImportResult{
		Source:  src,
		BatchID: utilities.NewKSUID(),
		Batch:   label,
		Skips:   []SkipReason{},
	}
	audit := source.Audit{ImportedAt: stamp, ImportBatch: label}

	err := s.session.WithWriteTx(ctx, "import "+string(src), func(tx *sqlx.Tx) error {
		im := &importer{
			set:      sourcerepo.NewSet(tx),
			combined: combinedrepo.NewCombinedRepo(tx),
			audit:    audit,
			res:      res,
		}
		var err error
		switch b := b.(type) {
		case AccessBatch:
			err = upsertAll(ctx, im, b, im.accessSteps())
		case EmploymentBatch:
			err = upsertAll(ctx, im, b, im.employmentSteps())
		case PackagingBatch:
			err = upsertAll(ctx, im, b, im.packagingSteps())
		case TestingBatch:
			err = upsertAll(ctx, im, b, im.testingSteps())
		case MigrationPlanBatch:
			err = upsertAll(ctx, im, b, im.migrationSteps())
		case ClusterBatch:
			err = upsertAll(ctx, im, b, im.clusterSteps())
		default:
			err = fmt.Errorf("unsupported batch %T", b)
		}
		if err != nil {
			return err
		}
		res.Saved = res.Inserted + res.Updated
		return im.set.Batches.Insert(ctx, &source.ImportBatch{
			ID:         res.BatchID,
			Label:      label,
			Source:     string(src),
			Saved:      res.Saved,
			Skipped:    res.Skipped,
			StartedAt:  stamp,
			FinishedAt: s.now().UTC(),
		})
	})
	s.observe(ctx, "import", start, err)
	if err != nil {
		s.logger.Warnw("import failed", "op", "import", "source", src, "batch", label, "err", err)
		return nil, err
	}

	s.metrics.ImportRows(string(src), "inserted", res.Inserted)
	s.metrics.ImportRows(string(src), "updated", res.Updated)
	s.metrics.ImportRows(string(src), "skipped", res.Skipped)
	s.logger.Infow("import finished",
		"op", "import",
		"source", src,
		"batch", label,
		"saved", res.Saved,
		"skipped", res.Skipped,
		"propagated", res.Propagated,
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)
	for _, sk := range res.Skips {
		s.logger.Debugw("candidate skipped", "op", "import", "source", src, "batch", label,
			"row", sk.Row, "key", sk.Key, "kind", sk.Kind, "reason", sk.Reason)
	}
	return res, nil
}

type importer struct {
	set      *sourcerepo.Set
	combined *combinedrepo.CombinedRepo
	audit    source.Audit
	res      *ImportResult
}

// steps binds the per-source pieces of the upsert loop.
type steps[T any] struct {
	// normalize trims the candidate in place and returns its natural key, or
	// a non-empty reason when a required field is missing.
	normalize func(*T) (key naturalKey, reason string)
	// guard returns a non-empty reason when a referential check fails.
	guard  func(context.Context, *T) (string, error)
	find   func(context.Context, *T) (string, bool, error)
	insert func(context.Context, *T) error
	update func(context.Context, *T) error
	// prepare assigns identity and audit before the write.
	prepare func(rec *T, id string, audit source.Audit)
	// fields, when set, is patched into combined rows after the write.
	fields func(*T) (key string, fs FieldSet)
	src    source.Source
}

// naturalKey identifies a candidate within one batch. Parts are compared
// field by field, so values containing "/" never collide.
type naturalKey struct {
	first, second string
	pair          bool
}

func singleKey(v string) naturalKey { return naturalKey{first: v} }

func pairKey(a, b string) naturalKey { return naturalKey{first: a, second: b, pair: true} }

// String renders the key for skip reports only.
func (k naturalKey) String() string {
	if !k.pair {
		return k.first
	}
	return k.first + "/" + k.second
}

func upsertAll[T any](ctx context.Context, im *importer, rows []T, st steps[T]) error {
	seen := make(map[naturalKey]int, len(rows))
	for i := range rows {
		row := i + 1
		rec := rows[i]

		nk, reason := st.normalize(&rec)
		key := nk.String()
		if reason != "" {
			im.res.skip(row, key, SkipValidation, reason)
			continue
		}
		if first, dup := seen[nk]; dup {
			im.res.skip(row, key, SkipDuplicate, fmt.Sprintf("duplicate of row %d", first))
			continue
		}
		seen[nk] = row

		if st.guard != nil {
			reason, err := st.guard(ctx, &rec)
			if err != nil {
				return fmt.Errorf("row %d guard: %w", row, err)
			}
			if reason != "" {
				im.res.skip(row, key, SkipValidation, reason)
				continue
			}
		}

		id, found, err := st.find(ctx, &rec)
		if err != nil {
			return fmt.Errorf("row %d lookup: %w", row, err)
		}
		if found {
			st.prepare(&rec, id, im.audit)
			if err := st.update(ctx, &rec); err != nil {
				return fmt.Errorf("row %d update: %w", row, err)
			}
			im.res.Updated++
		} else {
			st.prepare(&rec, utilities.NewSnowflakeID(), im.audit)
			if err := st.insert(ctx, &rec); err != nil {
				return fmt.Errorf("row %d insert: %w", row, err)
			}
			im.res.Inserted++
		}

		if st.fields != nil {
			pkey, fs := st.fields(&rec)
			set, err := assignments(st.src, fs)
			if err != nil {
				return fmt.Errorf("row %d propagate: %w", row, err)
			}
			set = append(set, presence(st.src, pkey)...)
			n, err := patchCombined(ctx, im.combined, st.src, pkey, set, im.audit.ImportedAt)
			if err != nil {
				return fmt.Errorf("row %d propagate: %w", row, err)
			}
			im.res.Propagated += n
		}
	}
	return nil
}

func (im *importer) accessSteps() steps[source.AccessRecord] {
	r := im.set.Access
	return steps[source.AccessRecord]{
		src: source.SourceAccess,
		normalize: func(a *source.AccessRecord) (naturalKey, string) {
			a.AccessGroup = strings.TrimSpace(a.AccessGroup)
			a.Account = strings.TrimSpace(a.Account)
			a.ApplicationName = strings.TrimSpace(a.ApplicationName)
			a.ApplicationSuite = text(a.ApplicationSuite)
			a.EnvironmentTier = text(a.EnvironmentTier)
			a.Criticality = text(a.Criticality)
			return pairKey(a.AccessGroup, a.Account), required(
				"access_group", a.AccessGroup,
				"account", a.Account,
				"application_name", a.ApplicationName,
			)
		},
		find: func(ctx context.Context, a *source.AccessRecord) (string, bool, error) {
			return r.FindID(ctx, a.AccessGroup, a.Account)
		},
		insert: r.Insert,
		update: r.Update,
		prepare: func(a *source.AccessRecord, id string, audit source.Audit) {
			a.ID, a.Audit = id, audit
		},
	}
}

func (im *importer) employmentSteps() steps[source.EmploymentRecord] {
	r := im.set.Employment
	return steps[source.EmploymentRecord]{
		src: source.SourceEmployment,
		normalize: func(e *source.EmploymentRecord) (naturalKey, string) {
			e.Account = strings.TrimSpace(e.Account)
			e.Department = strings.TrimSpace(e.Department)
			e.JobRole = text(e.JobRole)
			e.Division = text(e.Division)
			e.LeaveDate = optDate(e.LeaveDate)
			e.DepartmentSimple = opt(e.DepartmentSimple)
			return singleKey(e.Account), required("account", e.Account, "department", e.Department)
		},
		find: func(ctx context.Context, e *source.EmploymentRecord) (string, bool, error) {
			return r.FindID(ctx, e.Account)
		},
		insert: r.Insert,
		update: r.Update,
		prepare: func(e *source.EmploymentRecord, id string, audit source.Audit) {
			e.ID, e.Audit = id, audit
		},
	}
}

func (im *importer) packagingSteps() steps[source.PackagingRecord] {
	r := im.set.Packaging
	return steps[source.PackagingRecord]{
		src: source.SourcePackaging,
		normalize: func(p *source.PackagingRecord) (naturalKey, string) {
			p.ApplicationName = strings.TrimSpace(p.ApplicationName)
			p.Status = strings.TrimSpace(p.Status)
			p.ReadinessDate = optDate(p.ReadinessDate)
			return singleKey(p.ApplicationName), required("application_name", p.ApplicationName, "status", p.Status)
		},
		find: func(ctx context.Context, p *source.PackagingRecord) (string, bool, error) {
			return r.FindID(ctx, p.ApplicationName)
		},
		insert: r.Insert,
		update: r.Update,
		prepare: func(p *source.PackagingRecord, id string, audit source.Audit) {
			p.ID, p.Audit = id, audit
		},
		fields: func(p *source.PackagingRecord) (string, FieldSet) {
			return p.ApplicationName, packagingFields(p)
		},
	}
}

func (im *importer) testingSteps() steps[source.TestingRecord] {
	r := im.set.Testing
	return steps[source.TestingRecord]{
		src: source.SourceTesting,
		normalize: func(t *source.TestingRecord) (naturalKey, string) {
			t.ApplicationName = strings.TrimSpace(t.ApplicationName)
			t.Status = strings.TrimSpace(t.Status)
			t.Result = text(t.Result)
			t.TestDate = optDate(t.TestDate)
			t.PlanDate = optDate(t.PlanDate)
			t.Comments = opt(t.Comments)
			return singleKey(t.ApplicationName), required("application_name", t.ApplicationName, "status", t.Status)
		},
		find: func(ctx context.Context, t *source.TestingRecord) (string, bool, error) {
			return r.FindID(ctx, t.ApplicationName)
		},
		insert: r.Insert,
		update: r.Update,
		prepare: func(t *source.TestingRecord, id string, audit source.Audit) {
			t.ID, t.Audit = id, audit
		},
		fields: func(t *source.TestingRecord) (string, FieldSet) {
			return t.ApplicationName, testingFields(t)
		},
	}
}

func (im *importer) migrationSteps() steps[source.MigrationPlanRecord] {
	r := im.set.MigrationPlan
	return steps[source.MigrationPlanRecord]{
		src: source.SourceMigrationPlan,
		normalize: func(m *source.MigrationPlanRecord) (naturalKey, string) {
			m.ApplicationName = strings.TrimSpace(m.ApplicationName)
			m.ApplicationNew = opt(m.ApplicationNew)
			m.SuiteNew = opt(m.SuiteNew)
			m.TargetApplication = opt(m.TargetApplication)
			m.ScopeDivision = opt(m.ScopeDivision)
			m.Platform = opt(m.Platform)
			m.Readiness = opt(m.Readiness)
			return singleKey(m.ApplicationName), required("application_name", m.ApplicationName)
		},
		guard: func(ctx context.Context, m *source.MigrationPlanRecord) (string, error) {
			ok, err := im.set.Access.ApplicationExists(ctx, m.ApplicationName)
			if err != nil || ok {
				return "", err
			}
			return fmt.Sprintf("application %q has no access records", m.ApplicationName), nil
		},
		find: func(ctx context.Context, m *source.MigrationPlanRecord) (string, bool, error) {
			return r.FindID(ctx, m.ApplicationName)
		},
		insert: r.Insert,
		update: r.Update,
		prepare: func(m *source.MigrationPlanRecord, id string, audit source.Audit) {
			m.ID, m.Audit = id, audit
		},
		fields: func(m *source.MigrationPlanRecord) (string, FieldSet) {
			return m.ApplicationName, migrationFields(m)
		},
	}
}

func (im *importer) clusterSteps() steps[source.ClusterRecord] {
	r := im.set.Cluster
	return steps[source.ClusterRecord]{
		src: source.SourceCluster,
		normalize: func(c *source.ClusterRecord) (naturalKey, string) {
			c.Department = strings.TrimSpace(c.Department)
			c.DepartmentSimple = opt(c.DepartmentSimple)
			c.Domain = opt(c.Domain)
			c.MigrationCluster = opt(c.MigrationCluster)
			c.ClusterReadiness = opt(c.ClusterReadiness)
			if reason := required("department", c.Department); reason != "" {
				return singleKey(c.Department), reason
			}
			if c.ClusterReadiness != nil {
				label, err := source.ParseReadinessLabel(*c.ClusterReadiness)
				if err != nil {
					return singleKey(c.Department), err.Error()
				}
				c.ClusterReadiness = &label
			}
			return singleKey(c.Department), ""
		},
		guard: func(ctx context.Context, c *source.ClusterRecord) (string, error) {
			ok, err := im.set.Employment.DepartmentExists(ctx, c.Department)
			if err != nil || ok {
				return "", err
			}
			return fmt.Sprintf("department %q has no employment records", c.Department), nil
		},
		find: func(ctx context.Context, c *source.ClusterRecord) (string, bool, error) {
			return r.FindID(ctx, c.Department)
		},
		insert: r.Insert,
		update: r.Update,
		prepare: func(c *source.ClusterRecord, id string, audit source.Audit) {
			c.ID, c.Audit = id, audit
		},
		fields: func(c *source.ClusterRecord) (string, FieldSet) {
			return c.Department, clusterFields(c)
		},
	}
}

// required takes name/value pairs and returns a reason naming the first value
// that is blank or N/A.
func required(pairs ...string) string {
	for i := 0; i+1 < len(pairs); i += 2 {
		if !source.Present(pairs[i+1]) {
			return "missing " + pairs[i]
		}
	}
	return ""
}

func text(s string) string {
	if !source.Present(s) {
		return ""
	}
	return strings.TrimSpace(s)
}

func opt(s *string) *string {
	if s == nil || !source.Present(*s) {
		return nil
	}
	return ptr(strings.TrimSpace(*s))
}

func optDate(d *source.Date) *source.Date {
	if d == nil || d.IsZero() {
		return nil
	}
	return d
}
