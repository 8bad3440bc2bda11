package readiness

import (
	"time"

	combined "github.com/ovaphlow/pitchfork/service-readiness-go/internal/combined/entity"
	source "github.com/ovaphlow/pitchfork/service-readiness-go/internal/source/entity"
)

// sourceIndex holds every non-anchor source keyed by its natural key.
type sourceIndex struct {
	employment map[string]*source.EmploymentRecord
	packaging  map[string]*source.PackagingRecord
	testing    map[string]*source.TestingRecord
	migration  map[string]*source.MigrationPlanRecord
	cluster    map[string]*source.ClusterRecord
}

func newSourceIndex(
	employment []source.EmploymentRecord,
	packaging []source.PackagingRecord,
	testing []source.TestingRecord,
	migration []source.MigrationPlanRecord,
	cluster []source.ClusterRecord,
) *sourceIndex {
	ix := &sourceIndex{
		employment: make(map[string]*source.EmploymentRecord, len(employment)),
		packaging:  make(map[string]*source.PackagingRecord, len(packaging)),
		testing:    make(map[string]*source.TestingRecord, len(testing)),
		migration:  make(map[string]*source.MigrationPlanRecord, len(migration)),
		cluster:    make(map[string]*source.ClusterRecord, len(cluster)),
	}
	for i := range employment {
		ix.employment[employment[i].Account] = &employment[i]
	}
	for i := range packaging {
		ix.packaging[packaging[i].ApplicationName] = &packaging[i]
	}
	for i := range testing {
		ix.testing[testing[i].ApplicationName] = &testing[i]
	}
	for i := range migration {
		ix.migration[migration[i].ApplicationName] = &migration[i]
	}
	for i := range cluster {
		ix.cluster[cluster[i].Department] = &cluster[i]
	}
	return ix
}

// combine builds the combined row for one anchor. The cluster is reached
// through the matched employment's department; without employment there is
// no cluster either.
func (ix *sourceIndex) combine(a *source.AccessRecord, id string, audit source.Audit, now time.Time) *combined.CombinedRecord {
	c := &combined.CombinedRecord{
		ID:               id,
		AccessGroup:      a.AccessGroup,
		Account:          a.Account,
		ApplicationName:  a.ApplicationName,
		ApplicationSuite: a.ApplicationSuite,
		EnvironmentTier:  a.EnvironmentTier,
		Criticality:      a.Criticality,
		Audit:            audit,
		UpdatedAt:        now,
	}

	if e, ok := ix.employment[a.Account]; ok {
		c.Department = ptr(e.Department)
		c.JobRole = ptr(e.JobRole)
		c.Division = ptr(e.Division)
		c.LeaveDate = copyDate(e.LeaveDate)
		c.DepartmentSimple = copyString(e.DepartmentSimple)

		if cl, ok := ix.cluster[e.Department]; ok {
			c.ClusterDepartment = ptr(cl.Department)
			c.ClusterDomain = copyString(cl.Domain)
			c.MigrationCluster = copyString(cl.MigrationCluster)
			c.ClusterReadiness = copyString(cl.ClusterReadiness)
			if c.DepartmentSimple == nil {
				c.DepartmentSimple = copyString(cl.DepartmentSimple)
			}
		}
	}

	if p, ok := ix.packaging[a.ApplicationName]; ok {
		c.PackagingStatus = ptr(p.Status)
		c.PackagingReadinessDate = copyDate(p.ReadinessDate)
	}

	if t, ok := ix.testing[a.ApplicationName]; ok {
		c.TestingStatus = ptr(t.Status)
		c.TestingResult = ptr(t.Result)
		c.TestDate = copyDate(t.TestDate)
		c.TestPlanDate = copyDate(t.PlanDate)
		c.TestComments = copyString(t.Comments)
	}

	if m, ok := ix.migration[a.ApplicationName]; ok {
		c.MigrationApplication = ptr(m.ApplicationName)
		c.ApplicationNew = copyString(m.ApplicationNew)
		c.SuiteNew = copyString(m.SuiteNew)
		c.TargetApplication = copyString(m.TargetApplication)
		c.ScopeDivision = copyString(m.ScopeDivision)
		c.Platform = copyString(m.Platform)
		c.MigrationReadiness = copyString(m.Readiness)
	}
	return c
}

func ptr[T any](v T) *T { return &v }

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	return ptr(*s)
}

func copyDate(d *source.Date) *source.Date {
	if d == nil || d.IsZero() {
		return nil
	}
	return ptr(*d)
}
