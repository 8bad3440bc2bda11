package entity

import (
	"time"

	source "github.com/ovaphlow/pitchfork/service-readiness-go/internal/source/entity"
)

// CombinedRecord is the denormalized readiness view of one access row.
// Pointer fields belong to joined sources: nil means the source had no
// matching row, which is distinct from a matched row holding "".
type CombinedRecord struct {
	ID string `db:"id" json:"id"`

	// anchor
	AccessGroup      string `db:"access_group" json:"access_group"`
	Account          string `db:"account" json:"account"`
	ApplicationName  string `db:"application_name" json:"application_name"`
	ApplicationSuite string `db:"application_suite" json:"application_suite"`
	EnvironmentTier  string `db:"environment_tier" json:"environment_tier"`
	Criticality      string `db:"criticality" json:"criticality"`

	// employment, by account
	Department       *string      `db:"department" json:"department,omitempty"`
	JobRole          *string      `db:"job_role" json:"job_role,omitempty"`
	Division         *string      `db:"division" json:"division,omitempty"`
	LeaveDate        *source.Date `db:"leave_date" json:"leave_date,omitempty"`
	DepartmentSimple *string      `db:"department_simple" json:"department_simple,omitempty"`

	// packaging, by application
	PackagingStatus        *string      `db:"packaging_status" json:"packaging_status,omitempty"`
	PackagingReadinessDate *source.Date `db:"packaging_readiness_date" json:"packaging_readiness_date,omitempty"`

	// testing, by application
	TestingStatus *string      `db:"testing_status" json:"testing_status,omitempty"`
	TestingResult *string      `db:"testing_result" json:"testing_result,omitempty"`
	TestDate      *source.Date `db:"test_date" json:"test_date,omitempty"`
	TestPlanDate  *source.Date `db:"test_plan_date" json:"test_plan_date,omitempty"`
	TestComments  *string      `db:"test_comments" json:"test_comments,omitempty"`

	// migration plan, by application; MigrationApplication is set whenever a
	// plan row matched, even one holding only N/A fields
	MigrationApplication *string `db:"migration_application" json:"migration_application,omitempty"`
	ApplicationNew     *string `db:"application_new" json:"application_new,omitempty"`
	SuiteNew           *string `db:"suite_new" json:"suite_new,omitempty"`
	TargetApplication  *string `db:"target_application" json:"target_application,omitempty"`
	ScopeDivision      *string `db:"scope_division" json:"scope_division,omitempty"`
	Platform           *string `db:"platform" json:"platform,omitempty"`
	MigrationReadiness *string `db:"migration_readiness" json:"migration_readiness,omitempty"`

	// cluster, by the employment department; ClusterDepartment marks the match
	ClusterDepartment *string `db:"cluster_department" json:"cluster_department,omitempty"`
	ClusterDomain    *string `db:"cluster_domain" json:"cluster_domain,omitempty"`
	MigrationCluster *string `db:"migration_cluster" json:"migration_cluster,omitempty"`
	ClusterReadiness *string `db:"cluster_readiness" json:"cluster_readiness,omitempty"`

	source.Audit
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// HasEmployment reports whether an employment row was joined.
func (c *CombinedRecord) HasEmployment() bool { return c.Department != nil }

// HasPackaging reports whether a packaging row was joined.
func (c *CombinedRecord) HasPackaging() bool { return c.PackagingStatus != nil }

// HasTesting reports whether a testing row was joined.
func (c *CombinedRecord) HasTesting() bool { return c.TestingStatus != nil }

// HasMigrationPlan reports whether a migration plan row was joined.
func (c *CombinedRecord) HasMigrationPlan() bool { return c.MigrationApplication != nil }

// HasCluster reports whether a cluster row was joined.
func (c *CombinedRecord) HasCluster() bool { return c.ClusterDepartment != nil }

// Columns lists the combined_records columns in table order.
var Columns = []string{
	"id",
	"access_group", "account", "application_name", "application_suite", "environment_tier", "criticality",
	"department", "job_role", "division", "leave_date", "department_simple",
	"packaging_status", "packaging_readiness_date",
	"testing_status", "testing_result", "test_date", "test_plan_date", "test_comments",
	"migration_application", "application_new", "suite_new", "target_application", "scope_division", "platform", "migration_readiness",
	"cluster_department", "cluster_domain", "migration_cluster", "cluster_readiness",
	"imported_at", "import_batch", "updated_at",
}
