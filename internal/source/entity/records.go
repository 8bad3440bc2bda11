package entity

import (
	"strings"
	"time"
)

// NotAvailable is the sentinel the source sheets use for a missing value.
const NotAvailable = "N/A"

// Present reports whether s carries a value: not blank and not the N/A sentinel.
func Present(s string) bool {
	t := strings.TrimSpace(s)
	return t != "" && !strings.EqualFold(t, NotAvailable)
}

// Audit is the provenance stamped on every row an import touches.
type Audit struct {
	ImportedAt  time.Time `db:"imported_at" json:"imported_at"`
	ImportBatch string    `db:"import_batch" json:"import_batch"`
}

// AccessRecord is one directory-group membership: account Account reaches
// ApplicationName through AccessGroup.
type AccessRecord struct {
	ID               string `db:"id" json:"id,omitempty"`
	AccessGroup      string `db:"access_group" json:"access_group"`
	Account          string `db:"account" json:"account"`
	ApplicationName  string `db:"application_name" json:"application_name"`
	ApplicationSuite string `db:"application_suite" json:"application_suite"`
	EnvironmentTier  string `db:"environment_tier" json:"environment_tier"`
	Criticality      string `db:"criticality" json:"criticality"`
	Audit
}

// EmploymentRecord is the HR view of one account.
type EmploymentRecord struct {
	ID               string  `db:"id" json:"id,omitempty"`
	Account          string  `db:"account" json:"account"`
	Department       string  `db:"department" json:"department"`
	JobRole          string  `db:"job_role" json:"job_role"`
	Division         string  `db:"division" json:"division"`
	LeaveDate        *Date   `db:"leave_date" json:"leave_date,omitempty"`
	DepartmentSimple *string `db:"department_simple" json:"department_simple,omitempty"`
	Audit
}

// PackagingRecord tracks the packaging state of one application.
type PackagingRecord struct {
	ID              string `db:"id" json:"id,omitempty"`
	ApplicationName string `db:"application_name" json:"application_name"`
	Status          string `db:"status" json:"status"`
	ReadinessDate   *Date  `db:"readiness_date" json:"readiness_date,omitempty"`
	Audit
}

// TestingRecord tracks the test state of one application.
type TestingRecord struct {
	ID              string  `db:"id" json:"id,omitempty"`
	ApplicationName string  `db:"application_name" json:"application_name"`
	Status          string  `db:"status" json:"status"`
	Result          string  `db:"result" json:"result"`
	TestDate        *Date   `db:"test_date" json:"test_date,omitempty"`
	PlanDate        *Date   `db:"plan_date" json:"plan_date,omitempty"`
	Comments        *string `db:"comments" json:"comments,omitempty"`
	Audit
}

// MigrationPlanRecord describes where an application is headed.
type MigrationPlanRecord struct {
	ID                string  `db:"id" json:"id,omitempty"`
	ApplicationName   string  `db:"application_name" json:"application_name"`
	ApplicationNew    *string `db:"application_new" json:"application_new,omitempty"`
	SuiteNew          *string `db:"suite_new" json:"suite_new,omitempty"`
	TargetApplication *string `db:"target_application" json:"target_application,omitempty"`
	ScopeDivision     *string `db:"scope_division" json:"scope_division,omitempty"`
	Platform          *string `db:"platform" json:"platform,omitempty"`
	Readiness         *string `db:"readiness" json:"readiness,omitempty"`
	Audit
}

// ClusterRecord assigns a department to a migration cluster.
type ClusterRecord struct {
	ID               string  `db:"id" json:"id,omitempty"`
	Department       string  `db:"department" json:"department"`
	DepartmentSimple *string `db:"department_simple" json:"department_simple,omitempty"`
	Domain           *string `db:"domain" json:"domain,omitempty"`
	MigrationCluster *string `db:"migration_cluster" json:"migration_cluster,omitempty"`
	ClusterReadiness *string `db:"cluster_readiness" json:"cluster_readiness,omitempty"`
	Audit
}

// ImportBatch is the audit row written once per import or rebuild call.
type ImportBatch struct {
	ID         string    `db:"id" json:"id"`
	Label      string    `db:"label" json:"label"`
	Source     string    `db:"source" json:"source"`
	Saved      int       `db:"saved" json:"saved"`
	Skipped    int       `db:"skipped" json:"skipped"`
	StartedAt  time.Time `db:"started_at" json:"started_at"`
	FinishedAt time.Time `db:"finished_at" json:"finished_at"`
}
