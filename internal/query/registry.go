package query

import (
	"fmt"
	"strings"
)

// Kind drives which operators a column accepts and how dates bind.
type Kind int

const (
	KindText Kind = iota
	// KindDate is a calendar day stored as yyyy-mm-dd text.
	KindDate
	// KindTimestamp is a native timestamp column.
	KindTimestamp
)

// Column is one queryable column of a store.
type Column struct {
	Name    string
	Label   string
	Kind    Kind
	Aliases []string
}

type schema struct {
	table   string
	columns []Column
	lookup  map[string]int
}

func newSchema(table string, columns ...Column) *schema {
	s := &schema{table: table, columns: columns, lookup: make(map[string]int, len(columns)*2)}
	for i, c := range columns {
		s.lookup[c.Name] = i
		s.lookup[labelKey(c.Label)] = i
		for _, a := range c.Aliases {
			s.lookup[labelKey(a)] = i
		}
	}
	return s
}

// resolve maps a human label, alias or column name to its column. Labels
// outside the table are normalized to lowercase_with_underscores and must
// then name a column.
func (s *schema) resolve(field string) (Column, error) {
	if i, ok := s.lookup[labelKey(field)]; ok {
		return s.columns[i], nil
	}
	if i, ok := s.lookup[normalizeField(field)]; ok {
		return s.columns[i], nil
	}
	return Column{}, fmt.Errorf("%w: %q", ErrUnknownField, field)
}

func (s *schema) names() []string {
	out := make([]string, len(s.columns))
	for i, c := range s.columns {
		out[i] = c.Name
	}
	return out
}

func (s *schema) labels() []string {
	out := make([]string, len(s.columns))
	for i, c := range s.columns {
		out[i] = c.Label
	}
	return out
}

func labelKey(s string) string {
	return "label:" + strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// normalizeField turns "Job Role" or "job-role" into "job_role".
func normalizeField(s string) string {
	f := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(strings.ToLower(s)))
	return strings.Join(f, "_")
}

func text(name, label string, aliases ...string) Column {
	return Column{Name: name, Label: label, Kind: KindText, Aliases: aliases}
}

func date(name, label string, aliases ...string) Column {
	return Column{Name: name, Label: label, Kind: KindDate, Aliases: aliases}
}

func stamp(name, label string) Column {
	return Column{Name: name, Label: label, Kind: KindTimestamp}
}

var (
	colID          = text("id", "ID")
	colImportedAt  = stamp("imported_at", "Imported At")
	colImportBatch = text("import_batch", "Import Batch", "Batch")
)

var registry = map[DataType]*schema{
	DataAccess: newSchema("access_records",
		colID,
		text("access_group", "Access Group", "AD Group", "Group"),
		text("account", "Account", "User", "Username"),
		text("application_name", "Application Name", "Application", "App"),
		text("application_suite", "Application Suite", "Suite"),
		text("environment_tier", "Environment Tier", "Environment", "Tier"),
		text("criticality", "Criticality"),
		colImportedAt, colImportBatch,
	),
	DataEmployment: newSchema("employment_records",
		colID,
		text("account", "Account", "User", "Username"),
		text("department", "Department", "Dept"),
		text("job_role", "Job Role", "Role"),
		text("division", "Division"),
		date("leave_date", "Leave Date"),
		text("department_simple", "Department Simple", "Simple Department"),
		colImportedAt, colImportBatch,
	),
	DataPackaging: newSchema("packaging_records",
		colID,
		text("application_name", "Application Name", "Application", "App"),
		text("status", "Status", "Packaging Status"),
		date("readiness_date", "Readiness Date"),
		colImportedAt, colImportBatch,
	),
	DataTesting: newSchema("testing_records",
		colID,
		text("application_name", "Application Name", "Application", "App"),
		text("status", "Status", "Testing Status"),
		text("result", "Result", "Testing Result"),
		date("test_date", "Test Date"),
		date("plan_date", "Plan Date", "Test Plan Date"),
		text("comments", "Comments"),
		colImportedAt, colImportBatch,
	),
	DataMigrationPlan: newSchema("migration_plan_records",
		colID,
		text("application_name", "Application Name", "Application", "App"),
		text("application_new", "Application New", "New Application"),
		text("suite_new", "Suite New", "New Suite"),
		text("target_application", "Target Application", "Target"),
		text("scope_division", "Scope Division", "Scope"),
		text("platform", "Platform"),
		text("readiness", "Readiness", "Migration Readiness"),
		colImportedAt, colImportBatch,
	),
	DataCluster: newSchema("cluster_records",
		colID,
		text("department", "Department", "Dept"),
		text("department_simple", "Department Simple", "Simple Department"),
		text("domain", "Domain"),
		text("migration_cluster", "Migration Cluster", "Cluster"),
		text("cluster_readiness", "Cluster Readiness"),
		colImportedAt, colImportBatch,
	),
	DataCombined: newSchema("combined_records",
		colID,
		text("access_group", "Access Group", "AD Group", "Group"),
		text("account", "Account", "User", "Username"),
		text("application_name", "Application Name", "Application", "App"),
		text("application_suite", "Application Suite", "Suite"),
		text("environment_tier", "Environment Tier", "Environment", "Tier"),
		text("criticality", "Criticality"),
		text("department", "Department", "Dept"),
		text("job_role", "Job Role", "Role"),
		text("division", "Division"),
		date("leave_date", "Leave Date"),
		text("department_simple", "Department Simple", "Simple Department"),
		text("packaging_status", "Packaging Status"),
		date("packaging_readiness_date", "Packaging Readiness Date", "Readiness Date"),
		text("testing_status", "Testing Status"),
		text("testing_result", "Testing Result"),
		date("test_date", "Test Date"),
		date("test_plan_date", "Test Plan Date", "Plan Date"),
		text("test_comments", "Test Comments", "Comments"),
		text("migration_application", "Migration Application", "Planned Application"),
		text("application_new", "Application New", "New Application"),
		text("suite_new", "Suite New", "New Suite"),
		text("target_application", "Target Application", "Target"),
		text("scope_division", "Scope Division", "Scope"),
		text("platform", "Platform"),
		text("migration_readiness", "Migration Readiness"),
		text("cluster_department", "Cluster Department"),
		text("cluster_domain", "Cluster Domain", "Domain"),
		text("migration_cluster", "Migration Cluster", "Cluster"),
		text("cluster_readiness", "Cluster Readiness"),
		colImportedAt, colImportBatch,
		stamp("updated_at", "Updated At"),
	),
}

// Columns returns the queryable columns of d in table order.
func Columns(d DataType) ([]Column, error) {
	s, ok := registry[d]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownDataType, d)
	}
	return append([]Column(nil), s.columns...), nil
}
