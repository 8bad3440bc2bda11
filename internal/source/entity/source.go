package entity

import (
	"fmt"
	"strings"
)

// Source names one of the independently imported datasets.
type Source string

const (
	SourceAccess        Source = "Access"
	SourceEmployment    Source = "Employment"
	SourcePackaging     Source = "Packaging"
	SourceTesting       Source = "Testing"
	SourceMigrationPlan Source = "MigrationPlan"
	SourceCluster       Source = "Cluster"
)

// Sources lists every source in dependency order: guarded sources come after
// the stores their guards read.
var Sources = []Source{
	SourceAccess,
	SourceEmployment,
	SourcePackaging,
	SourceTesting,
	SourceMigrationPlan,
	SourceCluster,
}

// ParseSource accepts the canonical name in any case, with or without
// separators ("migration-plan", "migration_plan", "MigrationPlan").
func ParseSource(s string) (Source, error) {
	key := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.TrimSpace(s)))
	for _, src := range Sources {
		if strings.ToLower(string(src)) == key {
			return src, nil
		}
	}
	return "", fmt.Errorf("unknown source %q", s)
}

// Table returns the store table backing the source.
func (s Source) Table() string {
	switch s {
	case SourceAccess:
		return "access_records"
	case SourceEmployment:
		return "employment_records"
	case SourcePackaging:
		return "packaging_records"
	case SourceTesting:
		return "testing_records"
	case SourceMigrationPlan:
		return "migration_plan_records"
	case SourceCluster:
		return "cluster_records"
	}
	return ""
}
