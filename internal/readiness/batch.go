package readiness

import (
	"encoding/json"
	"fmt"
	"io"

	source "github.com/ovaphlow/pitchfork/service-readiness-go/internal/source/entity"
)

// Batch is an ordered list of typed candidates for one source. Identity and
// audit fields on the candidates are ignored; the importer assigns them.
type Batch interface {
	Source() source.Source
	Len() int
}

type (
	AccessBatch        []source.AccessRecord
	EmploymentBatch    []source.EmploymentRecord
	PackagingBatch     []source.PackagingRecord
	TestingBatch       []source.TestingRecord
	MigrationPlanBatch []source.MigrationPlanRecord
	ClusterBatch       []source.ClusterRecord
)

func (AccessBatch) Source() source.Source        { return source.SourceAccess }
func (EmploymentBatch) Source() source.Source    { return source.SourceEmployment }
func (PackagingBatch) Source() source.Source     { return source.SourcePackaging }
func (TestingBatch) Source() source.Source       { return source.SourceTesting }
func (MigrationPlanBatch) Source() source.Source { return source.SourceMigrationPlan }
func (ClusterBatch) Source() source.Source       { return source.SourceCluster }

func (b AccessBatch) Len() int        { return len(b) }
func (b EmploymentBatch) Len() int    { return len(b) }
func (b PackagingBatch) Len() int     { return len(b) }
func (b TestingBatch) Len() int       { return len(b) }
func (b MigrationPlanBatch) Len() int { return len(b) }
func (b ClusterBatch) Len() int       { return len(b) }

// DecodeBatch reads a JSON array of candidates for src.
func DecodeBatch(src source.Source, r io.Reader) (Batch, error) {
	var (
		b   Batch
		err error
	)
	dec := json.NewDecoder(r)
	switch src {
	case source.SourceAccess:
		var rows AccessBatch
		err = dec.Decode(&rows)
		b = rows
	case source.SourceEmployment:
		var rows EmploymentBatch
		err = dec.Decode(&rows)
		b = rows
	case source.SourcePackaging:
		var rows PackagingBatch
		err = dec.Decode(&rows)
		b = rows
	case source.SourceTesting:
		var rows TestingBatch
		err = dec.Decode(&rows)
		b = rows
	case source.SourceMigrationPlan:
		var rows MigrationPlanBatch
		err = dec.Decode(&rows)
		b = rows
	case source.SourceCluster:
		var rows ClusterBatch
		err = dec.Decode(&rows)
		b = rows
	default:
		return nil, fmt.Errorf("decode batch: unknown source %q", src)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s batch: %w", src, err)
	}
	return b, nil
}
