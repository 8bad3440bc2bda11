package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	combined "github.com/ovaphlow/pitchfork/service-readiness-go/internal/combined/entity"
	source "github.com/ovaphlow/pitchfork/service-readiness-go/internal/source/entity"
	"github.com/ovaphlow/pitchfork/service-readiness-go/pkg/database"
)

// MaxRows caps every query result.
const MaxRows = 1000

// Request is one (data type, field, operator, value) lookup.
type Request struct {
	DataType DataType
	Field    string
	Operator Operator
	Value    string
}

// ParseRequest builds a Request from its string form.
func ParseRequest(dataType, field, operator, value string) (Request, error) {
	d, err := ParseDataType(dataType)
	if err != nil {
		return Request{}, err
	}
	op, err := ParseOperator(operator)
	if err != nil {
		return Request{}, err
	}
	return Request{DataType: d, Field: field, Operator: op, Value: value}, nil
}

// Result holds typed rows: Rows is a slice of the store's record type.
type Result struct {
	DataType  DataType `json:"data_type"`
	Column    string   `json:"column"`
	Count     int      `json:"count"`
	Truncated bool     `json:"truncated"`
	Rows      any      `json:"rows"`
}

// Grid is a result flattened to display strings, headed by column labels.
type Grid struct {
	Headers   []string
	Rows      [][]string
	Truncated bool
}

// Engine runs read-only lookups against the session's stores.
type Engine struct {
	session *database.Session
}

func NewEngine(session *database.Session) *Engine { return &Engine{session: session} }

// Query returns at most MaxRows rows of the store selected by req.DataType.
func (e *Engine) Query(ctx context.Context, req Request) (*Result, error) {
	stmt, err := build(req)
	if err != nil {
		return nil, err
	}
	res := &Result{DataType: req.DataType, Column: stmt.column.Name}
	err = e.session.WithReadTx(ctx, "query", func(tx *sqlx.Tx) error {
		q := tx.Rebind(stmt.sql)
		var err error
		switch req.DataType {
		case DataAccess:
			res.Rows, res.Count, res.Truncated, err = selectCapped[source.AccessRecord](ctx, tx, q, stmt.args)
		case DataEmployment:
			res.Rows, res.Count, res.Truncated, err = selectCapped[source.EmploymentRecord](ctx, tx, q, stmt.args)
		case DataPackaging:
			res.Rows, res.Count, res.Truncated, err = selectCapped[source.PackagingRecord](ctx, tx, q, stmt.args)
		case DataTesting:
			res.Rows, res.Count, res.Truncated, err = selectCapped[source.TestingRecord](ctx, tx, q, stmt.args)
		case DataMigrationPlan:
			res.Rows, res.Count, res.Truncated, err = selectCapped[source.MigrationPlanRecord](ctx, tx, q, stmt.args)
		case DataCluster:
			res.Rows, res.Count, res.Truncated, err = selectCapped[source.ClusterRecord](ctx, tx, q, stmt.args)
		case DataCombined:
			res.Rows, res.Count, res.Truncated, err = selectCapped[combined.CombinedRecord](ctx, tx, q, stmt.args)
		default:
			err = fmt.Errorf("%w: %v", ErrUnknownDataType, req.DataType)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Table runs req like Query and flattens the rows for export.
func (e *Engine) Table(ctx context.Context, req Request) (*Grid, error) {
	stmt, err := build(req)
	if err != nil {
		return nil, err
	}
	grid := &Grid{Headers: stmt.schema.labels(), Rows: [][]string{}}
	err = e.session.WithReadTx(ctx, "query table", func(tx *sqlx.Tx) error {
		rows, err := tx.QueryxContext(ctx, tx.Rebind(stmt.sql), stmt.args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			if len(grid.Rows) == MaxRows {
				grid.Truncated = true
				break
			}
			vals, err := rows.SliceScan()
			if err != nil {
				return err
			}
			line := make([]string, len(vals))
			for i, v := range vals {
				line[i] = display(v, stmt.schema.columns[i].Kind)
			}
			grid.Rows = append(grid.Rows, line)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return grid, nil
}

func selectCapped[T any](ctx context.Context, tx *sqlx.Tx, q string, args []any) ([]T, int, bool, error) {
	rows := []T{}
	if err := tx.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, 0, false, err
	}
	truncated := len(rows) > MaxRows
	if truncated {
		rows = rows[:MaxRows]
	}
	return rows, len(rows), truncated, nil
}

type statement struct {
	schema *schema
	column Column
	sql    string
	args   []any
}

// build resolves the field and renders a parameterized SELECT. Identifiers
// only ever come from the registry; the value is always bound.
func build(req Request) (*statement, error) {
	s, ok := registry[req.DataType]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownDataType, req.DataType)
	}
	col, err := s.resolve(req.Field)
	if err != nil {
		return nil, err
	}
	where, args, err := predicate(col, req.Operator, req.Value)
	if err != nil {
		return nil, err
	}
	args = append(args, MaxRows+1)
	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY id LIMIT ?",
		strings.Join(s.names(), ", "), s.table, where)
	return &statement{schema: s, column: col, sql: q, args: args}, nil
}

func predicate(col Column, op Operator, value string) (string, []any, error) {
	c := col.Name
	if _, ok := operatorNames[op]; !ok {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidOperator, op)
	}
	if op.dated() && col.Kind == KindText {
		return "", nil, fmt.Errorf("%w: %s needs a date field, %q is text", ErrInvalidOperator, op, col.Label)
	}
	if col.Kind == KindTimestamp && op.needsValue() && !op.dated() && op != OpEquals && op != OpNotEquals {
		return "", nil, fmt.Errorf("%w: %s does not apply to %q", ErrInvalidOperator, op, col.Label)
	}

	if op.dated() {
		d, err := source.ParseDate(value)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %q, want dd/mm/yyyy", ErrInvalidDateFormat, value)
		}
		bound := d.Time
		if op == OpAfter {
			bound = bound.AddDate(0, 0, 1)
		}
		var arg any = bound.Format(source.DateLayout)
		if col.Kind == KindTimestamp {
			arg = bound.UTC()
		}
		if op == OpBefore {
			return c + " < ?", []any{arg}, nil
		}
		return c + " >= ?", []any{arg}, nil
	}

	value = strings.TrimSpace(value)
	switch op {
	case OpEquals:
		return c + " = ?", []any{value}, nil
	case OpNotEquals:
		return "(" + c + " IS NULL OR " + c + " <> ?)", []any{value}, nil
	case OpContains:
		return "LOWER(" + c + ") LIKE ? ESCAPE '\\'", []any{"%" + escapeLike(value) + "%"}, nil
	case OpNotContains:
		return "(" + c + " IS NULL OR LOWER(" + c + ") NOT LIKE ? ESCAPE '\\')", []any{"%" + escapeLike(value) + "%"}, nil
	case OpStartsWith:
		return "LOWER(" + c + ") LIKE ? ESCAPE '\\'", []any{escapeLike(value) + "%"}, nil
	case OpEndsWith:
		return "LOWER(" + c + ") LIKE ? ESCAPE '\\'", []any{"%" + escapeLike(value)}, nil
	case OpIsEmpty:
		if col.Kind == KindTimestamp {
			return c + " IS NULL", nil, nil
		}
		return "(" + c + " IS NULL OR " + c + " = '')", nil, nil
	case OpIsNotEmpty:
		if col.Kind == KindTimestamp {
			return c + " IS NOT NULL", nil, nil
		}
		return "(" + c + " IS NOT NULL AND " + c + " <> '')", nil, nil
	}
	return "", nil, fmt.Errorf("%w: %v", ErrInvalidOperator, op)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(strings.ToLower(s)) }

func display(v any, kind Kind) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return display(string(t), kind)
	case time.Time:
		if kind == KindDate {
			return t.Format(source.DisplayDateLayout)
		}
		return t.UTC().Format(time.RFC3339)
	case string:
		if kind == KindDate {
			if d, err := source.ParseDate(t); err == nil {
				return d.Format(source.DisplayDateLayout)
			}
		}
		return t
	}
	return fmt.Sprint(v)
}
