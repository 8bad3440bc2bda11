package query

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidOperator   = errors.New("invalid operator")
	ErrInvalidDateFormat = errors.New("invalid date format")
	ErrUnknownField      = errors.New("unknown field")
	ErrUnknownDataType   = errors.New("unknown data type")
)

// DataType selects the store a query reads.
type DataType int

const (
	DataAccess DataType = iota + 1
	DataEmployment
	DataCombined
	DataPackaging
	DataTesting
	DataMigrationPlan
	DataCluster
)

var dataTypeNames = map[DataType]string{
	DataAccess:        "Access",
	DataEmployment:    "Employment",
	DataCombined:      "Combined",
	DataPackaging:     "Packaging",
	DataTesting:       "Testing",
	DataMigrationPlan: "MigrationPlan",
	DataCluster:       "Cluster",
}

// DataTypes lists every data type in display order.
var DataTypes = []DataType{DataAccess, DataEmployment, DataCombined, DataPackaging, DataTesting, DataMigrationPlan, DataCluster}

func (d DataType) String() string {
	if name, ok := dataTypeNames[d]; ok {
		return name
	}
	return fmt.Sprintf("DataType(%d)", int(d))
}

func (d DataType) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// ParseDataType accepts a data type name in any case, with or without
// separators.
func ParseDataType(s string) (DataType, error) {
	key := compact(s)
	for d, name := range dataTypeNames {
		if strings.ToLower(name) == key {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDataType, s)
}

// Operator is the comparison a query applies to one field.
type Operator int

const (
	OpEquals Operator = iota + 1
	OpNotEquals
	OpContains
	OpNotContains
	OpStartsWith
	OpEndsWith
	OpIsEmpty
	OpIsNotEmpty
	OpBefore
	OpAfter
)

var operatorNames = map[Operator]string{
	OpEquals:      "equals",
	OpNotEquals:   "not-equals",
	OpContains:    "contains",
	OpNotContains: "not-contains",
	OpStartsWith:  "starts-with",
	OpEndsWith:    "ends-with",
	OpIsEmpty:     "is-empty",
	OpIsNotEmpty:  "is-not-empty",
	OpBefore:      "before",
	OpAfter:       "after",
}

func (o Operator) String() string {
	if name, ok := operatorNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Operator(%d)", int(o))
}

func (o Operator) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// needsValue reports whether the operator compares against a value.
func (o Operator) needsValue() bool { return o != OpIsEmpty && o != OpIsNotEmpty }

// dated reports whether the value is a date.
func (o Operator) dated() bool { return o == OpBefore || o == OpAfter }

// ParseOperator accepts "not-equals", "Not Equals" and "not_equals" alike.
func ParseOperator(s string) (Operator, error) {
	key := compact(s)
	for op, name := range operatorNames {
		if strings.ReplaceAll(name, "-", "") == key {
			return op, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidOperator, s)
}

func compact(s string) string {
	return strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.TrimSpace(s)))
}
