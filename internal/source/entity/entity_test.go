package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSource(t *testing.T) {
	tests := map[string]Source{
		"Access":         SourceAccess,
		"employment":     SourceEmployment,
		"migration-plan": SourceMigrationPlan,
		"Migration_Plan": SourceMigrationPlan,
		" cluster ":      SourceCluster,
	}
	for in, want := range tests {
		got, err := ParseSource(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseSource("payroll")
	assert.Error(t, err)
}

func TestSourceTable(t *testing.T) {
	seen := map[string]bool{}
	for _, src := range Sources {
		table := src.Table()
		require.NotEmpty(t, table, src)
		assert.False(t, seen[table], "duplicate table %s", table)
		seen[table] = true
	}
	assert.Empty(t, Source("Payroll").Table())
}

func TestPresent(t *testing.T) {
	assert.True(t, Present("x"))
	assert.False(t, Present(""))
	assert.False(t, Present("   "))
	assert.False(t, Present("N/A"))
	assert.False(t, Present(" n/a "))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("31/12/2024")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.December, 31), d)

	d, err = ParseDate("2024-12-31")
	require.NoError(t, err)
	assert.Equal(t, "2024-12-31", d.String())

	_, err = ParseDate("12/31/2024")
	assert.Error(t, err)
	_, err = ParseDate("yesterday")
	assert.Error(t, err)
}

func TestDateScanAndValue(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan("2024-02-29"))
	assert.Equal(t, NewDate(2024, time.February, 29), d)

	require.NoError(t, d.Scan([]byte("2024-03-01 00:00:00")))
	assert.Equal(t, "2024-03-01", d.String())

	require.NoError(t, d.Scan(time.Date(2024, 4, 5, 13, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-04-05", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))

	v, err := NewDate(2024, time.June, 1).Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", v)

	v, err = Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestDateJSON(t *testing.T) {
	var rec struct {
		A *Date `json:"a"`
		B Date  `json:"b"`
		C Date  `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"01/02/2024","b":"N/A","c":null}`), &rec))
	require.NotNil(t, rec.A)
	assert.Equal(t, NewDate(2024, time.February, 1), *rec.A)
	assert.True(t, rec.B.IsZero())
	assert.True(t, rec.C.IsZero())

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"2024-02-01","b":null,"c":null}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"a":"2024/02/01"}`), &rec))
}

func TestParseReadinessLabel(t *testing.T) {
	got, err := ParseReadinessLabel("  in   progress ")
	require.NoError(t, err)
	assert.Equal(t, "In Progress", got)

	got, err = ParseReadinessLabel("ON HOLD")
	require.NoError(t, err)
	assert.Equal(t, "On Hold", got)

	_, err = ParseReadinessLabel("Ready-ish")
	assert.Error(t, err)
}
