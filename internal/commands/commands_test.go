package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// useStore points the commands at a fresh SQLite file through a config file.
func useStore(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "readiness.yaml")
	body := "database:\n  driver: sqlite\n  dsn: " + filepath.Join(dir, "readiness.db") + "\n  max_conns: 2\n"
	require.NoError(t, os.WriteFile(cfg, []byte(body), 0o600))

	color.NoColor = true
	prevPath, prevVerbose := ConfigPath, Verbose
	ConfigPath, Verbose = cfg, false
	t.Cleanup(func() { ConfigPath, Verbose = prevPath, prevVerbose })
	return dir
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := &cobra.Command{Use: "readinessctl", SilenceUsage: true, SilenceErrors: true}
	root.AddCommand(
		NewImportCmd(), NewRebuildCmd(), NewQueryCmd(), NewExportCmd(),
		NewClearCmd(), NewBatchesCmd(), NewSummaryCmd(),
	)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeJSON(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestImportRebuildQuery(t *testing.T) {
	dir := useStore(t)
	access := writeJSON(t, dir, "access.json", `[
		{"access_group":"G1","account":"u1","application_name":"AppA"},
		{"access_group":"G1","account":"u2","application_name":"AppA"},
		{"access_group":"G1","account":"","application_name":"AppA"}
	]`)

	out, err := run(t, "", "import", "access", access)
	require.NoError(t, err)
	assert.Contains(t, out, "saved 2 (inserted 2, updated 0), skipped 1")
	assert.Contains(t, out, "row 3")
	assert.Contains(t, out, "missing account")

	out, err = run(t, `[{"account":"u1","department":"Finance"}]`, "import", "employment", "-", "--rebuild")
	require.NoError(t, err)
	assert.Contains(t, out, "combined rebuilt: 2 rows")

	out, err = run(t, "", "query", "combined", "Department", "equals", "Finance")
	require.NoError(t, err)
	assert.Contains(t, out, "u1")
	assert.NotContains(t, out, "u2")
	assert.Contains(t, out, "1 rows")

	out, err = run(t, "", "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Combined")
	assert.NotContains(t, out, "stale")

	out, err = run(t, "", "batches", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Combined_Import_")
	assert.Contains(t, out, "Employment_Import_")
}

func TestClearMarksCombinedStale(t *testing.T) {
	dir := useStore(t)
	access := writeJSON(t, dir, "access.json", `[{"access_group":"G1","account":"u1","application_name":"AppA"}]`)
	_, err := run(t, "", "import", "access", access, "--rebuild")
	require.NoError(t, err)

	out, err := run(t, "", "clear", "combined")
	require.NoError(t, err)
	assert.Contains(t, out, "Combined: deleted 1 rows")

	out, err = run(t, "", "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "combined is stale")

	out, err = run(t, "", "clear", "access")
	require.NoError(t, err)
	assert.Contains(t, out, "Access: deleted 1 rows")
}

func TestExportWritesWorkbook(t *testing.T) {
	dir := useStore(t)
	access := writeJSON(t, dir, "access.json", `[{"access_group":"G1","account":"u1","application_name":"AppA"}]`)
	_, err := run(t, "", "import", "access", access)
	require.NoError(t, err)

	target := filepath.Join(dir, "out.xlsx")
	out, err := run(t, "", "export", "access", "Application", "starts-with", "app", "-o", target)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 1 rows")

	f, err := excelize.OpenFile(target)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Access")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "u1", rows[1][2])
}

func TestCommandErrors(t *testing.T) {
	dir := useStore(t)

	_, err := run(t, "", "import", "payroll", "-")
	assert.ErrorContains(t, err, "unknown source")

	_, err = run(t, "", "import", "access", filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "opening")

	_, err = run(t, "", "query", "combined", "Salary", "equals", "1")
	assert.ErrorContains(t, err, "unknown field")

	_, err = run(t, "", "query", "combined", "Department", "greater", "1")
	assert.ErrorContains(t, err, "invalid operator")

	_, err = run(t, "", "clear", "payroll")
	assert.Error(t, err)

	ConfigPath = filepath.Join(dir, "nope.yaml")
	_, err = run(t, "", "summary")
	assert.ErrorContains(t, err, "loading config")
}
