package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ovaphlow/pitchfork/service-readiness-go/internal/query"
	"github.com/ovaphlow/pitchfork/service-readiness-go/internal/report"
)

const queryArgsHelp = `Data types: Access, Employment, Combined, Packaging, Testing, MigrationPlan, Cluster.
Operators: equals, not-equals, contains, not-contains, starts-with, ends-with,
is-empty, is-not-empty, before, after (dates as dd/mm/yyyy).`

// NewQueryCmd creates the query command.
func NewQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <type> <field> <operator> [value]",
		Short: "Look up rows of one store by a single field",
		Long:  queryArgsHelp,
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := parseQueryArgs(args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			grid, err := query.NewEngine(e.session).Table(ctx, req)
			if err != nil {
				return err
			}
			if err := printTable(cmd.OutOrStdout(), grid.Headers, grid.Rows); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d rows\n", len(grid.Rows))
			if grid.Truncated {
				warnColor.Fprintf(cmd.OutOrStdout(), "result capped at %d rows\n", query.MaxRows)
			}
			return nil
		},
	}
}

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	var (
		out     string
		publish bool
	)

	cmd := &cobra.Command{
		Use:   "export <type> <field> <operator> [value]",
		Short: "Write query results to an xlsx workbook",
		Long:  queryArgsHelp,
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := parseQueryArgs(args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			grid, err := query.NewEngine(e.session).Table(ctx, req)
			if err != nil {
				return err
			}
			body, err := report.WriteWorkbook(req.DataType.String(), grid.Headers, grid.Rows)
			if err != nil {
				return err
			}
			name := query.ExportName(req.DataType, time.Now())

			if publish {
				pub, err := report.NewS3Publisher(ctx, e.cfg.Report)
				if err != nil {
					return err
				}
				key, err := pub.Publish(ctx, name, body)
				if err != nil {
					return err
				}
				okColor.Fprintf(cmd.OutOrStdout(), "published %d rows to s3://%s/%s\n", len(grid.Rows), e.cfg.Report.Bucket, key)
				return nil
			}

			if out == "" {
				out = name
			}
			if err := os.WriteFile(out, body, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			okColor.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", len(grid.Rows), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default <Type>_Report_<time>.xlsx)")
	cmd.Flags().BoolVar(&publish, "publish", false, "upload the workbook to the configured report bucket")
	return cmd
}

func parseQueryArgs(args []string) (query.Request, error) {
	value := ""
	if len(args) == 4 {
		value = args[3]
	}
	return query.ParseRequest(args[0], args[1], args[2], value)
}
