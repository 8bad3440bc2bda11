package commands

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ovaphlow/pitchfork/service-readiness-go/internal/readiness"
	source "github.com/ovaphlow/pitchfork/service-readiness-go/internal/source/entity"
)

// NewRebuildCmd creates the rebuild command.
func NewRebuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Regenerate every combined record from the source stores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			n, err := e.svc.Rebuild(ctx)
			if err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "combined rebuilt: %d rows\n", n)
			return nil
		},
	}
}

// NewClearCmd creates the clear command.
func NewClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <source|combined>",
		Short: "Delete every row of one source store or of the combined table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			var (
				n     int64
				label string
			)
			if strings.EqualFold(args[0], readiness.CombinedSource) {
				label = readiness.CombinedSource
				n, err = e.svc.ClearCombined(ctx)
			} else {
				src, perr := source.ParseSource(args[0])
				if perr != nil {
					return perr
				}
				label = string(src)
				n, err = e.svc.Clear(ctx, src)
			}
			if err != nil {
				return err
			}
			warnColor.Fprintf(cmd.OutOrStdout(), "%s: deleted %d rows\n", label, n)
			return nil
		},
	}
}

// NewBatchesCmd creates the batches command.
func NewBatchesCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "batches",
		Short: "List recent import and rebuild batches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			batches, err := e.svc.Batches(ctx, limit)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(batches))
			for _, b := range batches {
				rows = append(rows, []string{
					b.Label, b.Source, strconv.Itoa(b.Saved), strconv.Itoa(b.Skipped),
					b.FinishedAt.Sub(b.StartedAt).String(),
				})
			}
			return printTable(cmd.OutOrStdout(), []string{"BATCH", "SOURCE", "SAVED", "SKIPPED", "DURATION"}, rows)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of batches to show")
	return cmd
}

// NewSummaryCmd creates the summary command.
func NewSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show row counts per store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			sum, err := e.svc.Summary(ctx)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(source.Sources)+1)
			for _, src := range source.Sources {
				rows = append(rows, []string{string(src), strconv.Itoa(sum.Sources[src])})
			}
			rows = append(rows, []string{readiness.CombinedSource, strconv.Itoa(sum.Combined)})
			if err := printTable(cmd.OutOrStdout(), []string{"STORE", "ROWS"}, rows); err != nil {
				return err
			}
			if sum.Combined != sum.Sources[source.SourceAccess] {
				warnColor.Fprintf(cmd.OutOrStdout(), "combined is stale: %d access rows, run rebuild\n", sum.Sources[source.SourceAccess])
			}
			return nil
		},
	}
}
