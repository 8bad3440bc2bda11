package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ovaphlow/pitchfork/service-readiness-go/internal/readiness"
	source "github.com/ovaphlow/pitchfork/service-readiness-go/internal/source/entity"
)

// NewImportCmd creates the import command.
func NewImportCmd() *cobra.Command {
	var rebuild bool

	cmd := &cobra.Command{
		Use:   "import <source> <file.json>",
		Short: "Upsert a JSON array of candidate records into one source store",
		Long: `Sources: Access, Employment, Packaging, Testing, MigrationPlan, Cluster.
Use "-" as the file to read standard input.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], args[1], rebuild)
		},
	}
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "rebuild combined records after the import")
	return cmd
}

func runImport(cmd *cobra.Command, name, file string, rebuild bool) error {
	src, err := source.ParseSource(name)
	if err != nil {
		return err
	}

	var r io.Reader = cmd.InOrStdin()
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("opening %s: %w", file, err)
		}
		defer f.Close()
		r = f
	}
	batch, err := readiness.DecodeBatch(src, r)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	res, err := e.svc.Import(ctx, batch)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	okColor.Fprintf(out, "%s: saved %d (inserted %d, updated %d), skipped %d\n",
		res.Batch, res.Saved, res.Inserted, res.Updated, res.Skipped)
	if res.Propagated > 0 {
		fmt.Fprintf(out, "  propagated into %d combined rows\n", res.Propagated)
	}
	for _, sk := range res.Skips {
		warnColor.Fprintf(out, "  row %d %s [%s]: %s\n", sk.Row, sk.Key, sk.Kind, sk.Reason)
	}

	if rebuild {
		n, err := e.svc.Rebuild(ctx)
		if err != nil {
			return err
		}
		okColor.Fprintf(out, "combined rebuilt: %d rows\n", n)
	}
	return nil
}
