package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ovaphlow/pitchfork/service-readiness-go/internal/commands"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "readinessctl",
		Short: "Import, reconcile and query migration readiness data",
		Long: `readinessctl loads the six readiness sources (access, employment, packaging,
testing, migration plan, cluster), rebuilds the combined view and queries it.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&commands.ConfigPath, "config", "", "config file (default $READINESS_CONFIG or ./readiness.yaml)")
	root.PersistentFlags().BoolVarP(&commands.Verbose, "verbose", "v", false, "log to stdout")

	root.AddCommand(
		commands.NewImportCmd(),
		commands.NewRebuildCmd(),
		commands.NewQueryCmd(),
		commands.NewExportCmd(),
		commands.NewClearCmd(),
		commands.NewBatchesCmd(),
		commands.NewSummaryCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
