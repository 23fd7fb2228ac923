// Command indexly runs the price-index reconciliation pipeline: ingest
// processes explicitly listed source files, refresh re-runs the configured
// sources when stored data lags the current month.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Optional .env for local runs; the real environment always wins.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "indexly",
		Short:         "Reconcile price index observations from public sources into one series store",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newIngestCmd(), newRefreshCmd())
	return root
}
