package main

import (
	"github.com/spf13/cobra"

	"indexly/internal/pipeline"
	"indexly/internal/platform/config"
)

func newRefreshCmd() *cobra.Command {
	var (
		configPath  string
		databaseURL string
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Re-run the configured sources when stored data lags the current month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			srcs, err := config.LoadSources(configPath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := buildApp(ctx, databaseURL)
			if err != nil {
				return err
			}
			defer a.close()

			refresher := pipeline.NewRefresher(a.store, a.pipeline, a.logger)
			summary, ran, runErr := refresher.Refresh(ctx, srcs, force)
			if !ran && runErr == nil {
				cmd.Println("data is current, nothing to do")
				return nil
			}
			if summary != nil {
				if err := printSummary(summary); err != nil {
					return err
				}
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "sources config file listing locations per source")
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres connection string (defaults to DATABASE_URL)")
	cmd.Flags().BoolVar(&force, "force", false, "run even when stored data is already current")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}
