package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"indexly/internal/pipeline"
)

func newIngestCmd() *cobra.Command {
	var (
		mospiAnnexes     []string
		dataGovResources []string
		imfSeries        []string
		dpiitResources   []string
		databaseURL      string
		dryRun           bool
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Process explicitly listed source files into the series store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			srcs := pipeline.Sources{
				MOSPIAnnexes:     mospiAnnexes,
				DataGovResources: dataGovResources,
				IMFSeries:        imfSeries,
				DPIITResources:   dpiitResources,
			}
			if srcs.Empty() {
				return fmt.Errorf("no source files given; pass at least one --mospi-annex, --datagov-resource, --imf-series, or --dpiit-resource")
			}

			ctx := cmd.Context()
			a, err := buildApp(ctx, databaseURL)
			if err != nil {
				return err
			}
			defer a.close()

			summary, runErr := a.pipeline.Run(ctx, srcs, dryRun)
			if summary != nil {
				if err := printSummary(summary); err != nil {
					return err
				}
			}
			return runErr
		},
	}

	cmd.Flags().StringArrayVar(&mospiAnnexes, "mospi-annex", nil, "MOSPI annex workbook (path or URL, repeatable)")
	cmd.Flags().StringArrayVar(&dataGovResources, "datagov-resource", nil, "data.gov.in CSV resource (path or URL, repeatable)")
	cmd.Flags().StringArrayVar(&imfSeries, "imf-series", nil, "IMF series JSON document (path or URL, repeatable)")
	cmd.Flags().StringArrayVar(&dpiitResources, "dpiit-resource", nil, "DPIIT WPI archive or table (path or URL, repeatable)")
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres connection string (defaults to DATABASE_URL)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and preview without writing to storage")
	return cmd
}
