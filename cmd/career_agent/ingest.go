package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/career-transitions/internal/ingestion"
)

var (
	ingestCompany       string
	ingestLimit         int
	ingestConcurrency   int
	ingestToleranceDays int
	ingestJSON          bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Precompute and store the exits of one company's former employees",
	Long: `Resolve a company, page through its former employees, infer each person's exit, and upsert
the transitions into the store. People whose profiles cannot be fetched are skipped and counted.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestCompany, "company", "c", "", "Company name to ingest (required)")
	ingestCmd.Flags().IntVar(&ingestLimit, "limit", ingestion.DefaultLimit, "Maximum former employees to scan")
	ingestCmd.Flags().IntVar(&ingestConcurrency, "concurrency", 0, "Concurrent profile fetches (default from config)")
	ingestCmd.Flags().IntVar(&ingestToleranceDays, "tolerance-days", 0, "Days a next job may overlap the previous one; 0 is strict (default from config)")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "Print the report as JSON")
	_ = ingestCmd.MarkFlagRequired("company")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if ingestLimit < 0 || ingestConcurrency < 0 || ingestToleranceDays < 0 {
		return fmt.Errorf("--limit, --concurrency, and --tolerance-days must not be negative")
	}
	if cfg.DirectoryURL == "" {
		return errDirectoryRequired
	}

	opts := ingestion.Options{
		Company:     ingestCompany,
		Limit:       ingestLimit,
		Concurrency: cfg.EnrichConcurrency,
		Tolerance:   cfg.Tolerance(),
	}
	if cmd.Flags().Changed("concurrency") {
		opts.Concurrency = ingestConcurrency
	}
	if cmd.Flags().Changed("tolerance-days") {
		opts.Tolerance = time.Duration(ingestToleranceDays) * 24 * time.Hour
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	ingester, err := a.ingester()
	if err != nil {
		return fmt.Errorf("failed to create ingester: %w", err)
	}
	report, err := ingester.Run(ctx, opts)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	if ingestJSON {
		out, err := report.ToJSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), report.String())
	return nil
}
