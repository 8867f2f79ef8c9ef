package main

import (
	"fmt"

	"github.com/ethpandaops/jsbench/pkg/export"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Publish a static snapshot of all test cases",
	Long: `Write the read-only JSON documents (tests.json, test/{slug}.json, revision
history and by-browser reports) to a local directory or an S3 bucket.`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if !cfg.Export.Enabled() {
		return fmt.Errorf("no export backend is enabled in config")
	}

	ctx := cmd.Context()

	pub, err := export.NewPublisher(log, &cfg.Export)
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}

	if err := pub.Preflight(ctx); err != nil {
		return fmt.Errorf("export preflight: %w", err)
	}

	st, svc, err := openService(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Stop() }()

	summary, err := export.NewExporter(
		log, svc, pub, cfg.Export.Prefix, cfg.Export.Concurrency,
	).Run(ctx)
	if err != nil {
		return fmt.Errorf("exporting: %w", err)
	}

	log.WithFields(logrus.Fields{
		"test_cases": summary.TestCases,
		"files":      summary.Files,
	}).Info("Export completed successfully")

	return nil
}
