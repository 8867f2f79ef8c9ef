package main

import (
	"fmt"

	"github.com/ethpandaops/jsbench/pkg/store"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Starting the store runs the schema migration.
	st := store.NewStore(log, &cfg.API.Database)
	if err := st.Start(cmd.Context()); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	if err := st.Stop(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}

	log.WithField("driver", cfg.API.Database.Driver).Info("Database schema is up to date")

	return nil
}
