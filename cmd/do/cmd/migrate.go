package cmd

import (
	"github.com/spf13/cobra"
	"github.com/templui/goalstash/internal/db"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, cfg, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()
			return db.RunMigrations(database.DB, cfg.DBDriver)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, cfg, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()
			return db.MigrateDown(database.DB, cfg.DBDriver)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, cfg, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()
			return db.MigrationStatus(database.DB, cfg.DBDriver)
		},
	})

	return cmd
}
