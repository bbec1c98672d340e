package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/templui/goalstash/internal/repository"
)

func SessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Session maintenance",
	}

	var olderThan time.Duration
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete revoked and expired sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, _, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			removed, err := repository.NewSessionRepository(database).CleanupExpired(cmd.Context(), olderThan)
			if err != nil {
				return fmt.Errorf("failed to prune sessions: %w", err)
			}

			fmt.Printf("Removed %d sessions\n", removed)
			return nil
		},
	}
	prune.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "only remove sessions that ended before this long ago")

	cmd.AddCommand(prune)
	return cmd
}
