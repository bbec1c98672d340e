package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/templui/goalstash/internal/repository"
)

func DriftCmd() *cobra.Command {
	var failOnDrift bool

	cmd := &cobra.Command{
		Use:   "drift",
		Short: "List goals whose balance differs from the sum of their stats",
		Long: `Balances move by in-place increments and can be overridden directly,
so they may disagree with the stat ledger. This command only reports;
it never changes a balance.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, _, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			drifts, err := repository.NewGoalRepository(database).Drifted(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to check drift: %w", err)
			}

			if len(drifts) == 0 {
				fmt.Println("No drift: every balance matches its ledger.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "GOAL\tUSER\tTITLE\tBALANCE\tLEDGER\tDRIFT")
			for _, d := range drifts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					d.GoalID, d.UserID, d.Title, d.CurrentAmount, d.LedgerTotal, d.Drift())
			}
			err = w.Flush()
			if err != nil {
				return err
			}

			if failOnDrift {
				return fmt.Errorf("%d goals drifted", len(drifts))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&failOnDrift, "fail", false, "exit non-zero when drift is found")
	return cmd
}
