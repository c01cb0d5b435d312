package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/magnus188/trimix-analysator/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent update attempts",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.Open(resolveHistoryDB())
		if err != nil {
			return err
		}
		defer store.Close()

		attempts, err := store.List(context.Background(), historyLimit)
		if err != nil {
			return err
		}
		if len(attempts) == 0 {
			fmt.Println("No update attempts recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tFROM\tTO\tOUTCOME\tMESSAGE")
		for _, a := range attempts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				a.StartedAt.Local().Format(time.DateTime),
				a.FromVersion, a.ToVersion, a.Outcome, a.Message)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of attempts to show")
	historyCmd.Flags().StringVar(&historyDB, "history-db", "", "Path to the update log database (default: <data-dir>/updates.db)")
	rootCmd.AddCommand(historyCmd)
}
