package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/goblinstake/goblin-stake/journal"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the transactions recorded in the local journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.cfg.Journal.Path == "" {
			return fmt.Errorf("no journal configured (set journal.path or JOURNAL_PATH)")
		}

		store, err := journal.Open(a.cfg.Journal.Path, a.cfg.Journal.CacheSize)
		if err != nil {
			return err
		}
		defer store.Close()

		records, err := store.List(limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, record := range records {
			fmt.Fprintf(out, "%v  %-10v %-16v %-9v %v", record.Submitted.Format(time.RFC3339), record.Cluster, record.Method, record.Status, record.Signature)
			if record.Slot > 0 {
				fmt.Fprintf(out, " slot=%v", record.Slot)
			}
			if record.Error != "" {
				fmt.Fprintf(out, " error=%q", record.Error)
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of records, 0 for all")
	rootCmd.AddCommand(historyCmd)
}
