package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goblinstake/goblin-stake/harness"
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run the goblin-stake test suite against the configured cluster",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := commandContext(cmd)
		defer cancel()

		result := a.harness.RunSuite(ctx, harness.DefaultSuite())

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%v\n", result.Name)
		for _, res := range result.Results {
			if res.Passed() {
				fmt.Fprintf(out, "  ok   %v (%v)\n", res.Name, res.Duration)
			} else {
				fmt.Fprintf(out, "  FAIL %v (%v): %v\n", res.Name, res.Duration, res.Err)
			}
		}

		if failed := result.Failed(); failed > 0 {
			return fmt.Errorf("%v of %v cases failed", failed, len(result.Results))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(testCmd)
}
