package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validates content against the collection schemas without building",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		builder := newBuilder(cmd)
		items, err := builder.Check(cmd.Context())
		out := cmd.OutOrStdout()
		if err != nil {
			errs := multierr.Errors(err)
			for _, e := range errs {
				fmt.Fprintf(out, "  - %v\n", e)
			}
			return fmt.Errorf("%d problem(s) found in %s", len(errs), builder.Config.ContentDir)
		}
		fmt.Fprintf(out, "%d entries valid\n", len(items))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
