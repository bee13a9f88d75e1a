package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/tally/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate <config-file>",
	Short: "Validate a tally configuration file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.Load(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: configuration is valid\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
