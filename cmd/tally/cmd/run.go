package cmd

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/agentstation/tally"
	"github.com/agentstation/tally/pkg/billing"
	"github.com/agentstation/tally/pkg/logging"
)

var (
	outputPath   string
	outputFormat string
)

var runCmd = &cobra.Command{
	Use:   "run <bill-file> <ledger-file>",
	Short: "Reconcile a bill file against a ledger file",
	Long: `Run reads two line-item collection files (YAML or JSON), reconciles
them, and writes the discrepancy report to stdout or --output.`,
	Args: cobra.ExactArgs(2),
	RunE: runReconcile,
}

func init() {
	runCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write report to file instead of stdout")
	runCmd.Flags().StringVarP(&outputFormat, "format", "f", "yaml", "report format: yaml or json")
	rootCmd.AddCommand(runCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := logging.Default()

	bill, err := billing.LoadCollection(args[0], billing.SideBill)
	if err != nil {
		return err
	}
	ledger, err := billing.LoadCollection(args[1], billing.SideLedger)
	if err != nil {
		return err
	}

	opts := []tally.Option{}
	if configFile != "" {
		opts = append(opts, tally.WithConfigFile(configFile))
	}
	client, err := tally.New(opts...)
	if err != nil {
		return err
	}

	jobID := uuid.New().String()
	rep, err := client.Reconcile(logging.WithLogger(ctx, logger), jobID, bill, ledger)
	if err != nil {
		return err
	}

	var data []byte
	switch outputFormat {
	case "json":
		data, err = rep.CanonicalJSON()
	case "yaml":
		data, err = rep.YAML()
	default:
		return fmt.Errorf("unknown report format %q", outputFormat)
	}
	if err != nil {
		return err
	}

	if outputPath == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	return os.WriteFile(outputPath, data, 0o644)
}
