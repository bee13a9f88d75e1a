// Package cmd implements the tally command line interface.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/tally/pkg/logging"
)

var (
	configFile string
	verbose    bool

	// Version information set by main.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// Date is the build date.
	Date = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "tally",
	Short: "Bill/ledger reconciliation CLI",
	Long: `Tally reconciles vendor bills against purchase ledgers.

It pairs line items across the two inputs with a scored bipartite matcher,
verifies each pair against a configurable rule set (price, quantity, date,
tax), and writes a confidence-scored discrepancy report with suggested
corrections.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(version, commit, date string) {
	Version = version
	Commit = commit
	Date = date

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initEnv)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// initEnv loads .env files and configures logging before any command runs.
func initEnv() {
	// Missing .env files are fine; explicit env always wins.
	_ = godotenv.Load()

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		logger := logging.NewConsole().Level(zerolog.DebugLevel)
		logging.SetDefault(logger)
	}
}
