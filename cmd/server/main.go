/*
main.go - Application entry point

PURPOSE:
  The pension command: runs the case-file API server and offers offline
  maintenance commands over the same configuration and database.

COMMANDS:
  pension serve                 Run the HTTP API (default listen :8080)
  pension migrate up|down|version
  pension calc <case-file.json> Compute a pension without a database
  pension stats <MM/YYYY>       Record the payment statistics of a month

STARTUP SEQUENCE (serve):
  1. Load configuration (--config, .env, PENSION_* variables)
  2. Open SQLite store and apply migrations
  3. Build the pension engine from the configured rules
  4. Wire dossier services, API handler and router
  5. Start the statistics scheduler
  6. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler
  4. Close database connection

EXAMPLES:
  # Run with a config file
  ./pension serve --config=./config.yaml

  # Run with in-memory database
  PENSION_DB_PATH=":memory:" ./pension serve

  # Compute a pension offline
  ./pension calc ./testdata/career.json

SEE ALSO:
  - config/config.go: Configuration sources
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "pension",
		Short:         "Pension case-file service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(migrateCmd(&configPath))
	rootCmd.AddCommand(calcCmd(&configPath))
	rootCmd.AddCommand(statsCmd(&configPath))
	return rootCmd
}
