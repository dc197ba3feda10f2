package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/warp/pension-engine/api"
	"github.com/warp/pension-engine/config"
	"github.com/warp/pension-engine/pension"
	"github.com/warp/pension-engine/store/sqlite"
)

// =============================================================================
// MIGRATE
// =============================================================================

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|version]",
		Short:     "Apply, revert or inspect the database schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			store, err := sqlite.Open(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			switch args[0] {
			case "up":
				if err := store.MigrateUp(); err != nil {
					return fmt.Errorf("migrate up: %w", err)
				}
			case "down":
				if err := store.MigrateDown(); err != nil {
					return fmt.Errorf("migrate down: %w", err)
				}
			}

			version, dirty, err := store.SchemaVersion()
			if err != nil {
				return fmt.Errorf("read schema version: %w", err)
			}
			fmt.Fprintf(out, "schema version %d", version)
			if dirty {
				fmt.Fprint(out, " (dirty)")
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}

// =============================================================================
// CALC
// =============================================================================

func calcCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "calc <case-file.json>",
		Short: "Compute the pension of a case file described in JSON (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			rules, err := cfg.Pension.Rules()
			if err != nil {
				return err
			}

			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			var req api.PensionRequest
			if err := json.NewDecoder(in).Decode(&req); err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}
			cf, err := req.CaseFile()
			if err != nil {
				return err
			}

			result, err := pension.NewEngine(rules).Compute(cf)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), api.NewPensionDTO(result))
		},
	}
}

// =============================================================================
// STATS
// =============================================================================

func statsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <MM/YYYY>",
		Short: "Recompute and store the payment statistics of a month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := pension.ParseYearMonth(args[0])
			if err != nil {
				return err
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			store, services, err := buildServices(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := services.Statistics.Record(context.Background(), period)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), api.NewStatisticsDTO(stats))
		},
	}
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
