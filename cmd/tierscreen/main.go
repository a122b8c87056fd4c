// tierscreen screens crypto assets by market cap, 24h volume and exchange
// tier listings.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/seenimoa/tierscreen/internal/app"
	"github.com/seenimoa/tierscreen/internal/config"
	"github.com/seenimoa/tierscreen/internal/infra"
	"github.com/seenimoa/tierscreen/internal/screener"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tierscreen",
	Short: "Crypto coin screener",
	Long: `tierscreen fetches every asset and exchange market from CoinCap, keeps the
coins with market cap above $1M, 24h volume above $150K and at least one
Tier-1 or Tier-2 exchange listing, and exports them to a spreadsheet.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.Logging.Level
		if override, _ := cmd.Flags().GetString("log-level"); override != "" {
			level = override
		}
		if err := infra.SetupLogger(os.Stderr, level, cfg.Logging.Format); err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(screenCmd)
	rootCmd.AddCommand(tiersCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "tierscreen %s\n", version)
		fmt.Fprintf(out, "  commit:  %s\n", commit)
		fmt.Fprintf(out, "  built:   %s\n", date)
	},
}

// --- Tiers Command ---

var tiersCmd = &cobra.Command{
	Use:   "tiers [exchange...]",
	Short: "Show the exchange tier table or classify exchange names",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := app.NewEngine(cfg, log.Logger)
		if err != nil {
			return err
		}
		tiers := engine.Tiers()
		out := cmd.OutOrStdout()

		if len(args) == 0 {
			fmt.Fprintf(out, "Tier 1: %s\n", strings.Join(tiers.Exchanges(screener.Tier1), ", "))
			fmt.Fprintf(out, "Tier 2: %s\n", strings.Join(tiers.Exchanges(screener.Tier2), ", "))
			return nil
		}
		for _, name := range args {
			fmt.Fprintf(out, "%-20s %s\n", name, tiers.Classify(name))
		}
		return nil
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and API key status",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintln(out, "  tierscreen status")
		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintf(out, "  Version:       %s (%s)\n", version, commit)
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  Configuration:")
		fmt.Fprintf(out, "    Source:        %s (page %d, max %d pages)\n", cfg.Source.BaseURL, cfg.Source.PageLimit, cfg.Source.MaxPages)
		fmt.Fprintf(out, "    Thresholds:    market cap > %s, 24h volume > %s\n", cfg.Filter.MinMarketCap, cfg.Filter.MinVolume24h)
		fmt.Fprintf(out, "    Cache:         %s (ttl %s)\n", cfg.Cache.Backend, cfg.Cache.TTL())
		fmt.Fprintf(out, "    Export:        %s\n", cfg.Export.Path)
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "not set (optional)"
			if k.IsSet {
				status = fmt.Sprintf("set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Fprintf(out, "    %-25s %s\n", k.Name+":", status)
		}

		if ping, _ := cmd.Flags().GetBool("ping"); ping {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "  Providers:")
			deps, closer := app.NewFetcherDeps(cmd.Context(), cfg, log.Logger)
			defer closer.Close()
			reg, err := app.NewRegistry(cfg, deps, nil)
			if err != nil {
				return err
			}
			for _, info := range reg.List() {
				p, _ := reg.Get(info.Name)
				result := "ok"
				if err := p.Ping(cmd.Context()); err != nil {
					result = err.Error()
				}
				fmt.Fprintf(out, "    %-25s %s\n", info.Name+":", result)
			}
		}

		fmt.Fprintln(out, "═══════════════════════════════════════")
		return nil
	},
}

func init() {
	statusCmd.Flags().Bool("ping", false, "check provider connectivity")
}
