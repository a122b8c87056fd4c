package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/seenimoa/tierscreen/internal/app"
	"github.com/seenimoa/tierscreen/internal/config"
	"github.com/seenimoa/tierscreen/internal/export"
	"github.com/seenimoa/tierscreen/internal/metrics"
	"github.com/seenimoa/tierscreen/internal/provider"
	"github.com/seenimoa/tierscreen/internal/report"
)

// --- Screen Command ---

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Fetch coins and markets, filter them and export the survivors",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyScreenFlags(cmd, cfg); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		logger := log.Logger

		m := metrics.New()
		deps, closer := app.NewFetcherDeps(ctx, cfg, logger)
		defer closer.Close()

		reg, err := app.NewRegistry(cfg, deps, m)
		if err != nil {
			return err
		}
		engine, err := app.NewEngine(cfg, logger)
		if err != nil {
			return err
		}

		opts, err := screenOptions(cmd, cfg)
		if err != nil {
			return err
		}

		start := time.Now()
		res, err := app.NewRunner(reg, engine, app.WithMetrics(m), app.WithLogger(logger)).Run(ctx, opts)
		out := cmd.OutOrStdout()
		switch {
		case errors.Is(err, app.ErrNoCoinData):
			fmt.Fprintln(out, "No coin data available. Exiting.")
			return nil
		case errors.Is(err, app.ErrNoMarketData):
			fmt.Fprintln(out, "No market data available. Exiting.")
			return nil
		case res == nil:
			return err
		}

		summary := report.SummaryConfig{
			TopN:         cfg.Filter.TopN,
			Criteria:     engine.Criteria(),
			ShowCriteria: true,
			Elapsed:      time.Since(start),
		}
		if err == nil {
			summary.ExportPath = opts.ExportPath
		}
		if werr := report.WriteSummary(out, res, summary); werr != nil {
			return werr
		}
		return err
	},
}

func init() {
	f := screenCmd.Flags()
	f.StringP("output", "o", "", "export file path (default: export.path)")
	f.String("format", "", "export format: xlsx, csv, json, yaml (default: from extension)")
	f.String("min-market-cap", "", "minimum market cap in USD, exclusive")
	f.String("min-volume", "", "minimum 24h volume in USD, exclusive")
	f.Int("top", 0, "length of the top and bottom lists")
	f.Int("max-pages", 0, "upper bound on API pages per collection")
	f.String("coins-file", "", "read assets from a saved CoinCap /assets response")
	f.String("markets-file", "", "read markets from a saved CoinCap /markets response")
	f.String("metrics-file", "", "write Prometheus metrics to this textfile")
	f.Bool("no-export", false, "skip the export file")
}

// applyScreenFlags copies explicitly set flags over the loaded config.
func applyScreenFlags(cmd *cobra.Command, c *config.Config) error {
	f := cmd.Flags()
	if f.Changed("output") {
		c.Export.Path, _ = f.GetString("output")
	}
	if f.Changed("format") {
		c.Export.Format, _ = f.GetString("format")
	}
	if f.Changed("min-market-cap") {
		c.Filter.MinMarketCap, _ = f.GetString("min-market-cap")
	}
	if f.Changed("min-volume") {
		c.Filter.MinVolume24h, _ = f.GetString("min-volume")
	}
	if f.Changed("top") {
		c.Filter.TopN, _ = f.GetInt("top")
	}
	if f.Changed("max-pages") {
		c.Source.MaxPages, _ = f.GetInt("max-pages")
	}
	if f.Changed("metrics-file") {
		c.Metrics.Textfile, _ = f.GetString("metrics-file")
	}
	return c.Validate()
}

func screenOptions(cmd *cobra.Command, c *config.Config) (app.Options, error) {
	coinsFile, _ := cmd.Flags().GetString("coins-file")
	marketsFile, _ := cmd.Flags().GetString("markets-file")
	noExport, _ := cmd.Flags().GetBool("no-export")

	opts := app.Options{
		CoinsFile:   coinsFile,
		MarketsFile: marketsFile,
		Sheet:       c.Export.Sheet,
		MetricsFile: c.Metrics.Textfile,
		Params: provider.QueryParams{
			provider.ParamLimit:    strconv.Itoa(c.Source.PageLimit),
			provider.ParamMaxPages: strconv.Itoa(c.Source.MaxPages),
		},
	}
	if !noExport {
		opts.ExportPath = c.Export.Path
	}
	if c.Export.Format != "" {
		format, err := export.ParseFormat(c.Export.Format)
		if err != nil {
			return app.Options{}, err
		}
		opts.ExportFormat = format
	}
	return opts, nil
}
