// Package app wires the market data providers, the filter engine and the
// exporters into a single screening run.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/tierscreen/internal/export"
	"github.com/seenimoa/tierscreen/internal/metrics"
	"github.com/seenimoa/tierscreen/internal/provider"
	"github.com/seenimoa/tierscreen/internal/providers/coincap"
	"github.com/seenimoa/tierscreen/internal/screener"
	"github.com/seenimoa/tierscreen/pkg/models"
)

var (
	// ErrNoCoinData means the asset fetch returned no records.
	ErrNoCoinData = errors.New("no coin data available")
	// ErrNoMarketData means the market fetch returned no records.
	ErrNoMarketData = errors.New("no market data available")
)

// Options controls one run.
type Options struct {
	// Snapshot files replace the API for the matching collection.
	CoinsFile   string
	MarketsFile string

	ExportPath   string // empty skips the export
	ExportFormat export.Format
	Sheet        string

	MetricsFile string // node_exporter textfile; empty skips

	// Params are passed to both fetchers (provider, limit, max_pages).
	Params provider.QueryParams
}

// Runner executes screening runs.
type Runner struct {
	registry *provider.Registry
	engine   *screener.Engine
	metrics  *metrics.Registry
	logger   zerolog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithMetrics records run metrics in m.
func WithMetrics(m *metrics.Registry) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

// WithLogger sets the run logger.
func WithLogger(l zerolog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a runner. registry may be nil when every run uses
// snapshot files.
func NewRunner(registry *provider.Registry, engine *screener.Engine, opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: registry,
		engine:   engine,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run fetches coins and markets concurrently, screens them, and writes the
// export and metrics files when configured.
func (r *Runner) Run(ctx context.Context, opts Options) (*screener.Result, error) {
	start := time.Now()

	var (
		coins   []models.CoinRecord
		markets []models.MarketRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		coins, err = load(gctx, r, provider.ModelCryptoAssets, opts.CoinsFile, opts.Params, coincap.DecodeAssets)
		return err
	})
	g.Go(func() error {
		var err error
		markets, err = load(gctx, r, provider.ModelCryptoMarkets, opts.MarketsFile, opts.Params, coincap.DecodeMarkets)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(coins) == 0 {
		return nil, ErrNoCoinData
	}
	if len(markets) == 0 {
		return nil, ErrNoMarketData
	}

	res := r.engine.Run(coins, markets)
	r.logger.Info().
		Int("coins", res.CoinsFetched).
		Int("markets", res.MarketsFetched).
		Int("listed", res.ListedCoins).
		Int("accepted", len(res.Accepted)).
		Int("skipped", res.SkippedTotal()).
		Msg("screen complete")

	var exportErr error
	if opts.ExportPath != "" {
		format, err := export.WriteFile(opts.ExportPath, res.Report.Descending(), export.Options{
			Format: opts.ExportFormat,
			Sheet:  opts.Sheet,
		})
		if err != nil {
			exportErr = err
			r.logger.Error().Err(err).Str("path", opts.ExportPath).Msg("export failed")
		} else {
			r.logger.Info().Str("path", opts.ExportPath).Str("format", string(format)).Int("rows", len(res.Accepted)).Msg("export written")
		}
	}

	// Metrics are recorded even when the export failed.
	r.metrics.ObserveResult(res, time.Since(start))
	if opts.MetricsFile != "" {
		if err := r.metrics.WriteTextfile(opts.MetricsFile); err != nil {
			return res, errors.Join(exportErr, err)
		}
	}
	return res, exportErr
}

// load reads one collection from a snapshot file or from the registry.
func load[T any](ctx context.Context, r *Runner, model provider.ModelType, file string, params provider.QueryParams, decode func(io.Reader) ([]T, error)) ([]T, error) {
	if file != "" {
		rows, err := readSnapshot(file, decode)
		if err != nil {
			return nil, err
		}
		r.logger.Info().Str("model", string(model)).Str("file", file).Int("records", len(rows)).Msg("loaded snapshot")
		r.metrics.ObserveFetch(string(model), 0, len(rows))
		return rows, nil
	}

	if r.registry == nil {
		return nil, fmt.Errorf("fetch %s: no provider registry configured", model)
	}
	r.logger.Info().Str("model", string(model)).Msg("fetching")
	res, err := r.registry.FetchWithFallback(ctx, model, params)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", model, err)
	}
	rows, ok := res.Data.([]T)
	if !ok {
		return nil, fmt.Errorf("fetch %s: provider %s returned %T", model, res.Provider, res.Data)
	}

	r.logger.Info().
		Str("model", string(model)).
		Str("provider", res.Provider).
		Int("pages", res.Pages).
		Bool("cached", res.Cached).
		Int("records", len(rows)).
		Msg("fetched")
	if res.Truncated {
		r.logger.Warn().
			Str("model", string(model)).
			Int("pages", res.Pages).
			Int("records", len(rows)).
			Msg("page limit reached before the last page; results may be incomplete")
	}
	r.metrics.ObserveFetch(string(model), res.Pages, len(rows))
	return rows, nil
}

func readSnapshot[T any](path string, decode func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	rows, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	return rows, nil
}
