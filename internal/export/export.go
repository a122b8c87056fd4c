// Package export writes screened coins to spreadsheet and data files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/seenimoa/tierscreen/pkg/models"
)

// Format is an export file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DefaultSheet is the worksheet name used when none is configured.
const DefaultSheet = "Coins"

// ErrUnknownFormat is returned for unsupported format names or extensions.
var ErrUnknownFormat = errors.New("unknown export format")

// Columns are the header cells, in order.
var Columns = []string{
	"Name",
	"Symbol",
	"Market Cap (USD)",
	"24h Volume (USD)",
	"Price (USD)",
	"Tier 1 Exchanges",
	"Tier 2 Exchanges",
	"Exchanges",
	"Meets Tier",
	"Trading Pairs",
}

// ParseFormat resolves a format name. "yml" and "excel" are accepted aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatFromPath infers the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnknownFormat, path)
	}
	return ParseFormat(ext)
}

// Row is one exported coin.
type Row struct {
	Name           string          `json:"name"            yaml:"name"`
	Symbol         string          `json:"symbol"          yaml:"symbol"`
	MarketCapUSD   decimal.Decimal `json:"market_cap_usd"  yaml:"-"`
	Volume24hUSD   decimal.Decimal `json:"volume_24h_usd"  yaml:"-"`
	PriceUSD       decimal.Decimal `json:"price_usd"       yaml:"-"`
	Tier1Exchanges int             `json:"tier1_exchanges" yaml:"tier1_exchanges"`
	Tier2Exchanges int             `json:"tier2_exchanges" yaml:"tier2_exchanges"`
	Exchanges      []string        `json:"exchanges"       yaml:"exchanges"`
	MeetsTier      bool            `json:"meets_tier"      yaml:"meets_tier"`
	Pairs          []string        `json:"pairs"           yaml:"pairs"`
}

// yamlRow carries amounts as strings; yaml.v3 has no decimal support.
type yamlRow struct {
	Row          `yaml:",inline"`
	MarketCapUSD string `yaml:"market_cap_usd"`
	Volume24hUSD string `yaml:"volume_24h_usd"`
	PriceUSD     string `yaml:"price_usd"`
}

// Rows converts screened coins to export rows, preserving order.
func Rows(coins []models.FilteredCoin) []Row {
	rows := make([]Row, len(coins))
	for i, c := range coins {
		exchanges, pairs := c.Exchanges, c.Pairs
		if exchanges == nil {
			exchanges = []string{}
		}
		if pairs == nil {
			pairs = []string{}
		}
		rows[i] = Row{
			Name:           c.Coin.Name,
			Symbol:         c.Symbol(),
			MarketCapUSD:   c.MarketCap,
			Volume24hUSD:   c.Volume24h,
			PriceUSD:       c.Price,
			Tier1Exchanges: c.Tier1Count,
			Tier2Exchanges: c.Tier2Count,
			Exchanges:      exchanges,
			MeetsTier:      c.MeetsTier,
			Pairs:          pairs,
		}
	}
	return rows
}

// Strings returns the row as text cells in Columns order.
func (r Row) Strings() []string {
	return []string{
		r.Name,
		r.Symbol,
		r.MarketCapUSD.String(),
		r.Volume24hUSD.String(),
		r.PriceUSD.String(),
		strconv.Itoa(r.Tier1Exchanges),
		strconv.Itoa(r.Tier2Exchanges),
		strings.Join(r.Exchanges, ";"),
		yesNo(r.MeetsTier),
		strings.Join(r.Pairs, ";"),
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// Options controls an export.
type Options struct {
	Format Format // empty infers from the path in WriteFile
	Sheet  string // xlsx worksheet name (default: DefaultSheet)
}

// Write encodes coins to w in the given format. Coins are written in the
// order given.
func Write(w io.Writer, coins []models.FilteredCoin, opts Options) error {
	rows := Rows(coins)
	switch opts.Format {
	case FormatXLSX:
		return writeXLSX(w, rows, opts.Sheet)
	case FormatCSV:
		return writeCSV(w, rows)
	case FormatJSON:
		return writeJSON(w, rows)
	case FormatYAML:
		return writeYAML(w, rows)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
}

// WriteFile exports coins to path, creating parent directories as needed.
// It returns the format used.
func WriteFile(path string, coins []models.FilteredCoin, opts Options) (Format, error) {
	if opts.Format == "" {
		f, err := FormatFromPath(path)
		if err != nil {
			return "", err
		}
		opts.Format = f
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create export dir %s: %w", dir, err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file %s: %w", path, err)
	}
	if err := Write(file, coins, opts); err != nil {
		file.Close()
		return "", fmt.Errorf("export %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close file %s: %w", path, err)
	}
	return opts.Format, nil
}

func writeCSV(w io.Writer, rows []Row) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		if err := writer.Write(r.Strings()); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeJSON(w io.Writer, rows []Row) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, rows []Row) error {
	out := make([]yamlRow, len(rows))
	for i, r := range rows {
		out[i] = yamlRow{
			Row:          r,
			MarketCapUSD: r.MarketCapUSD.String(),
			Volume24hUSD: r.Volume24hUSD.String(),
			PriceUSD:     r.PriceUSD.String(),
		}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	return enc.Close()
}
