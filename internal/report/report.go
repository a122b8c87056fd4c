// Package report renders the console summary of a screening run.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/seenimoa/tierscreen/internal/screener"
	"github.com/seenimoa/tierscreen/pkg/models"
	"github.com/seenimoa/tierscreen/pkg/utils"
)

// reasonLabels are the summary captions for each skip reason, in display order.
var reasonLabels = []struct {
	reason screener.Reason
	label  string
}{
	{screener.ReasonInvalidData, "invalid/missing data"},
	{screener.ReasonMarketCap, "market cap"},
	{screener.ReasonVolume, "24h volume"},
	{screener.ReasonExchanges, "no Tier-1/Tier-2 listings"},
	{screener.ReasonDuplicate, "duplicate symbol"},
}

// SummaryConfig controls summary rendering.
type SummaryConfig struct {
	TopN         int           // length of the top and bottom lists (default: screener.DefaultReportSize)
	Criteria     screener.Criteria
	ExportPath   string        // shown when non-empty
	Elapsed      time.Duration // shown when non-zero
	ShowCriteria bool
}

// WriteSummary writes the run summary to w.
func WriteSummary(w io.Writer, res *screener.Result, cfg SummaryConfig) error {
	_, err := io.WriteString(w, Summary(res, cfg))
	return err
}

// Summary renders the run summary as text.
func Summary(res *screener.Result, cfg SummaryConfig) string {
	n := cfg.TopN
	if n <= 0 {
		n = screener.DefaultReportSize
	}

	var sb strings.Builder
	line := strings.Repeat("═", 60)
	thinLine := strings.Repeat("─", 60)

	sb.WriteString(line + "\n")
	sb.WriteString("  Coin screen summary\n")
	sb.WriteString(line + "\n")
	fmt.Fprintf(&sb, "  Coins fetched:            %d\n", res.CoinsFetched)
	fmt.Fprintf(&sb, "  Markets fetched:          %d\n", res.MarketsFetched)
	fmt.Fprintf(&sb, "  Coins with listings:      %d\n", res.ListedCoins)
	if cfg.ShowCriteria {
		fmt.Fprintf(&sb, "  Min market cap:           %s\n", utils.FormatUSDCompact(cfg.Criteria.MinMarketCap))
		fmt.Fprintf(&sb, "  Min 24h volume:           %s\n", utils.FormatUSDCompact(cfg.Criteria.MinVolume24h))
	}
	sb.WriteString(thinLine + "\n")

	sb.WriteString("  Filtering results:\n")
	for _, rl := range reasonLabels {
		fmt.Fprintf(&sb, "    Skipped due to %s: %d\n", rl.label, res.Skipped[rl.reason])
	}
	fmt.Fprintf(&sb, "  Total coins passing all criteria: %d\n", len(res.Accepted))
	if cfg.ExportPath != "" {
		fmt.Fprintf(&sb, "  Data saved to %s\n", cfg.ExportPath)
	}
	if cfg.Elapsed > 0 {
		fmt.Fprintf(&sb, "  Completed in %s\n", FormatDuration(cfg.Elapsed))
	}
	sb.WriteString(thinLine + "\n")

	if len(res.Accepted) == 0 {
		sb.WriteString("\nNo coins found matching all criteria.\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "\nBottom %d coins by market cap (ascending):\n", n)
	writeRanked(&sb, res.Report.Bottom)
	fmt.Fprintf(&sb, "\nTop %d coins by market cap (descending):\n", n)
	writeRanked(&sb, res.Report.Top)
	return sb.String()
}

func writeRanked(sb *strings.Builder, coins []models.FilteredCoin) {
	for i, c := range coins {
		fmt.Fprintf(sb, "%d. %s - Market Cap: %s\n", i+1, c.Symbol(), utils.FormatUSD(c.MarketCap))
	}
}

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}
