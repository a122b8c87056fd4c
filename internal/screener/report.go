package screener

import (
	"slices"

	"github.com/seenimoa/tierscreen/pkg/models"
)

// DefaultReportSize is the length of the top and bottom slices.
const DefaultReportSize = 10

// Report ranks accepted coins by market cap.
type Report struct {
	Sorted []models.FilteredCoin // ascending market cap
	Top    []models.FilteredCoin // highest market cap first
	Bottom []models.FilteredCoin // lowest market cap first
}

// Descending returns the accepted coins from highest to lowest market cap.
// Equal market caps keep their insertion order.
func (r Report) Descending() []models.FilteredCoin {
	return sortByMarketCap(r.Sorted, true)
}

// BuildReport sorts accepted coins by market cap and slices out the n
// largest and n smallest. Both sorts are stable, so coins with equal market
// caps keep their input order in either direction. The input is not
// modified. n <= 0 selects DefaultReportSize.
func BuildReport(accepted []models.FilteredCoin, n int) Report {
	if n <= 0 {
		n = DefaultReportSize
	}

	asc := sortByMarketCap(accepted, false)
	desc := sortByMarketCap(accepted, true)

	k := min(n, len(accepted))
	return Report{
		Sorted: asc,
		Top:    desc[:k:k],
		Bottom: asc[:k:k],
	}
}

func sortByMarketCap(coins []models.FilteredCoin, descending bool) []models.FilteredCoin {
	out := slices.Clone(coins)
	if out == nil {
		out = []models.FilteredCoin{}
	}
	slices.SortStableFunc(out, func(a, b models.FilteredCoin) int {
		if descending {
			return b.MarketCap.Cmp(a.MarketCap)
		}
		return a.MarketCap.Cmp(b.MarketCap)
	})
	return out
}
