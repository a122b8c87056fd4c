package screener

import (
	"github.com/seenimoa/tierscreen/pkg/models"
)

// Result is the outcome of one screening pass.
type Result struct {
	CoinsFetched   int
	MarketsFetched int
	ListedCoins    int // distinct coins with at least one market
	Accepted       []models.FilteredCoin
	Skipped        map[Reason]int
	Report         Report
}

// SkippedTotal returns the number of rejected coins.
func (r *Result) SkippedTotal() int {
	total := 0
	for _, n := range r.Skipped {
		total += n
	}
	return total
}

// Run screens every coin against the markets. Accepted coins keep their
// input order; a coin identifier is only evaluated once, the first time it
// appears. Rejections are counted under their first failed criterion.
func (e *Engine) Run(coins []models.CoinRecord, markets []models.MarketRecord) *Result {
	index := BuildListingIndex(markets)

	res := &Result{
		CoinsFetched:   len(coins),
		MarketsFetched: len(markets),
		ListedCoins:    index.Coins(),
		Accepted:       []models.FilteredCoin{},
		Skipped:        make(map[Reason]int, len(AllReasons())),
	}
	for _, r := range AllReasons() {
		res.Skipped[r] = 0
	}

	seen := make(map[string]struct{}, len(coins))
	for _, coin := range coins {
		key := coin.Key()
		if key == "" {
			res.Skipped[ReasonInvalidData]++
			e.logger.Debug().Str("name", coin.Name).Msg("skipping coin without symbol")
			continue
		}
		if _, dup := seen[key]; dup {
			res.Skipped[ReasonDuplicate]++
			e.logger.Debug().Str("symbol", key).Str("id", coin.ID).Msg("skipping duplicate symbol")
			continue
		}
		seen[key] = struct{}{}

		fc, verdict := e.Evaluate(coin, index.Listings(key))
		if !verdict.Accepted {
			res.Skipped[verdict.Reason()]++
			e.logSkip(coin, verdict)
			continue
		}
		fc.Pairs = index.Pairs(key)
		res.Accepted = append(res.Accepted, *fc)
	}

	res.Report = BuildReport(res.Accepted, e.topN)
	return res
}

func (e *Engine) logSkip(coin models.CoinRecord, v Verdict) {
	ev := e.logger.Debug().Str("symbol", coin.Key()).Str("reason", string(v.Reason()))
	switch v.Reason() {
	case ReasonMarketCap:
		ev = ev.Stringer("market_cap", coin.MarketCapUSD.Decimal).Stringer("threshold", e.criteria.MinMarketCap)
	case ReasonVolume:
		ev = ev.Stringer("volume_24h", coin.Volume24hUSD.Decimal).Stringer("threshold", e.criteria.MinVolume24h)
	}
	ev.Msg("skipping coin")
}
