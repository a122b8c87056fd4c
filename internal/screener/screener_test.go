package screener

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/tierscreen/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

func dec(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func coin(symbol string, marketCap, volume int64) models.CoinRecord {
	return models.CoinRecord{
		ID:           symbol,
		Symbol:       symbol,
		Name:         symbol + " Coin",
		PriceUSD:     dec(1),
		MarketCapUSD: dec(marketCap),
		Volume24hUSD: dec(volume),
	}
}

func market(symbol, exchange string) models.MarketRecord {
	return models.MarketRecord{ExchangeID: exchange, BaseSymbol: symbol, QuoteSymbol: "USDT"}
}

func accepted(symbol string, marketCap int64) models.FilteredCoin {
	return models.FilteredCoin{
		Coin:      models.CoinRecord{Symbol: symbol},
		MarketCap: decimal.NewFromInt(marketCap),
		MeetsTier: true,
	}
}

func symbols(coins []models.FilteredCoin) []string {
	out := make([]string, len(coins))
	for i, c := range coins {
		out[i] = c.Symbol()
	}
	return out
}

// ════════════════════════════════════════════════════════════════════
// Exchange Classifier
// ════════════════════════════════════════════════════════════════════

func TestClassify(t *testing.T) {
	tests := []struct {
		exchange string
		want     ExchangeTier
	}{
		{"Binance", Tier1},
		{"binance", Tier1},
		{"  Kraken ", Tier1},
		{"OKEx", Tier1},
		{"Gate.io", Tier2},
		{"crypto.com", Tier2},
		{"KuCoin", Tier2},
		{"SomeRandomDEX", Unranked},
		{"", Unranked},
	}

	for _, tt := range tests {
		t.Run(tt.exchange, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.exchange))
		})
	}
}

func TestTierTableOverlapPrefersTier1(t *testing.T) {
	table := NewTierTable([]string{"Alpha"}, []string{"alpha", "Beta", ""})
	assert.Equal(t, Tier1, table.Classify("ALPHA"))
	assert.Equal(t, Tier2, table.Classify("beta"))
	assert.Equal(t, []string{"alpha"}, table.Exchanges(Tier1))
	assert.Equal(t, []string{"beta"}, table.Exchanges(Tier2))
}

func TestExchangeTierString(t *testing.T) {
	assert.Equal(t, "tier1", Tier1.String())
	assert.Equal(t, "tier2", Tier2.String())
	assert.Equal(t, "unranked", Unranked.String())
	assert.True(t, Tier2.Ranked())
	assert.False(t, Unranked.Ranked())
}

// ════════════════════════════════════════════════════════════════════
// Listing Resolver
// ════════════════════════════════════════════════════════════════════

func TestListingsScan(t *testing.T) {
	markets := []models.MarketRecord{
		market("BTC", "Binance"),
		market("btc", "binance"),
		market("BTC", "kraken"),
		market("ETH", "coinbase"),
		market("BTC", ""),
	}
	before := append([]models.MarketRecord(nil), markets...)

	got := Listings("btc", markets)
	assert.Equal(t, []string{"binance", "kraken"}, got.Sorted())
	assert.Equal(t, before, markets, "input must not be mutated")

	none := Listings("XRP", markets)
	require.NotNil(t, none)
	assert.Empty(t, none)
}

func TestListingIndexMatchesScan(t *testing.T) {
	markets := []models.MarketRecord{
		market("BTC", "binance"),
		market("BTC", "kraken"),
		market("ETH", "coinbase"),
		market("ETH", "somedex"),
		market("", "binance"),
		market("DOGE", ""),
	}
	ix := BuildListingIndex(markets)

	assert.Equal(t, 2, ix.Coins())
	for _, sym := range []string{"BTC", "ETH", "DOGE", "XRP"} {
		assert.Equal(t, Listings(sym, markets).Sorted(), ix.Listings(sym).Sorted(), sym)
	}
	assert.NotNil(t, ix.Listings("missing"))
}

func TestListingIndexPairs(t *testing.T) {
	markets := []models.MarketRecord{
		market("BTC", "binance"),
		market("btc", "kraken"),
		{ExchangeID: "kraken", BaseSymbol: "BTC", QuoteSymbol: "eur"},
		{ExchangeID: "binance", BaseSymbol: "ETH"},
	}
	ix := BuildListingIndex(markets)

	assert.Equal(t, []string{"BTC/EUR", "BTC/USDT"}, ix.Pairs("btc"))
	assert.Nil(t, ix.Pairs("ETH"), "markets without a quote have no pair")
	assert.Nil(t, ix.Pairs("XRP"))
}

// ════════════════════════════════════════════════════════════════════
// Filter Engine
// ════════════════════════════════════════════════════════════════════

func TestEvaluateThresholdsAreStrict(t *testing.T) {
	e := NewEngine(DefaultCriteria())
	listed := ExchangeSet{"binance": {}}

	_, v := e.Evaluate(coin("EDGE", 1_000_000, 200_000), listed)
	assert.False(t, v.Accepted)
	assert.Equal(t, ReasonMarketCap, v.Reason())

	_, v = e.Evaluate(coin("EDGE", 2_000_000, 150_000), listed)
	assert.False(t, v.Accepted)
	assert.Equal(t, ReasonVolume, v.Reason())

	fc, v := e.Evaluate(coin("OK", 1_000_001, 150_001), listed)
	require.True(t, v.Accepted)
	require.NotNil(t, fc)
	assert.Equal(t, 1, fc.Tier1Count)
	assert.True(t, fc.MeetsTier)
}

func TestEvaluateReportsEveryFailure(t *testing.T) {
	e := NewEngine(DefaultCriteria())
	fc, v := e.Evaluate(coin("BAD", 10, 10), ExchangeSet{"somedex": {}})
	assert.Nil(t, fc)
	assert.Equal(t, []Reason{ReasonMarketCap, ReasonVolume, ReasonExchanges}, v.Failures)
	assert.Equal(t, ReasonMarketCap, v.Reason())
}

func TestEvaluateMissingData(t *testing.T) {
	e := NewEngine(DefaultCriteria())
	c := coin("NIL", 5_000_000, 500_000)
	c.MarketCapUSD = decimal.NullDecimal{}

	fc, v := e.Evaluate(c, ExchangeSet{"binance": {}})
	assert.Nil(t, fc)
	assert.Equal(t, ReasonInvalidData, v.Reason())

	c = coin("NIL", 5_000_000, 500_000)
	c.Volume24hUSD = decimal.NullDecimal{}
	_, v = e.Evaluate(c, ExchangeSet{"binance": {}})
	assert.Equal(t, ReasonInvalidData, v.Reason())
}

func TestEvaluateCountsTiers(t *testing.T) {
	e := NewEngine(DefaultCriteria())
	listed := make(ExchangeSet)
	for _, name := range []string{"Binance", "Kraken", "KuCoin", "SomeDEX"} {
		listed.Add(name)
	}

	fc, v := e.Evaluate(coin("MIX", 3_000_000, 300_000), listed)
	require.True(t, v.Accepted)
	assert.Equal(t, 2, fc.Tier1Count)
	assert.Equal(t, 1, fc.Tier2Count)
	assert.Equal(t, []string{"binance", "kraken", "kucoin", "somedex"}, fc.Exchanges)
	assert.True(t, fc.Price.Equal(decimal.NewFromInt(1)))
}

func TestEvaluateCustomTierTable(t *testing.T) {
	e := NewEngine(DefaultCriteria(), WithTierTable(NewTierTable([]string{"SomeDEX"}, nil)))
	_, v := e.Evaluate(coin("DEX", 3_000_000, 300_000), ExchangeSet{"somedex": {}})
	assert.True(t, v.Accepted)

	_, v = e.Evaluate(coin("DEX", 3_000_000, 300_000), ExchangeSet{"binance": {}})
	assert.False(t, v.Accepted)
}

// ════════════════════════════════════════════════════════════════════
// Report Builder
// ════════════════════════════════════════════════════════════════════

func TestBuildReportTieBreak(t *testing.T) {
	in := []models.FilteredCoin{
		accepted("X", 5_000_000),
		accepted("Y", 5_000_000),
	}
	r := BuildReport(in, 10)

	assert.Equal(t, []string{"X", "Y"}, symbols(r.Sorted))
	assert.Equal(t, []string{"X", "Y"}, symbols(r.Top))
	assert.Equal(t, []string{"X", "Y"}, symbols(r.Bottom))
	assert.Equal(t, []string{"X", "Y"}, symbols(r.Descending()))
}

func TestBuildReportSlices(t *testing.T) {
	var in []models.FilteredCoin
	for i := 1; i <= 15; i++ {
		in = append(in, accepted(fmt.Sprintf("C%02d", i), int64(i)*1_000_000))
	}
	r := BuildReport(in, 10)

	require.Len(t, r.Top, 10)
	require.Len(t, r.Bottom, 10)
	assert.Equal(t, "C15", r.Top[0].Symbol())
	assert.Equal(t, "C06", r.Top[9].Symbol())
	assert.Equal(t, "C01", r.Bottom[0].Symbol())
	assert.Equal(t, "C10", r.Bottom[9].Symbol())
	assert.Equal(t, "C01", in[0].Symbol(), "input order must be preserved")
}

func TestBuildReportSmallSet(t *testing.T) {
	in := []models.FilteredCoin{
		accepted("A", 3),
		accepted("B", 1),
		accepted("C", 2),
	}
	r := BuildReport(in, 0)

	assert.Equal(t, []string{"A", "C", "B"}, symbols(r.Top))
	assert.Equal(t, []string{"B", "C", "A"}, symbols(r.Bottom))
	assert.ElementsMatch(t, symbols(r.Top), symbols(r.Bottom))
}

func TestBuildReportEmpty(t *testing.T) {
	r := BuildReport(nil, 10)
	assert.Empty(t, r.Sorted)
	assert.Empty(t, r.Top)
	assert.Empty(t, r.Bottom)
}

// ════════════════════════════════════════════════════════════════════
// Pipeline
// ════════════════════════════════════════════════════════════════════

func TestRunEndToEnd(t *testing.T) {
	coins := []models.CoinRecord{
		coin("A", 2_000_000, 200_000),
		coin("B", 500_000, 200_000),
		coin("C", 2_000_000, 200_000),
	}
	markets := []models.MarketRecord{
		market("A", "Binance"),
		market("B", "Binance"),
		market("C", "SomeRandomDEX"),
	}

	res := NewEngine(DefaultCriteria()).Run(coins, markets)

	assert.Equal(t, []string{"A"}, symbols(res.Accepted))
	assert.Equal(t, 3, res.CoinsFetched)
	assert.Equal(t, 3, res.MarketsFetched)
	assert.Equal(t, 3, res.ListedCoins)
	assert.Equal(t, 1, res.Skipped[ReasonMarketCap])
	assert.Equal(t, 1, res.Skipped[ReasonExchanges])
	assert.Equal(t, 2, res.SkippedTotal())
	assert.Equal(t, []string{"A"}, symbols(res.Report.Top))
	assert.Equal(t, []string{"A/USDT"}, res.Accepted[0].Pairs)
}

func TestRunDeduplicatesAndHandlesBadRecords(t *testing.T) {
	missing := coin("MISS", 0, 0)
	missing.MarketCapUSD = decimal.NullDecimal{}
	blank := coin("", 9_000_000, 900_000)

	coins := []models.CoinRecord{
		coin("BTC", 9_000_000, 900_000),
		coin("btc", 8_000_000, 800_000),
		missing,
		blank,
	}
	markets := []models.MarketRecord{market("BTC", "kraken"), market("MISS", "binance")}

	res := NewEngine(DefaultCriteria()).Run(coins, markets)

	require.Len(t, res.Accepted, 1)
	assert.True(t, res.Accepted[0].MarketCap.Equal(decimal.NewFromInt(9_000_000)))
	assert.Equal(t, 1, res.Skipped[ReasonDuplicate])
	assert.Equal(t, 2, res.Skipped[ReasonInvalidData])
}

func TestRunEmptyInput(t *testing.T) {
	res := NewEngine(DefaultCriteria()).Run(nil, nil)
	assert.Empty(t, res.Accepted)
	assert.Empty(t, res.Report.Top)
	assert.Empty(t, res.Report.Bottom)
	assert.Zero(t, res.SkippedTotal())
}

func randomUniverse(r *rand.Rand, n int) ([]models.CoinRecord, []models.MarketRecord) {
	exchanges := []string{"binance", "kraken", "gate.io", "huobi", "somedex", "otherdex", "uniswap"}
	caps := []int64{500_000, 1_000_000, 1_000_001, 2_000_000, 5_000_000}
	vols := []int64{100_000, 150_000, 150_001, 300_000}

	var coins []models.CoinRecord
	var markets []models.MarketRecord
	for i := 0; i < n; i++ {
		sym := fmt.Sprintf("C%03d", i)
		coins = append(coins, coin(sym, caps[r.Intn(len(caps))], vols[r.Intn(len(vols))]))
		for j := r.Intn(3); j > 0; j-- {
			markets = append(markets, market(sym, exchanges[r.Intn(len(exchanges))]))
		}
	}
	return coins, markets
}

func TestRunMatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	coins, markets := randomUniverse(r, 300)
	criteria := DefaultCriteria()

	res := NewEngine(criteria).Run(coins, markets)

	got := make(map[string]bool)
	for _, fc := range res.Accepted {
		assert.True(t, fc.MarketCap.GreaterThan(criteria.MinMarketCap))
		assert.True(t, fc.Volume24h.GreaterThan(criteria.MinVolume24h))
		assert.Positive(t, fc.Tier1Count+fc.Tier2Count)
		assert.False(t, got[fc.Symbol()], "duplicate %s", fc.Symbol())
		got[fc.Symbol()] = true
	}

	for _, c := range coins {
		ranked := false
		for _, m := range markets {
			if m.BaseSymbol == c.Symbol && Classify(m.ExchangeID).Ranked() {
				ranked = true
			}
		}
		want := c.MarketCapUSD.Decimal.GreaterThan(criteria.MinMarketCap) &&
			c.Volume24hUSD.Decimal.GreaterThan(criteria.MinVolume24h) && ranked
		assert.Equal(t, want, got[c.Symbol], c.Symbol)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	coins, markets := randomUniverse(r, 200)
	e := NewEngine(DefaultCriteria())

	first := e.Run(coins, markets)
	second := e.Run(coins, markets)

	assert.Equal(t, symbols(first.Accepted), symbols(second.Accepted))
	assert.Equal(t, symbols(first.Report.Top), symbols(second.Report.Top))
	assert.Equal(t, symbols(first.Report.Bottom), symbols(second.Report.Bottom))
	assert.Len(t, first.Report.Top, min(10, len(first.Accepted)))
	assert.Len(t, first.Report.Bottom, min(10, len(first.Accepted)))
}
