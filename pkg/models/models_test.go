package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Keys ──

func TestCoinKey(t *testing.T) {
	assert.Equal(t, "BTC", CoinKey(" btc "))
	assert.Equal(t, "BTC", CoinRecord{Symbol: "Btc"}.Key())
	assert.Equal(t, "", CoinKey("   "))
}

func TestExchangeKey(t *testing.T) {
	assert.Equal(t, "binance", ExchangeKey(" Binance"))
	assert.Equal(t, "crypto.com", ExchangeKey("Crypto.com"))
}

func TestMarketRecordKeyAndPair(t *testing.T) {
	m := MarketRecord{ExchangeID: "kraken", BaseSymbol: "eth ", QuoteSymbol: "usd"}
	assert.Equal(t, "ETH", m.Key())
	assert.Equal(t, "ETH/USD", m.Pair())

	m.QuoteSymbol = ""
	assert.Empty(t, m.Pair())
}

func TestFilteredCoinSymbol(t *testing.T) {
	fc := FilteredCoin{Coin: CoinRecord{Symbol: "sol"}}
	assert.Equal(t, "SOL", fc.Symbol())
}

// ── JSON ──

func TestCoinRecordNullAmounts(t *testing.T) {
	c := CoinRecord{
		ID:           "bitcoin",
		Symbol:       "BTC",
		MarketCapUSD: decimal.NewNullDecimal(decimal.RequireFromString("1280000000000.25")),
	}
	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"volume_24h_usd":null`)

	var decoded CoinRecord
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.MarketCapUSD.Valid)
	assert.True(t, decoded.MarketCapUSD.Decimal.Equal(c.MarketCapUSD.Decimal))
	assert.False(t, decoded.Volume24hUSD.Valid)
	assert.False(t, decoded.PriceUSD.Valid)
}
