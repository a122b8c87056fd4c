package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CoinRecord is one asset row as returned by the market data API.
// Numeric fields are nullable: the API reports missing values as null.
type CoinRecord struct {
	ID           string              `json:"id"`     // provider asset id, e.g. "bitcoin"
	Symbol       string              `json:"symbol"` // join key into MarketRecord.BaseSymbol
	Name         string              `json:"name"`
	Rank         int                 `json:"rank,omitempty"`
	PriceUSD     decimal.NullDecimal `json:"price_usd"`
	MarketCapUSD decimal.NullDecimal `json:"market_cap_usd"`
	Volume24hUSD decimal.NullDecimal `json:"volume_24h_usd"`
}

// Key returns the normalized coin identifier used for joins.
func (c CoinRecord) Key() string {
	return CoinKey(c.Symbol)
}

// MarketRecord is one (coin, exchange) listing observation.
type MarketRecord struct {
	ExchangeID   string              `json:"exchange_id"`
	BaseID       string              `json:"base_id,omitempty"`
	BaseSymbol   string              `json:"base_symbol"`
	QuoteSymbol  string              `json:"quote_symbol,omitempty"`
	Volume24hUSD decimal.NullDecimal `json:"volume_24h_usd"`
}

// Key returns the normalized coin identifier of the listed base asset.
func (m MarketRecord) Key() string {
	return CoinKey(m.BaseSymbol)
}

// Pair returns the trading pair as "BASE/QUOTE", or "" when the quote is unknown.
func (m MarketRecord) Pair() string {
	quote := CoinKey(m.QuoteSymbol)
	if quote == "" {
		return ""
	}
	return CoinKey(m.BaseSymbol) + "/" + quote
}

// FilteredCoin is a coin that was evaluated against the screening criteria,
// carrying the resolved numbers and its exchange listings.
type FilteredCoin struct {
	Coin       CoinRecord      `json:"coin"`
	MarketCap  decimal.Decimal `json:"market_cap_usd"`
	Volume24h  decimal.Decimal `json:"volume_24h_usd"`
	Price      decimal.Decimal `json:"price_usd"`
	Exchanges  []string        `json:"exchanges"` // sorted, normalized
	Pairs      []string        `json:"pairs"`     // sorted "BASE/QUOTE" trading pairs
	Tier1Count int             `json:"tier1_exchanges"`
	Tier2Count int             `json:"tier2_exchanges"`
	MeetsTier  bool            `json:"meets_tier"`
}

// Symbol returns the normalized coin identifier.
func (f FilteredCoin) Symbol() string {
	return f.Coin.Key()
}

// CoinKey normalizes a coin symbol: trimmed and upper-cased.
func CoinKey(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// ExchangeKey normalizes an exchange name: trimmed and lower-cased.
func ExchangeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
