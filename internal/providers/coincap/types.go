package coincap

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/tierscreen/pkg/models"
)

// envelope is the CoinCap response wrapper: {"data": [...], "timestamp": ...}.
type envelope[T any] struct {
	Data      []T   `json:"data"`
	Timestamp int64 `json:"timestamp,omitempty"`
}

// assetJSON is one /assets row. Numeric fields are strings or null.
type assetJSON struct {
	ID                string  `json:"id"`
	Rank              string  `json:"rank"`
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	Supply            *string `json:"supply"`
	MaxSupply         *string `json:"maxSupply"`
	MarketCapUsd      *string `json:"marketCapUsd"`
	VolumeUsd24Hr     *string `json:"volumeUsd24Hr"`
	PriceUsd          *string `json:"priceUsd"`
	ChangePercent24Hr *string `json:"changePercent24Hr"`
}

// marketJSON is one /markets row.
type marketJSON struct {
	ExchangeID    string  `json:"exchangeId"`
	BaseID        string  `json:"baseId"`
	QuoteID       string  `json:"quoteId"`
	BaseSymbol    string  `json:"baseSymbol"`
	QuoteSymbol   string  `json:"quoteSymbol"`
	VolumeUsd24Hr *string `json:"volumeUsd24Hr"`
	PriceUsd      *string `json:"priceUsd"`
}

func (a assetJSON) toRecord() models.CoinRecord {
	rank, _ := strconv.Atoi(strings.TrimSpace(a.Rank))
	return models.CoinRecord{
		ID:           a.ID,
		Symbol:       a.Symbol,
		Name:         a.Name,
		Rank:         rank,
		PriceUSD:     parseAmount(a.PriceUsd),
		MarketCapUSD: parseAmount(a.MarketCapUsd),
		Volume24hUSD: parseAmount(a.VolumeUsd24Hr),
	}
}

func (m marketJSON) toRecord() models.MarketRecord {
	return models.MarketRecord{
		ExchangeID:   m.ExchangeID,
		BaseID:       m.BaseID,
		BaseSymbol:   m.BaseSymbol,
		QuoteSymbol:  m.QuoteSymbol,
		Volume24hUSD: parseAmount(m.VolumeUsd24Hr),
	}
}

// parseAmount converts a CoinCap numeric string. Null, empty, malformed and
// negative values come back invalid.
func parseAmount(s *string) decimal.NullDecimal {
	if s == nil {
		return decimal.NullDecimal{}
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func assetsToRecords(rows []assetJSON) []models.CoinRecord {
	out := make([]models.CoinRecord, len(rows))
	for i, r := range rows {
		out[i] = r.toRecord()
	}
	return out
}

func marketsToRecords(rows []marketJSON) []models.MarketRecord {
	out := make([]models.MarketRecord, len(rows))
	for i, r := range rows {
		out[i] = r.toRecord()
	}
	return out
}

// DecodeAssets reads a saved /assets response.
func DecodeAssets(r io.Reader) ([]models.CoinRecord, error) {
	var env envelope[assetJSON]
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("parse CoinCap assets JSON: %w", err)
	}
	return assetsToRecords(env.Data), nil
}

// DecodeMarkets reads a saved /markets response.
func DecodeMarkets(r io.Reader) ([]models.MarketRecord, error) {
	var env envelope[marketJSON]
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("parse CoinCap markets JSON: %w", err)
	}
	return marketsToRecords(env.Data), nil
}
