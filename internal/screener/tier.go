// Package screener implements the coin screening core: exchange tier
// classification, coin-to-exchange listing resolution, the acceptance
// filter, and market cap ranking. Everything here is pure and operates on
// already-fetched records.
package screener

import (
	"sort"

	"github.com/seenimoa/tierscreen/pkg/models"
)

// ExchangeTier classifies a trading venue by liquidity and reputation.
type ExchangeTier int

const (
	Unranked ExchangeTier = iota
	Tier1
	Tier2
)

func (t ExchangeTier) String() string {
	switch t {
	case Tier1:
		return "tier1"
	case Tier2:
		return "tier2"
	default:
		return "unranked"
	}
}

// Ranked reports whether the tier satisfies the listing requirement.
func (t ExchangeTier) Ranked() bool {
	return t == Tier1 || t == Tier2
}

// DefaultTier1 and DefaultTier2 are the curated exchange lists.
var (
	DefaultTier1 = []string{"Binance", "Coinbase", "Kraken", "Bitfinex", "OKEx", "Bybit"}
	DefaultTier2 = []string{"Gate.io", "KuCoin", "Huobi", "Bitstamp", "Crypto.com"}
)

// TierTable maps normalized exchange names to tiers. It is read-only after
// construction and safe for concurrent use.
type TierTable struct {
	tiers map[string]ExchangeTier
}

// NewTierTable builds a table from two name lists. A name present in both
// lists is Tier1.
func NewTierTable(tier1, tier2 []string) *TierTable {
	t := &TierTable{tiers: make(map[string]ExchangeTier, len(tier1)+len(tier2))}
	for _, name := range tier2 {
		if key := models.ExchangeKey(name); key != "" {
			t.tiers[key] = Tier2
		}
	}
	for _, name := range tier1 {
		if key := models.ExchangeKey(name); key != "" {
			t.tiers[key] = Tier1
		}
	}
	return t
}

// DefaultTierTable returns the table built from DefaultTier1 and DefaultTier2.
func DefaultTierTable() *TierTable {
	return NewTierTable(DefaultTier1, DefaultTier2)
}

// Classify returns the tier of an exchange. Matching is case-insensitive and
// ignores surrounding whitespace; unknown names are Unranked.
func (t *TierTable) Classify(exchange string) ExchangeTier {
	return t.tiers[models.ExchangeKey(exchange)]
}

// Exchanges returns the normalized names of the given tier, sorted.
func (t *TierTable) Exchanges(tier ExchangeTier) []string {
	var names []string
	for name, tt := range t.tiers {
		if tt == tier {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

var defaultTable = DefaultTierTable()

// Classify classifies an exchange against the default table.
func Classify(exchange string) ExchangeTier {
	return defaultTable.Classify(exchange)
}
