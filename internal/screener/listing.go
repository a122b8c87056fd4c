package screener

import (
	"sort"

	"github.com/seenimoa/tierscreen/pkg/models"
)

// ExchangeSet is a set of normalized exchange names.
type ExchangeSet map[string]struct{}

// Add inserts a normalized exchange name. Empty names are ignored.
func (s ExchangeSet) Add(exchange string) {
	if key := models.ExchangeKey(exchange); key != "" {
		s[key] = struct{}{}
	}
}

// Sorted returns the members in lexical order.
func (s ExchangeSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Listings collects the distinct exchanges that list coinID by scanning
// every market record. Prefer a ListingIndex when resolving many coins.
func Listings(coinID string, markets []models.MarketRecord) ExchangeSet {
	key := models.CoinKey(coinID)
	set := make(ExchangeSet)
	if key == "" {
		return set
	}
	for _, m := range markets {
		if m.Key() == key {
			set.Add(m.ExchangeID)
		}
	}
	return set
}

// ListingIndex maps coin identifiers to the exchanges listing them. Building
// it is a single pass over the markets, so resolving every coin costs
// O(coins + markets) instead of O(coins × markets).
type ListingIndex struct {
	byCoin map[string]ExchangeSet
	pairs  map[string]map[string]struct{}
}

// BuildListingIndex indexes markets by coin identifier. Records missing a
// coin identifier or an exchange are skipped.
func BuildListingIndex(markets []models.MarketRecord) *ListingIndex {
	ix := &ListingIndex{
		byCoin: make(map[string]ExchangeSet),
		pairs:  make(map[string]map[string]struct{}),
	}
	for _, m := range markets {
		coin := m.Key()
		if coin == "" || models.ExchangeKey(m.ExchangeID) == "" {
			continue
		}
		set, ok := ix.byCoin[coin]
		if !ok {
			set = make(ExchangeSet)
			ix.byCoin[coin] = set
		}
		set.Add(m.ExchangeID)

		if pair := m.Pair(); pair != "" {
			if ix.pairs[coin] == nil {
				ix.pairs[coin] = make(map[string]struct{})
			}
			ix.pairs[coin][pair] = struct{}{}
		}
	}
	return ix
}

// Listings returns the exchanges listing coinID. The result is never nil;
// callers must not modify it.
func (ix *ListingIndex) Listings(coinID string) ExchangeSet {
	if set, ok := ix.byCoin[models.CoinKey(coinID)]; ok {
		return set
	}
	return ExchangeSet{}
}

// Pairs returns the distinct trading pairs of coinID across all listing
// exchanges, sorted. Coins without a quoted market get nil.
func (ix *ListingIndex) Pairs(coinID string) []string {
	set := ix.pairs[models.CoinKey(coinID)]
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Coins returns how many distinct coins have at least one listing.
func (ix *ListingIndex) Coins() int {
	return len(ix.byCoin)
}
