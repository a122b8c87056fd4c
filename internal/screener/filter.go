package screener

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/seenimoa/tierscreen/pkg/models"
)

// Reason names why a coin was not accepted.
type Reason string

const (
	ReasonInvalidData Reason = "invalid_data"
	ReasonMarketCap   Reason = "market_cap"
	ReasonVolume      Reason = "volume"
	ReasonExchanges   Reason = "exchanges"
	ReasonDuplicate   Reason = "duplicate"
)

// AllReasons returns every skip reason in reporting order.
func AllReasons() []Reason {
	return []Reason{ReasonInvalidData, ReasonMarketCap, ReasonVolume, ReasonExchanges, ReasonDuplicate}
}

// Criteria holds the acceptance thresholds. Both comparisons are strict.
type Criteria struct {
	MinMarketCap decimal.Decimal
	MinVolume24h decimal.Decimal
}

// DefaultCriteria returns market cap > $1M and 24h volume > $150K.
func DefaultCriteria() Criteria {
	return Criteria{
		MinMarketCap: decimal.NewFromInt(1_000_000),
		MinVolume24h: decimal.NewFromInt(150_000),
	}
}

// Verdict is the outcome of evaluating one coin.
type Verdict struct {
	Accepted bool
	Failures []Reason // every failed criterion, in evaluation order
}

// Reason returns the first failed criterion, or "" when accepted.
func (v Verdict) Reason() Reason {
	if len(v.Failures) == 0 {
		return ""
	}
	return v.Failures[0]
}

// Engine applies Criteria and a TierTable to coin records.
type Engine struct {
	criteria Criteria
	tiers    *TierTable
	topN     int
	logger   zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTierTable overrides the default exchange tier table.
func WithTierTable(t *TierTable) Option {
	return func(e *Engine) {
		if t != nil {
			e.tiers = t
		}
	}
}

// WithTopN sets the length of the top and bottom report slices.
func WithTopN(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.topN = n
		}
	}
}

// WithLogger sets the logger used for per-coin skip messages.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates a filter engine.
func NewEngine(c Criteria, opts ...Option) *Engine {
	e := &Engine{
		criteria: c,
		tiers:    DefaultTierTable(),
		topN:     DefaultReportSize,
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Criteria returns the thresholds in use.
func (e *Engine) Criteria() Criteria { return e.criteria }

// Tiers returns the tier table in use.
func (e *Engine) Tiers() *TierTable { return e.tiers }

// Evaluate checks one coin against all three criteria. The returned coin is
// nil unless the verdict is accepted. A coin with a missing market cap or
// volume fails with ReasonInvalidData; that is an ordinary rejection.
func (e *Engine) Evaluate(coin models.CoinRecord, listed ExchangeSet) (*models.FilteredCoin, Verdict) {
	if !coin.MarketCapUSD.Valid || !coin.Volume24hUSD.Valid {
		return nil, Verdict{Failures: []Reason{ReasonInvalidData}}
	}

	marketCap := coin.MarketCapUSD.Decimal
	volume := coin.Volume24hUSD.Decimal

	var failures []Reason
	if !marketCap.GreaterThan(e.criteria.MinMarketCap) {
		failures = append(failures, ReasonMarketCap)
	}
	if !volume.GreaterThan(e.criteria.MinVolume24h) {
		failures = append(failures, ReasonVolume)
	}

	var tier1, tier2 int
	meetsTier := false
	for name := range listed {
		tier := e.tiers.Classify(name)
		if !tier.Ranked() {
			continue
		}
		meetsTier = true
		if tier == Tier1 {
			tier1++
		} else {
			tier2++
		}
	}
	if !meetsTier {
		failures = append(failures, ReasonExchanges)
	}

	if len(failures) > 0 {
		return nil, Verdict{Failures: failures}
	}

	fc := &models.FilteredCoin{
		Coin:       coin,
		MarketCap:  marketCap,
		Volume24h:  volume,
		Exchanges:  listed.Sorted(),
		Tier1Count: tier1,
		Tier2Count: tier2,
		MeetsTier:  meetsTier,
	}
	if coin.PriceUSD.Valid {
		fc.Price = coin.PriceUSD.Decimal
	}
	return fc, Verdict{Accepted: true}
}
