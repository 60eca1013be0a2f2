// Package market defines the shared value types of the channel-product fit
// engine: per-channel performance signals, anonymized cross-tenant benchmarks,
// channel scores, recommendations, and the assembled analysis report.
//
// Everything in this package is derived, tenant-scoped (except the benchmark,
// which is anonymized), and ephemeral; nothing here is persisted.
package market

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/channeliq/channeliq/pkg/types/common"
)

// Marketplace identifies a sales channel a product can be listed on.
type Marketplace string

const (
	MarketplaceAmazon  Marketplace = "amazon"
	MarketplaceEbay    Marketplace = "ebay"
	MarketplaceEtsy    Marketplace = "etsy"
	MarketplaceWalmart Marketplace = "walmart"
	MarketplaceShopify Marketplace = "shopify"
)

// AllMarketplaces returns the canonical ordered list of supported channels.
func AllMarketplaces() []Marketplace {
	return []Marketplace{
		MarketplaceAmazon,
		MarketplaceEbay,
		MarketplaceEtsy,
		MarketplaceWalmart,
		MarketplaceShopify,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Turnover — three-way tagged encoding
// ─────────────────────────────────────────────────────────────────────────────

// TurnoverKind discriminates the three states of inventory turnover.
type TurnoverKind int

const (
	// TurnoverUntracked means the tenant does not track stock for this listing.
	TurnoverUntracked TurnoverKind = iota
	// TurnoverStockout means the listing is out of stock while demand exists.
	TurnoverStockout
	// TurnoverMeasured means a finite turnover ratio was computed.
	TurnoverMeasured
)

// Turnover is the inventory-turnover signal.  It is a tagged union rather
// than a nullable float with a magic sentinel, so that sentinel values can
// never leak into arithmetic.
type Turnover struct {
	kind  TurnoverKind
	ratio float64
}

// Untracked returns the untracked turnover value.
func Untracked() Turnover { return Turnover{kind: TurnoverUntracked} }

// Stockout returns the active-stockout turnover value.
func Stockout() Turnover { return Turnover{kind: TurnoverStockout} }

// Measured returns a finite turnover ratio.
func Measured(ratio float64) Turnover {
	if ratio < 0 {
		ratio = 0
	}
	return Turnover{kind: TurnoverMeasured, ratio: ratio}
}

// Kind returns the discriminator.
func (t Turnover) Kind() TurnoverKind { return t.kind }

// Ratio returns the finite turnover ratio; ok is false unless Kind() is
// TurnoverMeasured.
func (t Turnover) Ratio() (ratio float64, ok bool) {
	if t.kind != TurnoverMeasured {
		return 0, false
	}
	return t.ratio, true
}

type turnoverJSON struct {
	Kind  string   `json:"kind"`
	Ratio *float64 `json:"ratio,omitempty"`
}

var turnoverKindNames = map[TurnoverKind]string{
	TurnoverUntracked: "untracked",
	TurnoverStockout:  "stockout",
	TurnoverMeasured:  "measured",
}

// MarshalJSON serialises the tagged union explicitly so downstream consumers
// never have to interpret sentinel numbers.
func (t Turnover) MarshalJSON() ([]byte, error) {
	out := turnoverJSON{Kind: turnoverKindNames[t.kind]}
	if t.kind == TurnoverMeasured {
		r := t.ratio
		out.Ratio = &r
	}
	return json.Marshal(out)
}

// UnmarshalJSON deserialises the tagged union.
func (t *Turnover) UnmarshalJSON(data []byte) error {
	var in turnoverJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	for k, name := range turnoverKindNames {
		if name == in.Kind {
			t.kind = k
			if k == TurnoverMeasured && in.Ratio != nil {
				t.ratio = *in.Ratio
			}
			return nil
		}
	}
	return fmt.Errorf("unknown turnover kind: %s", in.Kind)
}

// ─────────────────────────────────────────────────────────────────────────────
// RawSignals
// ─────────────────────────────────────────────────────────────────────────────

// RawSignals holds the per-(product, marketplace) performance signals derived
// from a tenant's own order, item, and inventory rows over a lookback window.
//
// RevenuePerDay and AvgUnitPrice are in the tenant's local currency and are
// never compared across tenants; UnitsPerDay is the only currency-agnostic
// rate and carries all cross-tenant comparison.
type RawSignals struct {
	RevenuePerDay float64  `json:"revenue_per_day"`
	UnitsPerDay   float64  `json:"units_per_day"`
	AvgUnitPrice  float64  `json:"avg_unit_price"`
	TrendSlope    float64  `json:"trend_slope"`
	TrendFit      float64  `json:"trend_fit"` // OLS r² in [0,1]; 0 when <3 weekly buckets
	Turnover      Turnover `json:"turnover"`
	ReturnRate    float64  `json:"return_rate"`

	OrderCount   int    `json:"order_count"`
	UnitsSold    int    `json:"units_sold"`
	DaysActive   int    `json:"days_active"`
	CurrentStock int    `json:"current_stock"`
	StockTracked bool   `json:"stock_tracked"`
	Currency     string `json:"currency"`
}

// ─────────────────────────────────────────────────────────────────────────────
// ClusterBenchmark
// ─────────────────────────────────────────────────────────────────────────────

// ClusterBenchmark is the anonymized cross-tenant aggregate for one
// (cluster key, marketplace) pair.  Contributor aggregates always exclude the
// requesting tenant; a benchmark is only constructed once the distinct
// other-contributor count clears the k-anonymity gate, so from a caller's
// point of view sub-threshold benchmarks do not exist.
//
// TotalRevenuePerDay and AvgPrice are explicitly mixed-currency and
// display-only; TotalUnitsPerDay carries all comparative meaning.
type ClusterBenchmark struct {
	ClusterKey  string      `json:"cluster_key"`
	Marketplace Marketplace `json:"marketplace"`

	TotalUnitsPerDay   float64 `json:"total_units_per_day"`
	TotalRevenuePerDay float64 `json:"total_revenue_per_day"`
	AvgPrice           float64 `json:"avg_price"`
	RecentUnits7d      float64 `json:"recent_units_7d"`

	// contributors is intentionally unexported: the count is a privacy control,
	// not a data point, and must never be serialized or displayed.
	contributors int
}

// NewClusterBenchmark constructs a benchmark with its private contributor
// count.  Callers (the builder) are responsible for only constructing
// benchmarks that already cleared the k-anonymity gate.
func NewClusterBenchmark(key string, mp Marketplace, unitsPerDay, revenuePerDay, avgPrice, recent7d float64, contributors int) *ClusterBenchmark {
	return &ClusterBenchmark{
		ClusterKey:         key,
		Marketplace:        mp,
		TotalUnitsPerDay:   unitsPerDay,
		TotalRevenuePerDay: revenuePerDay,
		AvgPrice:           avgPrice,
		RecentUnits7d:      recent7d,
		contributors:       contributors,
	}
}

// Contributors returns the distinct other-tenant contributor count.
func (b *ClusterBenchmark) Contributors() int { return b.contributors }

// Qualifies reports whether the benchmark clears the k-anonymity minimum and
// has any aggregate demand.
func (b *ClusterBenchmark) Qualifies(minContributors int) bool {
	return b != nil && b.contributors >= minContributors && b.TotalUnitsPerDay > 0
}

// BenchmarkSet maps cluster key → marketplace → benchmark.
type BenchmarkSet map[string]map[Marketplace]*ClusterBenchmark

// Lookup returns the benchmark for (key, mp), or nil when absent.
func (s BenchmarkSet) Lookup(key string, mp Marketplace) *ClusterBenchmark {
	if s == nil {
		return nil
	}
	return s[key][mp]
}

// ─────────────────────────────────────────────────────────────────────────────
// ChannelScore
// ─────────────────────────────────────────────────────────────────────────────

// ScoreLabel is the qualitative classification of a channel score.
type ScoreLabel string

const (
	LabelStrong           ScoreLabel = "strong"
	LabelGood             ScoreLabel = "good"
	LabelModerate         ScoreLabel = "moderate"
	LabelWeak             ScoreLabel = "weak"
	LabelInsufficientData ScoreLabel = "insufficient_data"
)

// MarketDemand carries the benchmark-derived demand figures attached to a
// channel score when a qualified benchmark exists.
type MarketDemand struct {
	UnitsPerDay   float64 `json:"units_per_day"`
	RecentUnits7d float64 `json:"recent_units_7d"`
}

// ChannelScore is the per-(product, marketplace) fit assessment.  Computed
// fresh on every analysis call and never persisted.
type ChannelScore struct {
	Marketplace  Marketplace   `json:"marketplace"`
	FitScore     float64       `json:"fit_score"`   // 0–100
	Confidence   float64       `json:"confidence"`  // 0–100
	Rank         int           `json:"rank"`        // 1 = best channel for this product
	Signals      RawSignals    `json:"signals"`
	MarketDemand *MarketDemand `json:"market_demand,omitempty"`
	Label        ScoreLabel    `json:"label"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Recommendation
// ─────────────────────────────────────────────────────────────────────────────

// RecommendationType enumerates the four action classes plus the
// connect-first variant of expansion.
type RecommendationType string

const (
	RecommendationExpand       RecommendationType = "EXPAND"
	RecommendationConnect      RecommendationType = "CONNECT"
	RecommendationRestock      RecommendationType = "RESTOCK"
	RecommendationReprice      RecommendationType = "REPRICE"
	RecommendationDeprioritize RecommendationType = "DEPRIORITIZE"
)

// Urgency classifies how soon a recommendation should be acted on.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// Rank returns a sortable weight, higher = more urgent.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyHigh:
		return 3
	case UrgencyMedium:
		return 2
	case UrgencyLow:
		return 1
	default:
		return 0
	}
}

// Impact is an estimated monthly financial effect, in the tenant's local
// currency (never derived from cross-tenant revenue figures directly).
type Impact struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Note     string  `json:"note,omitempty"`
}

// Recommendation is a single ranked, explained action item for one product.
type Recommendation struct {
	Type         RecommendationType `json:"type"`
	ProductTitle string             `json:"product_title"`
	ClusterKey   string             `json:"cluster_key"`
	Marketplace  Marketplace        `json:"marketplace"`
	Reasoning    string             `json:"reasoning"`
	Confidence   float64            `json:"confidence"` // 0–100
	Urgency      Urgency            `json:"urgency"`
	Impact       *Impact            `json:"estimated_monthly_impact,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Report
// ─────────────────────────────────────────────────────────────────────────────

// FitReport is the per-product section of an analysis report.
type FitReport struct {
	ProductTitle    string           `json:"product_title"`
	ClusterKey      string           `json:"cluster_key"`
	ChannelScores   []ChannelScore   `json:"channel_scores,omitempty"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
	Health          ScoreLabel       `json:"health"`
}

// Report is the assembled channel-fit analysis for one tenant request.
type Report struct {
	PeriodLabel        string              `json:"period_label"`
	PeriodDays         int                 `json:"period_days"`
	Phase              common.RequestPhase `json:"phase"`
	ProductsAnalyzed   int                 `json:"products_analyzed"`
	Products           []FitReport         `json:"products"`
	TopRecommendations []Recommendation    `json:"top_recommendations"`
	GeneratedAt        time.Time           `json:"generated_at"`
}

// EmptyReport returns the well-formed empty report used when a tenant has no
// sales data or no products match the requested filter.
func EmptyReport(period common.Period, phase common.RequestPhase) *Report {
	return &Report{
		PeriodLabel:        period.Label,
		PeriodDays:         period.Days(),
		Phase:              phase,
		Products:           []FitReport{},
		TopRecommendations: []Recommendation{},
		GeneratedAt:        time.Now().UTC(),
	}
}
