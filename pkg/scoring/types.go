// Package scoring implements the inkguard counterfeit-risk engine.
// It fuses rating-distribution, review-text and price evidence for a listing
// into explainable, evidence-backed trust and risk scores.
package scoring

// Assessment is the complete output of scoring one listing.
// Immutable once computed.
type Assessment struct {
	ListingID string          `json:"listing_id"`
	Rating    RatingSignal    `json:"rating"`
	Price     *PriceSignal    `json:"price,omitempty"`    // nil when no bundle decomposition was supplied
	Semantic  *SemanticSignal `json:"semantic,omitempty"` // nil when no review text was judged
	Trust     TrustScore      `json:"trust"`
	Verdict   Verdict         `json:"verdict"`
	Findings  []Finding       `json:"findings"`
}

// SuspiciousByReviews reports whether the fused review trust falls in one of
// the two suspicious interpretation buckets.
func (a *Assessment) SuspiciousByReviews() bool {
	return a.Trust.Interpretation.Suspicious()
}

// SuspiciousByPrice reports whether the price axis flagged the listing.
func (a *Assessment) SuspiciousByPrice() bool {
	return a.Price != nil && a.Price.IsSuspicious
}

// DistributionHealth classifies the shape of a rating histogram.
type DistributionHealth string

const (
	HealthHealthy      DistributionHealth = "healthy"
	HealthPolarized    DistributionHealth = "polarized"
	HealthSuspicious   DistributionHealth = "suspicious"
	HealthInsufficient DistributionHealth = "insufficient"
)

// Flag is a named anomaly detected in a rating histogram.
type Flag string

const (
	FlagNoReviews            Flag = "NO_REVIEWS"
	FlagNormalDistribution   Flag = "NORMAL_DISTRIBUTION"
	FlagBimodal              Flag = "BIMODAL_DISTRIBUTION"
	FlagModeratePolarization Flag = "MODERATE_POLARIZATION"
	FlagLowAverageWithVolume Flag = "LOW_AVERAGE_WITH_VOLUME"
	FlagHighNegative         Flag = "HIGH_NEGATIVE_PERCENTAGE"
	FlagModerateNegative     Flag = "MODERATE_NEGATIVE_PERCENTAGE"
	FlagLowVolume            Flag = "LOW_VOLUME"
	FlagSuspiciouslyPerfect  Flag = "SUSPICIOUSLY_PERFECT"
	FlagManyOneStar          Flag = "MANY_ONE_STAR_REVIEWS"
)

// RatingSignal is the statistical signal derived from a rating histogram.
type RatingSignal struct {
	HasReviews        bool               `json:"has_reviews"`
	Average           float64            `json:"average"`
	Total             int                `json:"total"`
	StarPercentages   [5]float64         `json:"star_percentages"` // index 0 is one star
	PositivePct       float64            `json:"positive_pct"`
	NeutralPct        float64            `json:"neutral_pct"`
	NegativePct       float64            `json:"negative_pct"`
	IsBimodal         bool               `json:"is_bimodal"`
	BimodalScore      float64            `json:"bimodal_score"` // 0-100
	PolarizationIndex float64            `json:"polarization_index"`
	VolumeConfidence  float64            `json:"volume_confidence"`
	Health            DistributionHealth `json:"distribution_health"`
	TrustScore        float64            `json:"trust_score"`
	Flags             []Flag             `json:"flags"`
}

// HasFlag reports whether f was raised.
func (s RatingSignal) HasFlag(f Flag) bool {
	for _, got := range s.Flags {
		if got == f {
			return true
		}
	}
	return false
}

// RiskTier buckets a price deviation.
type RiskTier string

const (
	TierCritical RiskTier = "CRITICAL"
	TierHigh     RiskTier = "HIGH"
	TierMedium   RiskTier = "MEDIUM"
	TierLow      RiskTier = "LOW"
	TierNormal   RiskTier = "NORMAL"
	TierPremium  RiskTier = "PREMIUM"
	TierUnknown  RiskTier = "UNKNOWN"
)

// PriceSignal compares a listed price to manufacturer-suggested retail.
type PriceSignal struct {
	ListedPrice         float64  `json:"listed_price"`
	BundleQuantity      int      `json:"bundle_quantity"`
	PricePerUnit        float64  `json:"price_per_unit"`
	MatchedSKU          string   `json:"matched_sku,omitempty"`
	ExpectedBundlePrice *float64 `json:"expected_bundle_price,omitempty"`
	SuggestedRetail     *float64 `json:"suggested_retail,omitempty"` // expected price per unit
	DeviationAmount     *float64 `json:"deviation_amount,omitempty"`
	DeviationPct        *float64 `json:"deviation_pct,omitempty"`
	Tier                RiskTier `json:"risk_tier"`
	IsSuspicious        bool     `json:"is_suspicious"`
	TotalItems          int      `json:"total_items"`
	MatchedItems        int      `json:"matched_items"`
	ColorFallbacks      int      `json:"color_fallbacks"` // items priced with the other color's row
	Notes               string   `json:"notes"`
}

// CategoryCount is a complaint category and how many judgments named it.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// IssuePercentages is the share of judged reviews raising each issue flag.
type IssuePercentages struct {
	ShortDuration    float64 `json:"short_duration"`
	PrinterRejection float64 `json:"printer_rejection"`
	EmptyCartridge   float64 `json:"empty_cartridge"`
	Leaking          float64 `json:"leaking"`
	FakeClaim        float64 `json:"fake_claim"`
	AuthenticClaim   float64 `json:"authentic_claim"`
}

// SemanticSignal is the product-level rollup of per-review judgments.
type SemanticSignal struct {
	TotalAnalyzed int `json:"total_analyzed"`

	SentimentCounts  map[string]int     `json:"sentiment_counts"`
	SentimentPct     map[string]float64 `json:"sentiment_pct"`
	AverageSentiment float64            `json:"average_sentiment"`

	AuthenticityCounts map[string]int `json:"authenticity_counts"`
	CounterfeitCount   int            `json:"counterfeit_count"`
	AuthenticCount     int            `json:"authentic_count"`
	UnclearCount       int            `json:"unclear_count"` // unclear + not_relevant
	AuthenticityRatio  float64        `json:"authenticity_ratio"`

	ComplaintFrequency map[string]int  `json:"complaint_frequency"`
	TopComplaints      []CategoryCount `json:"top_complaints"`

	CounterfeitKeywords []string `json:"counterfeit_keywords"`
	AuthenticKeywords   []string `json:"authentic_keywords"`

	Issues IssuePercentages `json:"issues"`

	SeverityCounts map[string]int `json:"severity_counts"`
	CriticalCount  int            `json:"critical_count"`
	HighCount      int            `json:"high_count"`

	SuspiciousCount   int     `json:"suspicious_count"`
	SuspiciousPct     float64 `json:"suspicious_pct"`
	AverageConfidence float64 `json:"average_confidence"`

	RiskScore float64 `json:"risk_score"`
}

// Interpretation is the six-bucket reading of a fused trust weight.
type Interpretation string

const (
	InterpHighlyTrustworthy     Interpretation = "HIGHLY_TRUSTWORTHY"
	InterpTrustworthy           Interpretation = "TRUSTWORTHY"
	InterpModeratelyTrustworthy Interpretation = "MODERATELY_TRUSTWORTHY"
	InterpUncertain             Interpretation = "UNCERTAIN"
	InterpSuspicious            Interpretation = "SUSPICIOUS"
	InterpHighlySuspicious      Interpretation = "HIGHLY_SUSPICIOUS"
)

// Interpretations lists all buckets from most to least trustworthy.
var Interpretations = []Interpretation{
	InterpHighlyTrustworthy,
	InterpTrustworthy,
	InterpModeratelyTrustworthy,
	InterpUncertain,
	InterpSuspicious,
	InterpHighlySuspicious,
}

// Suspicious reports whether i is SUSPICIOUS or HIGHLY_SUSPICIOUS.
func (i Interpretation) Suspicious() bool {
	return i == InterpSuspicious || i == InterpHighlySuspicious
}

// Rank orders interpretations; 0 is the most trustworthy. Unknown values rank -1.
func (i Interpretation) Rank() int {
	for n, v := range Interpretations {
		if v == i {
			return n
		}
	}
	return -1
}

// Confidence is how much the fused score can be relied on.
type Confidence string

const (
	ConfidenceLow    Confidence = "LOW"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)

// TrustScore is the fused review trust for a listing.
type TrustScore struct {
	Weight               float64        `json:"weight"` // 0-1, higher is more trustworthy
	Risk                 float64        `json:"risk"`   // 1 - weight
	StatisticalComponent float64        `json:"statistical_component"`
	SemanticComponent    *float64       `json:"semantic_component,omitempty"`
	StatisticalWeight    float64        `json:"statistical_weight"`
	SemanticWeight       float64        `json:"semantic_weight"`
	Coverage             *float64       `json:"coverage,omitempty"`
	Interpretation       Interpretation `json:"interpretation"`
	Confidence           Confidence     `json:"confidence"`
	Reasoning            string         `json:"reasoning"`
}

// Verdict combines the review and price axes into one overall call.
type Verdict string

const (
	VerdictHighRisk     Verdict = "HIGH_RISK"    // both axes suspicious
	VerdictElevated     Verdict = "ELEVATED"     // one axis suspicious
	VerdictLowRisk      Verdict = "LOW_RISK"     // neither suspicious, reviews at least moderately trustworthy
	VerdictInconclusive Verdict = "INCONCLUSIVE" // neither suspicious, reviews uncertain
)

// Finding is one signal axis's contribution to an assessment.
type Finding struct {
	Key      string         `json:"key"`  // machine key: "price_deviation"
	Name     string         `json:"name"` // human name: "Price deviation"
	Score    float64        `json:"score"`
	Severity Severity       `json:"severity"`
	Evidence []EvidenceItem `json:"evidence"`
}

// Severity indicates how concerning a finding is.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
	SeverityInfo   Severity = "INFO"
)

// EvidenceItem is a single piece of concrete evidence backing a finding.
type EvidenceItem struct {
	Type    EvidenceType `json:"type"`
	Summary string       `json:"summary"`
	Value   float64      `json:"value,omitempty"`
}

// EvidenceType classifies what kind of evidence this is.
type EvidenceType string

const (
	EvidenceFlag           EvidenceType = "RATING_FLAG"
	EvidenceDistribution   EvidenceType = "DISTRIBUTION"
	EvidencePriceDeviation EvidenceType = "PRICE_DEVIATION"
	EvidencePriceMatch     EvidenceType = "PRICE_MATCH"
	EvidenceReviewIssue    EvidenceType = "REVIEW_ISSUE"
	EvidenceKeyword        EvidenceType = "KEYWORD"
	EvidenceCoverage       EvidenceType = "COVERAGE"
)

// InterpretWeight maps a fused trust weight to its bucket. Lower bounds are
// inclusive.
func InterpretWeight(w float64) Interpretation {
	switch {
	case w >= 0.85:
		return InterpHighlyTrustworthy
	case w >= 0.70:
		return InterpTrustworthy
	case w >= 0.50:
		return InterpModeratelyTrustworthy
	case w >= 0.35:
		return InterpUncertain
	case w >= 0.20:
		return InterpSuspicious
	default:
		return InterpHighlySuspicious
	}
}

// TierFromDeviation maps a price deviation percentage to a risk tier and
// whether that tier is suspicious.
func TierFromDeviation(pct float64) (RiskTier, bool) {
	switch {
	case pct < -70:
		return TierCritical, true
	case pct < -50:
		return TierHigh, true
	case pct < -30:
		return TierMedium, true
	case pct < -10:
		return TierLow, false
	case pct < 20:
		return TierNormal, false
	default:
		return TierPremium, false
	}
}

// VolumeConfidence is a step function of the number of ratings.
func VolumeConfidence(total int) float64 {
	switch {
	case total <= 0:
		return 0.0
	case total < 5:
		return 0.3
	case total < 10:
		return 0.5
	case total < 30:
		return 0.7
	case total < 100:
		return 0.9
	default:
		return 1.0
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
