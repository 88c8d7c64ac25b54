package scoring

import (
	"fmt"
	"sort"

	"github.com/inkguard/inkguard/pkg/listing"
)

// Input is everything the engine needs to assess one listing.
type Input struct {
	Listing       listing.Listing
	Decomposition *listing.Decomposition   // nil when the listing structure is unknown
	Judgments     []listing.ReviewJudgment // one per review with text; may be empty
}

// Engine runs the rating, price, review and fusion components over a listing
// and produces an Assessment. It holds no per-listing state and is safe for
// concurrent use.
type Engine struct {
	rating     *RatingAnalyzer
	price      *PriceAnalyzer
	aggregator *ReviewAggregator
	fusion     *FusionEngine
}

// NewEngine creates a scoring engine with the given weights and reference
// price table.
func NewEngine(w Weights, table *ReferenceTable) (*Engine, error) {
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("invalid weights: %w", err)
	}
	if table == nil {
		return nil, fmt.Errorf("reference table is nil")
	}
	return &Engine{
		rating:     NewRatingAnalyzer(w),
		price:      NewPriceAnalyzer(table),
		aggregator: NewReviewAggregator(w),
		fusion:     NewFusionEngine(w),
	}, nil
}

// Table returns the engine's reference price table.
func (e *Engine) Table() *ReferenceTable {
	return e.price.Table
}

// Assess validates in and scores it. Malformed input is rejected with
// listing.ValidationErrors before any component runs.
func (e *Engine) Assess(in Input) (*Assessment, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	result := &Assessment{
		ListingID: in.Listing.ID,
		Rating:    e.rating.Analyze(in.Listing.Histogram),
	}

	if in.Decomposition != nil {
		ps := e.price.Analyze(in.Listing.Price, in.Decomposition.Items)
		result.Price = &ps
	}

	if len(in.Judgments) > 0 {
		ss := e.aggregator.Aggregate(in.Judgments)
		result.Semantic = &ss
	}

	result.Trust = e.fusion.Fuse(result.Rating, result.Semantic)
	result.Verdict = verdictFor(result)
	result.Findings = []Finding{
		ratingFinding(result.Rating),
		priceFinding(result.Price),
		semanticFinding(result.Semantic),
		trustFinding(result.Trust),
	}

	return result, nil
}

func validateInput(in Input) error {
	var all listing.ValidationErrors
	collect := func(prefix string, v any) error {
		err := listing.Validate(v)
		if err == nil {
			return nil
		}
		verrs, ok := err.(listing.ValidationErrors)
		if !ok {
			return err
		}
		for _, fe := range verrs {
			fe.Field = prefix + fe.Field
			all = append(all, fe)
		}
		return nil
	}

	if err := collect("listing.", &in.Listing); err != nil {
		return err
	}
	if in.Decomposition != nil {
		if err := collect("decomposition.", in.Decomposition); err != nil {
			return err
		}
	}
	for i := range in.Judgments {
		if err := collect(fmt.Sprintf("judgments[%d].", i), &in.Judgments[i]); err != nil {
			return err
		}
	}

	if len(all) > 0 {
		return all
	}
	return nil
}

func verdictFor(a *Assessment) Verdict {
	byReviews := a.SuspiciousByReviews()
	byPrice := a.SuspiciousByPrice()
	switch {
	case byReviews && byPrice:
		return VerdictHighRisk
	case byReviews || byPrice:
		return VerdictElevated
	case !a.Rating.HasReviews && a.Semantic == nil:
		return VerdictInconclusive
	case a.Trust.Weight >= 0.50:
		return VerdictLowRisk
	default:
		return VerdictInconclusive
	}
}

func ratingFinding(s RatingSignal) Finding {
	f := Finding{
		Key:   "rating_distribution",
		Name:  "Rating distribution",
		Score: 1 - s.TrustScore,
	}
	switch s.Health {
	case HealthSuspicious:
		f.Severity = SeverityHigh
	case HealthPolarized:
		f.Severity = SeverityMedium
	case HealthHealthy:
		f.Severity = SeverityLow
	default:
		f.Severity = SeverityInfo
	}

	f.Evidence = append(f.Evidence, EvidenceItem{
		Type:    EvidenceDistribution,
		Summary: fmt.Sprintf("%d ratings, average %.2f, %.1f%% negative, health %s", s.Total, s.Average, s.NegativePct, s.Health),
		Value:   float64(s.Total),
	})
	if s.IsBimodal || s.BimodalScore > 0 {
		f.Evidence = append(f.Evidence, EvidenceItem{
			Type:    EvidenceDistribution,
			Summary: fmt.Sprintf("bimodal score %.1f (bimodal=%t)", s.BimodalScore, s.IsBimodal),
			Value:   s.BimodalScore,
		})
	}
	for _, fl := range s.Flags {
		if fl == FlagNormalDistribution {
			continue
		}
		f.Evidence = append(f.Evidence, EvidenceItem{
			Type:    EvidenceFlag,
			Summary: string(fl),
		})
	}
	return f
}

func priceFinding(s *PriceSignal) Finding {
	f := Finding{
		Key:      "price_deviation",
		Name:     "Price deviation",
		Severity: SeverityInfo,
	}
	if s == nil {
		f.Evidence = []EvidenceItem{{Type: EvidencePriceMatch, Summary: "no bundle decomposition available"}}
		return f
	}

	switch s.Tier {
	case TierCritical, TierHigh:
		f.Severity = SeverityHigh
	case TierMedium:
		f.Severity = SeverityMedium
	case TierLow, TierPremium:
		f.Severity = SeverityLow
	}

	f.Evidence = append(f.Evidence, EvidenceItem{
		Type:    EvidencePriceMatch,
		Summary: fmt.Sprintf("%d/%d items matched to reference prices", s.MatchedItems, s.TotalItems),
		Value:   float64(s.MatchedItems),
	})
	if s.DeviationPct != nil {
		pct := *s.DeviationPct
		if pct < 0 {
			f.Score = clamp01(-pct / 100)
		}
		f.Evidence = append(f.Evidence, EvidenceItem{
			Type:    EvidencePriceDeviation,
			Summary: fmt.Sprintf("listed R$ %.2f vs expected R$ %.2f (%+.1f%%, %s)", s.ListedPrice, *s.ExpectedBundlePrice, pct, s.Tier),
			Value:   pct,
		})
	}
	return f
}

func semanticFinding(s *SemanticSignal) Finding {
	f := Finding{
		Key:      "review_semantics",
		Name:     "Review text analysis",
		Severity: SeverityInfo,
	}
	if s == nil {
		f.Evidence = []EvidenceItem{{Type: EvidenceCoverage, Summary: "no review text analyzed"}}
		return f
	}

	f.Score = s.RiskScore
	switch {
	case s.CriticalCount > 0 || s.RiskScore >= 0.6:
		f.Severity = SeverityHigh
	case s.RiskScore >= 0.4:
		f.Severity = SeverityMedium
	default:
		f.Severity = SeverityLow
	}

	f.Evidence = append(f.Evidence, EvidenceItem{
		Type:    EvidenceCoverage,
		Summary: fmt.Sprintf("%d reviews analyzed, %d counterfeit vs %d authentic signals", s.TotalAnalyzed, s.CounterfeitCount, s.AuthenticCount),
		Value:   float64(s.TotalAnalyzed),
	})

	issues := []struct {
		name string
		pct  float64
	}{
		{"fake claim", s.Issues.FakeClaim},
		{"printer rejection", s.Issues.PrinterRejection},
		{"empty cartridge", s.Issues.EmptyCartridge},
		{"short duration", s.Issues.ShortDuration},
		{"leaking", s.Issues.Leaking},
	}
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].pct > issues[j].pct })
	for _, is := range issues {
		if is.pct <= 0 {
			continue
		}
		f.Evidence = append(f.Evidence, EvidenceItem{
			Type:    EvidenceReviewIssue,
			Summary: fmt.Sprintf("%.0f%% of reviews mention %s", is.pct, is.name),
			Value:   is.pct,
		})
	}
	for _, kw := range s.CounterfeitKeywords {
		f.Evidence = append(f.Evidence, EvidenceItem{
			Type:    EvidenceKeyword,
			Summary: kw,
		})
	}
	return f
}

func trustFinding(t TrustScore) Finding {
	f := Finding{
		Key:   "review_trust",
		Name:  "Fused review trust",
		Score: t.Risk,
	}
	switch {
	case t.Interpretation.Suspicious():
		f.Severity = SeverityHigh
	case t.Interpretation == InterpUncertain:
		f.Severity = SeverityMedium
	case t.Interpretation == InterpModeratelyTrustworthy:
		f.Severity = SeverityLow
	default:
		f.Severity = SeverityInfo
	}
	f.Evidence = []EvidenceItem{{
		Type:    EvidenceCoverage,
		Summary: t.Reasoning,
		Value:   t.Weight,
	}}
	return f
}
