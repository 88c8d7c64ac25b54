package scoring

import (
	"fmt"
	"strings"
)

// FusionEngine combines the statistical and semantic review signals into one
// trust score. Semantic evidence gets more weight the larger the share of
// ratings it covers.
type FusionEngine struct {
	W Weights
}

// NewFusionEngine creates a FusionEngine with the given weights.
func NewFusionEngine(w Weights) *FusionEngine {
	return &FusionEngine{W: w}
}

// Fuse computes the trust score. A nil semantic signal, or one built from
// zero judgments, selects the statistical-only branch.
func (f *FusionEngine) Fuse(rating RatingSignal, semantic *SemanticSignal) TrustScore {
	var ts TrustScore
	if semantic == nil || semantic.TotalAnalyzed == 0 {
		ts = f.statisticalOnly(rating)
	} else {
		ts = f.combined(rating, semantic)
	}
	ts.Risk = 1 - ts.Weight
	ts.Interpretation = InterpretWeight(ts.Weight)
	return ts
}

func (f *FusionEngine) statisticalOnly(rating RatingSignal) TrustScore {
	conf := ConfidenceMedium
	if rating.Total < 10 {
		conf = ConfidenceLow
	}
	return TrustScore{
		Weight:               rating.TrustScore,
		StatisticalComponent: rating.TrustScore,
		StatisticalWeight:    1.0,
		SemanticWeight:       0.0,
		Confidence:           conf,
		Reasoning:            "Based on statistical distribution only (no review text available)",
	}
}

func (f *FusionEngine) combined(rating RatingSignal, semantic *SemanticSignal) TrustScore {
	stat := rating.TrustScore
	sem := 1 - semantic.RiskScore

	coverage := 1.0
	if rating.Total > 0 {
		coverage = float64(semantic.TotalAnalyzed) / float64(rating.Total)
		if coverage > 1 {
			coverage = 1
		}
	}
	band := f.band(coverage)

	parts := []string{
		fmt.Sprintf("Combined statistical (%.2f) and semantic (%.2f)", stat, sem),
		fmt.Sprintf("Weights: %.0f%% statistical, %.0f%% semantic", band.StatisticalWeight*100, band.SemanticWeight*100),
		fmt.Sprintf("Coverage: %.0f%% (%s)", coverage*100, band.Label),
	}
	if semantic.CriticalCount > 0 {
		parts = append(parts, fmt.Sprintf("%d critical reviews found", semantic.CriticalCount))
	}
	if semantic.Issues.FakeClaim > 0 {
		parts = append(parts, fmt.Sprintf("%.0f%% mention counterfeit", semantic.Issues.FakeClaim))
	}

	return TrustScore{
		Weight:               stat*band.StatisticalWeight + sem*band.SemanticWeight,
		StatisticalComponent: stat,
		SemanticComponent:    &sem,
		StatisticalWeight:    band.StatisticalWeight,
		SemanticWeight:       band.SemanticWeight,
		Coverage:             &coverage,
		Confidence:           combinedConfidence(rating.Total, semantic),
		Reasoning:            strings.Join(parts, "; "),
	}
}

// band returns the first coverage band whose inclusive lower bound is met.
func (f *FusionEngine) band(coverage float64) CoverageBand {
	for _, b := range f.W.CoverageBands {
		if coverage >= b.MinCoverage {
			return b
		}
	}
	return f.W.CoverageBands[len(f.W.CoverageBands)-1]
}

func combinedConfidence(total int, semantic *SemanticSignal) Confidence {
	switch {
	case total >= 50 && semantic.TotalAnalyzed >= 20 && semantic.AverageConfidence >= 0.8:
		return ConfidenceHigh
	case total >= 20 && semantic.TotalAnalyzed >= 5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
