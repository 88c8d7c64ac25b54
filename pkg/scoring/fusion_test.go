package scoring_test

import (
	"strings"
	"testing"

	"github.com/inkguard/inkguard/pkg/scoring"
)

func TestFusion_StatisticalOnly(t *testing.T) {
	f := scoring.NewFusionEngine(scoring.Defaults())

	tests := []struct {
		name     string
		total    int
		semantic *scoring.SemanticSignal
		conf     scoring.Confidence
	}{
		{"no semantic, low volume", 8, nil, scoring.ConfidenceLow},
		{"no semantic, volume", 40, nil, scoring.ConfidenceMedium},
		{"zero judged", 40, &scoring.SemanticSignal{TotalAnalyzed: 0, RiskScore: 0.5}, scoring.ConfidenceMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rating := scoring.RatingSignal{Total: tt.total, TrustScore: 0.72}
			ts := f.Fuse(rating, tt.semantic)

			if ts.Weight != 0.72 {
				t.Errorf("expected weight 0.72, got %f", ts.Weight)
			}
			if !approx(ts.Risk, 0.28, 1e-9) {
				t.Errorf("expected risk 0.28, got %f", ts.Risk)
			}
			if ts.StatisticalWeight != 1.0 || ts.SemanticWeight != 0.0 {
				t.Errorf("expected weights (1, 0), got (%f, %f)", ts.StatisticalWeight, ts.SemanticWeight)
			}
			if ts.SemanticComponent != nil {
				t.Error("expected no semantic component")
			}
			if ts.Confidence != tt.conf {
				t.Errorf("expected confidence %s, got %s", tt.conf, ts.Confidence)
			}
			if !strings.Contains(ts.Reasoning, "statistical distribution only") {
				t.Errorf("unexpected reasoning %q", ts.Reasoning)
			}
			if ts.Interpretation != scoring.InterpTrustworthy {
				t.Errorf("expected TRUSTWORTHY, got %s", ts.Interpretation)
			}
		})
	}
}

func TestFusion_CoverageBands(t *testing.T) {
	f := scoring.NewFusionEngine(scoring.Defaults())

	tests := []struct {
		judged   int
		statW    float64
		semW     float64
		coverage float64
	}{
		{10, 0.4, 0.6, 1.0},
		{8, 0.4, 0.6, 0.8},
		{7, 0.5, 0.5, 0.7},
		{5, 0.5, 0.5, 0.5},
		{4, 0.6, 0.4, 0.4},
		{2, 0.6, 0.4, 0.2},
		{1, 0.7, 0.3, 0.1},
		{25, 0.4, 0.6, 1.0}, // more judgments than ratings is capped
	}
	for _, tt := range tests {
		rating := scoring.RatingSignal{Total: 10, TrustScore: 0.8}
		semantic := &scoring.SemanticSignal{TotalAnalyzed: tt.judged, RiskScore: 0.3}
		ts := f.Fuse(rating, semantic)

		if ts.StatisticalWeight != tt.statW || ts.SemanticWeight != tt.semW {
			t.Errorf("judged=%d: expected weights (%.1f, %.1f), got (%.1f, %.1f)",
				tt.judged, tt.statW, tt.semW, ts.StatisticalWeight, ts.SemanticWeight)
		}
		if ts.Coverage == nil || !approx(*ts.Coverage, tt.coverage, 1e-9) {
			t.Errorf("judged=%d: expected coverage %f, got %v", tt.judged, tt.coverage, ts.Coverage)
		}
		want := 0.8*tt.statW + 0.7*tt.semW
		if !approx(ts.Weight, want, 1e-9) {
			t.Errorf("judged=%d: expected weight %f, got %f", tt.judged, want, ts.Weight)
		}
	}
}

func TestFusion_CombinedDetails(t *testing.T) {
	f := scoring.NewFusionEngine(scoring.Defaults())
	rating := scoring.RatingSignal{Total: 4, TrustScore: 0.6}
	semantic := &scoring.SemanticSignal{
		TotalAnalyzed: 4,
		RiskScore:     0.9,
		CriticalCount: 1,
		Issues:        scoring.IssuePercentages{FakeClaim: 25},
	}
	ts := f.Fuse(rating, semantic)

	if ts.SemanticComponent == nil || !approx(*ts.SemanticComponent, 0.1, 1e-9) {
		t.Errorf("expected semantic component 0.1, got %v", ts.SemanticComponent)
	}
	// 0.6*0.4 + 0.1*0.6
	if !approx(ts.Weight, 0.30, 1e-9) {
		t.Errorf("expected weight 0.30, got %f", ts.Weight)
	}
	if ts.Interpretation != scoring.InterpSuspicious {
		t.Errorf("expected SUSPICIOUS, got %s", ts.Interpretation)
	}
	if ts.Confidence != scoring.ConfidenceLow {
		t.Errorf("expected LOW confidence, got %s", ts.Confidence)
	}
	for _, part := range []string{"Weights: 40% statistical, 60% semantic", "Coverage: 100% (high coverage)", "1 critical reviews found", "25% mention counterfeit"} {
		if !strings.Contains(ts.Reasoning, part) {
			t.Errorf("expected reasoning to contain %q, got %q", part, ts.Reasoning)
		}
	}
}

func TestFusion_ZeroTotalCoverage(t *testing.T) {
	f := scoring.NewFusionEngine(scoring.Defaults())
	ts := f.Fuse(scoring.RatingSignal{Total: 0, TrustScore: 0.5}, &scoring.SemanticSignal{TotalAnalyzed: 3, RiskScore: 0.2})
	if ts.Coverage == nil || *ts.Coverage != 1.0 {
		t.Errorf("expected coverage 1.0 when there are no ratings, got %v", ts.Coverage)
	}
	if ts.StatisticalWeight != 0.4 {
		t.Errorf("expected high-coverage band, got statistical weight %f", ts.StatisticalWeight)
	}
}

func TestFusion_Confidence(t *testing.T) {
	f := scoring.NewFusionEngine(scoring.Defaults())

	tests := []struct {
		total   int
		judged  int
		avgConf float64
		want    scoring.Confidence
	}{
		{60, 25, 0.85, scoring.ConfidenceHigh},
		{60, 25, 0.79, scoring.ConfidenceMedium},
		{50, 20, 0.8, scoring.ConfidenceHigh},
		{20, 5, 0.9, scoring.ConfidenceMedium},
		{19, 5, 0.9, scoring.ConfidenceLow},
		{100, 4, 0.9, scoring.ConfidenceLow},
	}
	for _, tt := range tests {
		ts := f.Fuse(
			scoring.RatingSignal{Total: tt.total, TrustScore: 0.7},
			&scoring.SemanticSignal{TotalAnalyzed: tt.judged, AverageConfidence: tt.avgConf, RiskScore: 0.3},
		)
		if ts.Confidence != tt.want {
			t.Errorf("total=%d judged=%d conf=%.2f: expected %s, got %s", tt.total, tt.judged, tt.avgConf, tt.want, ts.Confidence)
		}
	}
}

func TestInterpretWeight(t *testing.T) {
	tests := []struct {
		w    float64
		want scoring.Interpretation
	}{
		{1.0, scoring.InterpHighlyTrustworthy},
		{0.85, scoring.InterpHighlyTrustworthy},
		{0.8499, scoring.InterpTrustworthy},
		{0.70, scoring.InterpTrustworthy},
		{0.50, scoring.InterpModeratelyTrustworthy},
		{0.35, scoring.InterpUncertain},
		{0.20, scoring.InterpSuspicious},
		{0.1999, scoring.InterpHighlySuspicious},
		{0, scoring.InterpHighlySuspicious},
	}
	for _, tt := range tests {
		if got := scoring.InterpretWeight(tt.w); got != tt.want {
			t.Errorf("InterpretWeight(%f) = %s, want %s", tt.w, got, tt.want)
		}
	}
}
