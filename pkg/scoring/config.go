package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Weights holds every coefficient and threshold used by the analyzers.
type Weights struct {
	// Rating distribution
	BimodalMinTotal      int     // bimodal detection only runs at or above this many ratings
	BimodalScale         float64 // p5*p1 scaling; 400 maps a 50/50 split to 100
	BimodalExtremeShare  float64 // p5+p1 must exceed this
	BimodalOneStarShare  float64 // p1 must exceed this
	InsufficientBelow    int
	SuspiciousThreshold  float64 // bimodal score or negative percent
	PolarizedThreshold   float64 // bimodal score or negative percent
	HealthyMinAverage    float64
	HealthyMaxNegative   float64
	RatingAverageWeight  float64
	RatingVolumeWeight   float64
	RatingBimodalWeight  float64
	RatingNegativeWeight float64
	NegativePenaltyCap   float64

	// Review judgment aggregation
	SemanticAuthenticityWeight float64
	SemanticSuspiciousWeight   float64
	SemanticIssueWeight        float64
	SemanticSentimentWeight    float64
	TopComplaints              int

	// Fusion, ordered by descending MinCoverage; the last band must start at 0.
	CoverageBands []CoverageBand
}

// CoverageBand selects the statistical/semantic weight pair for a range of
// semantic coverage. MinCoverage is inclusive.
type CoverageBand struct {
	MinCoverage       float64
	StatisticalWeight float64
	SemanticWeight    float64
	Label             string
}

// Defaults returns the default scoring weights.
func Defaults() Weights {
	return Weights{
		BimodalMinTotal:      10,
		BimodalScale:         400,
		BimodalExtremeShare:  0.70,
		BimodalOneStarShare:  0.10,
		InsufficientBelow:    5,
		SuspiciousThreshold:  25,
		PolarizedThreshold:   15,
		HealthyMinAverage:    4.5,
		HealthyMaxNegative:   10,
		RatingAverageWeight:  0.4,
		RatingVolumeWeight:   0.2,
		RatingBimodalWeight:  0.2,
		RatingNegativeWeight: 0.2,
		NegativePenaltyCap:   0.5,

		SemanticAuthenticityWeight: 0.35,
		SemanticSuspiciousWeight:   0.25,
		SemanticIssueWeight:        0.25,
		SemanticSentimentWeight:    0.15,
		TopComplaints:              3,

		CoverageBands: []CoverageBand{
			{MinCoverage: 0.8, StatisticalWeight: 0.4, SemanticWeight: 0.6, Label: "high coverage"},
			{MinCoverage: 0.5, StatisticalWeight: 0.5, SemanticWeight: 0.5, Label: "moderate coverage"},
			{MinCoverage: 0.2, StatisticalWeight: 0.6, SemanticWeight: 0.4, Label: "limited coverage"},
			{MinCoverage: 0, StatisticalWeight: 0.7, SemanticWeight: 0.3, Label: "sparse coverage"},
		},
	}
}

// overrideKeys maps configuration keys to the coefficient they replace.
func (w *Weights) overrideKeys() map[string]*float64 {
	return map[string]*float64{
		"rating.average":          &w.RatingAverageWeight,
		"rating.volume":           &w.RatingVolumeWeight,
		"rating.bimodal":          &w.RatingBimodalWeight,
		"rating.negative":         &w.RatingNegativeWeight,
		"rating.negative_cap":     &w.NegativePenaltyCap,
		"rating.suspicious":       &w.SuspiciousThreshold,
		"rating.polarized":        &w.PolarizedThreshold,
		"rating.healthy_average":  &w.HealthyMinAverage,
		"rating.healthy_negative": &w.HealthyMaxNegative,
		"semantic.authenticity":   &w.SemanticAuthenticityWeight,
		"semantic.suspicious":     &w.SemanticSuspiciousWeight,
		"semantic.issues":         &w.SemanticIssueWeight,
		"semantic.sentiment":      &w.SemanticSentimentWeight,
	}
}

// Apply overlays configured overrides by key. Unknown keys are an error.
func (w *Weights) Apply(overrides map[string]float64) error {
	keys := w.overrideKeys()
	var unknown []string
	for k, v := range overrides {
		ptr, ok := keys[strings.ToLower(k)]
		if !ok {
			unknown = append(unknown, k)
			continue
		}
		*ptr = v
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown scoring weight keys: %s", strings.Join(unknown, ", "))
	}
	return nil
}

// Validate checks that the weight sets are internally consistent.
func (w Weights) Validate() error {
	const eps = 1e-9

	rating := w.RatingAverageWeight + w.RatingVolumeWeight + w.RatingBimodalWeight + w.RatingNegativeWeight
	if math.Abs(rating-1) > eps {
		return fmt.Errorf("rating trust weights must sum to 1, got %.4f", rating)
	}
	semantic := w.SemanticAuthenticityWeight + w.SemanticSuspiciousWeight + w.SemanticIssueWeight + w.SemanticSentimentWeight
	if math.Abs(semantic-1) > eps {
		return fmt.Errorf("semantic risk weights must sum to 1, got %.4f", semantic)
	}
	if w.PolarizedThreshold > w.SuspiciousThreshold {
		return fmt.Errorf("polarized threshold (%.1f) must not exceed suspicious threshold (%.1f)",
			w.PolarizedThreshold, w.SuspiciousThreshold)
	}
	if len(w.CoverageBands) == 0 {
		return fmt.Errorf("at least one coverage band is required")
	}
	for i, b := range w.CoverageBands {
		if math.Abs(b.StatisticalWeight+b.SemanticWeight-1) > eps {
			return fmt.Errorf("coverage band %d weights must sum to 1", i)
		}
		if i > 0 && b.MinCoverage >= w.CoverageBands[i-1].MinCoverage {
			return fmt.Errorf("coverage bands must be ordered by descending minimum coverage")
		}
	}
	if last := w.CoverageBands[len(w.CoverageBands)-1]; last.MinCoverage != 0 {
		return fmt.Errorf("last coverage band must start at 0, got %.2f", last.MinCoverage)
	}
	return nil
}
