package scoring_test

import (
	"math"
	"testing"

	"github.com/inkguard/inkguard/pkg/listing"
	"github.com/inkguard/inkguard/pkg/scoring"
)

const eps = 1e-9

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func hist(one, two, three, four, five int, avg float64) listing.RatingHistogram {
	return listing.NewRatingHistogram([5]int{one, two, three, four, five}, avg)
}

func flagsEqual(got []scoring.Flag, want ...scoring.Flag) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestRatingAnalyzer_NoReviews(t *testing.T) {
	a := scoring.NewRatingAnalyzer(scoring.Defaults())
	s := a.Analyze(hist(0, 0, 0, 0, 0, 4.2))

	if s.TrustScore != 0.5 {
		t.Errorf("expected trust 0.5, got %f", s.TrustScore)
	}
	if s.IsBimodal {
		t.Error("expected is_bimodal false")
	}
	if !flagsEqual(s.Flags, scoring.FlagNoReviews) {
		t.Errorf("expected [NO_REVIEWS], got %v", s.Flags)
	}
	if s.Health != scoring.HealthInsufficient {
		t.Errorf("expected insufficient health, got %s", s.Health)
	}
	if s.VolumeConfidence != 0 || s.Average != 0 || s.HasReviews {
		t.Errorf("expected neutral zero-review signal, got %+v", s)
	}
}

func TestRatingAnalyzer_BimodalScenario(t *testing.T) {
	a := scoring.NewRatingAnalyzer(scoring.Defaults())
	s := a.Analyze(hist(5, 0, 0, 0, 5, 3.0))

	if !approx(s.BimodalScore, 100, eps) {
		t.Errorf("expected bimodal score 100, got %f", s.BimodalScore)
	}
	if !s.IsBimodal {
		t.Error("expected bimodal distribution")
	}
	if s.Health != scoring.HealthSuspicious {
		t.Errorf("expected suspicious health, got %s", s.Health)
	}
	if !approx(s.PolarizationIndex, 2.0, eps) {
		t.Errorf("expected polarization 2.0, got %f", s.PolarizationIndex)
	}
	// 0.4*0.6 + 0.2*0.7 + 0.2*0 + 0.2*0.5
	if !approx(s.TrustScore, 0.48, eps) {
		t.Errorf("expected trust 0.48, got %f", s.TrustScore)
	}
	if !flagsEqual(s.Flags, scoring.FlagBimodal, scoring.FlagHighNegative) {
		t.Errorf("unexpected flags %v", s.Flags)
	}
}

func TestRatingAnalyzer_BimodalVolumeGate(t *testing.T) {
	a := scoring.NewRatingAnalyzer(scoring.Defaults())
	s := a.Analyze(hist(5, 0, 0, 0, 4, 2.8))

	if s.BimodalScore != 0 || s.IsBimodal {
		t.Errorf("expected no bimodal detection below 10 ratings, got score %f bimodal %t", s.BimodalScore, s.IsBimodal)
	}
}

func TestRatingAnalyzer_HealthyListing(t *testing.T) {
	a := scoring.NewRatingAnalyzer(scoring.Defaults())
	s := a.Analyze(hist(1, 1, 1, 1, 37, 4.7))

	if s.Total != 41 {
		t.Errorf("expected total 41, got %d", s.Total)
	}
	if s.Average != 4.7 {
		t.Errorf("expected average passed through as 4.7, got %f", s.Average)
	}
	if !approx(s.NegativePct, 200.0/41, 1e-9) {
		t.Errorf("expected negative pct %f, got %f", 200.0/41, s.NegativePct)
	}
	if !approx(s.BimodalScore, 14800.0/1681, 1e-9) {
		t.Errorf("expected bimodal score %f, got %f", 14800.0/1681, s.BimodalScore)
	}
	if s.IsBimodal {
		t.Error("expected not bimodal: one-star share is below 10%")
	}
	if s.Health != scoring.HealthHealthy {
		t.Errorf("expected healthy, got %s", s.Health)
	}
	if s.VolumeConfidence != 0.9 {
		t.Errorf("expected volume confidence 0.9, got %f", s.VolumeConfidence)
	}
	want := 0.4*(4.7/5) + 0.2*0.9 + 0.2*(1-(14800.0/1681)/100) + 0.2*(1-(200.0/41)/100)
	if !approx(s.TrustScore, want, 1e-9) {
		t.Errorf("expected trust %f, got %f", want, s.TrustScore)
	}
	if !flagsEqual(s.Flags, scoring.FlagNormalDistribution) {
		t.Errorf("expected [NORMAL_DISTRIBUTION], got %v", s.Flags)
	}
}

func TestRatingAnalyzer_Flags(t *testing.T) {
	a := scoring.NewRatingAnalyzer(scoring.Defaults())

	tests := []struct {
		name string
		h    listing.RatingHistogram
		want []scoring.Flag
	}{
		{
			name: "suspiciously perfect",
			h:    hist(0, 0, 0, 0, 60, 5.0),
			want: []scoring.Flag{scoring.FlagSuspiciouslyPerfect},
		},
		{
			name: "many one star",
			h:    hist(12, 0, 0, 0, 40, 4.0),
			want: []scoring.Flag{scoring.FlagBimodal, scoring.FlagLowAverageWithVolume, scoring.FlagModerateNegative, scoring.FlagManyOneStar},
		},
		{
			name: "low volume",
			h:    hist(0, 0, 0, 0, 3, 5.0),
			want: []scoring.Flag{scoring.FlagLowVolume},
		},
		{
			name: "moderate polarization",
			// p5=0.8, p1=0.05 with 40 ratings: score 16
			h:    hist(2, 0, 2, 4, 32, 4.6),
			want: []scoring.Flag{scoring.FlagModeratePolarization},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := a.Analyze(tt.h)
			if !flagsEqual(s.Flags, tt.want...) {
				t.Errorf("expected %v, got %v", tt.want, s.Flags)
			}
		})
	}
}

func TestRatingAnalyzer_HealthOrder(t *testing.T) {
	a := scoring.NewRatingAnalyzer(scoring.Defaults())

	tests := []struct {
		name string
		h    listing.RatingHistogram
		want scoring.DistributionHealth
	}{
		{"insufficient wins", hist(4, 0, 0, 0, 0, 1.0), scoring.HealthInsufficient},
		{"negative above 25", hist(3, 0, 0, 0, 7, 3.8), scoring.HealthSuspicious},
		{"negative above 15", hist(0, 2, 0, 0, 8, 4.2), scoring.HealthPolarized},
		{"healthy", hist(0, 0, 0, 1, 9, 4.9), scoring.HealthHealthy},
		{"low average falls back to polarized", hist(0, 0, 5, 5, 0, 3.5), scoring.HealthPolarized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Analyze(tt.h).Health; got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestRatingAnalyzer_BimodalScoreRange(t *testing.T) {
	a := scoring.NewRatingAnalyzer(scoring.Defaults())

	for one := 0; one <= 12; one += 3 {
		for five := 0; five <= 12; five += 3 {
			for three := 0; three <= 6; three += 3 {
				h := hist(one, 0, three, 0, five, 3.0)
				if h.Total < 10 {
					continue
				}
				s := a.Analyze(h)
				if s.BimodalScore < 0 || s.BimodalScore > 100 {
					t.Errorf("%+v: bimodal score %f out of range", h, s.BimodalScore)
				}
				zero := one == 0 || five == 0
				if (s.BimodalScore == 0) != zero {
					t.Errorf("%+v: bimodal score %f, expected zero=%t", h, s.BimodalScore, zero)
				}
			}
		}
	}
}

func TestRatingAnalyzer_MonotoneInOneStar(t *testing.T) {
	a := scoring.NewRatingAnalyzer(scoring.Defaults())

	// Shift ratings from four stars to one star, total fixed at 20.
	prev := a.Analyze(hist(0, 0, 0, 10, 10, 4.0))
	for moved := 1; moved <= 10; moved++ {
		cur := a.Analyze(hist(moved, 0, 0, 10-moved, 10, 4.0))
		if cur.NegativePct < prev.NegativePct {
			t.Errorf("moved=%d: negative pct decreased %f -> %f", moved, prev.NegativePct, cur.NegativePct)
		}
		if cur.TrustScore > prev.TrustScore+eps {
			t.Errorf("moved=%d: trust increased %f -> %f", moved, prev.TrustScore, cur.TrustScore)
		}
		prev = cur
	}
}

func TestVolumeConfidence(t *testing.T) {
	tests := []struct {
		total int
		want  float64
	}{
		{0, 0}, {1, 0.3}, {4, 0.3}, {5, 0.5}, {9, 0.5}, {10, 0.7}, {29, 0.7}, {30, 0.9}, {99, 0.9}, {100, 1.0}, {5000, 1.0},
	}
	for _, tt := range tests {
		if got := scoring.VolumeConfidence(tt.total); got != tt.want {
			t.Errorf("VolumeConfidence(%d) = %f, want %f", tt.total, got, tt.want)
		}
	}
}
