package scoring

import (
	"math"

	"github.com/inkguard/inkguard/pkg/listing"
)

// RatingAnalyzer reads trust and anomaly flags off the shape of a star-rating
// histogram. It covers every rating a listing has received, with or without
// text.
type RatingAnalyzer struct {
	W Weights
}

// NewRatingAnalyzer creates a RatingAnalyzer with the given weights.
func NewRatingAnalyzer(w Weights) *RatingAnalyzer {
	return &RatingAnalyzer{W: w}
}

// Analyze computes the rating signal for h. The histogram's counts are
// authoritative for the total; the reported average is used as given.
func (a *RatingAnalyzer) Analyze(h listing.RatingHistogram) RatingSignal {
	total := h.Sum()
	if total <= 0 {
		return RatingSignal{
			Health:     HealthInsufficient,
			TrustScore: 0.5,
			Flags:      []Flag{FlagNoReviews},
		}
	}

	s := RatingSignal{
		HasReviews: true,
		Average:    h.Average,
		Total:      total,
	}

	t := float64(total)
	for star := 1; star <= 5; star++ {
		s.StarPercentages[star-1] = float64(h.Count(star)) / t * 100
	}
	s.PositivePct = float64(h.Four+h.Five) / t * 100
	s.NeutralPct = float64(h.Three) / t * 100
	s.NegativePct = float64(h.One+h.Two) / t * 100

	s.IsBimodal, s.BimodalScore = a.bimodal(h, total)
	s.PolarizationIndex = polarization(h, total)
	s.VolumeConfidence = VolumeConfidence(total)
	s.Health = a.health(s)
	s.TrustScore = a.trust(s)
	s.Flags = a.flags(h, s)

	return s
}

// bimodal scores concentration at both extremes. Below BimodalMinTotal the
// score is always zero.
func (a *RatingAnalyzer) bimodal(h listing.RatingHistogram, total int) (bool, float64) {
	if total < a.W.BimodalMinTotal {
		return false, 0
	}
	p5 := float64(h.Five) / float64(total)
	p1 := float64(h.One) / float64(total)
	score := p5 * p1 * a.W.BimodalScale
	is := p5+p1 > a.W.BimodalExtremeShare && p1 > a.W.BimodalOneStarShare
	return is, score
}

// polarization is the population standard deviation of the star value.
func polarization(h listing.RatingHistogram, total int) float64 {
	t := float64(total)
	var mean float64
	for star := 1; star <= 5; star++ {
		mean += float64(star * h.Count(star))
	}
	mean /= t

	var variance float64
	for star := 1; star <= 5; star++ {
		d := float64(star) - mean
		variance += d * d * float64(h.Count(star))
	}
	return math.Sqrt(variance / t)
}

func (a *RatingAnalyzer) health(s RatingSignal) DistributionHealth {
	switch {
	case s.Total < a.W.InsufficientBelow:
		return HealthInsufficient
	case s.BimodalScore > a.W.SuspiciousThreshold || s.NegativePct > a.W.SuspiciousThreshold:
		return HealthSuspicious
	case s.BimodalScore > a.W.PolarizedThreshold || s.NegativePct > a.W.PolarizedThreshold:
		return HealthPolarized
	case s.Average >= a.W.HealthyMinAverage && s.NegativePct < a.W.HealthyMaxNegative:
		return HealthHealthy
	default:
		return HealthPolarized
	}
}

func (a *RatingAnalyzer) trust(s RatingSignal) float64 {
	negPenalty := math.Min(s.NegativePct/100, a.W.NegativePenaltyCap)
	trust := a.W.RatingAverageWeight*(s.Average/5) +
		a.W.RatingVolumeWeight*s.VolumeConfidence +
		a.W.RatingBimodalWeight*(1-s.BimodalScore/100) +
		a.W.RatingNegativeWeight*(1-negPenalty)
	return clamp01(trust)
}

func (a *RatingAnalyzer) flags(h listing.RatingHistogram, s RatingSignal) []Flag {
	var flags []Flag

	if s.BimodalScore > a.W.SuspiciousThreshold {
		flags = append(flags, FlagBimodal)
	} else if s.BimodalScore > a.W.PolarizedThreshold {
		flags = append(flags, FlagModeratePolarization)
	}

	if s.Average < a.W.HealthyMinAverage && s.Total > 10 {
		flags = append(flags, FlagLowAverageWithVolume)
	}

	if s.NegativePct > a.W.SuspiciousThreshold {
		flags = append(flags, FlagHighNegative)
	} else if s.NegativePct > a.W.PolarizedThreshold {
		flags = append(flags, FlagModerateNegative)
	}

	if s.Total < a.W.InsufficientBelow {
		flags = append(flags, FlagLowVolume)
	}

	if s.Average == 5.0 && s.Total > 50 {
		flags = append(flags, FlagSuspiciouslyPerfect)
	}

	if h.One > 10 && s.Total > 50 {
		flags = append(flags, FlagManyOneStar)
	}

	if len(flags) == 0 {
		return []Flag{FlagNormalDistribution}
	}
	return flags
}
