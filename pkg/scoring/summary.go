package scoring

// Summary aggregates a batch of assessments.
type Summary struct {
	TotalListings           int                    `json:"total_listings"`
	WithSemanticAnalysis    int                    `json:"with_semantic_analysis"`
	SuspiciousByPrice       int                    `json:"suspicious_by_price"`
	SuspiciousByReviews     int                    `json:"suspicious_by_reviews"`
	BimodalDistributions    int                    `json:"bimodal_distributions"`
	CriticalReviews         int                    `json:"critical_reviews"`
	AverageWeight           float64                `json:"average_weight"`
	AverageDeviationPct     float64                `json:"average_deviation_pct"`
	ByInterpretation        map[Interpretation]int `json:"by_interpretation"`
	ByVerdict               map[Verdict]int        `json:"by_verdict"`
	ListingsWithPriceSignal int                    `json:"listings_with_price_signal"`
}

// Summarize computes batch totals. Average deviation covers only listings
// whose price matched the reference table, and is 0 when none did.
func Summarize(assessments []*Assessment) Summary {
	s := Summary{
		ByInterpretation: make(map[Interpretation]int),
		ByVerdict:        make(map[Verdict]int),
	}

	var weightSum, devSum float64
	var devCount int
	for _, a := range assessments {
		if a == nil {
			continue
		}
		s.TotalListings++
		weightSum += a.Trust.Weight
		s.ByInterpretation[a.Trust.Interpretation]++
		s.ByVerdict[a.Verdict]++

		if a.Semantic != nil {
			s.WithSemanticAnalysis++
			s.CriticalReviews += a.Semantic.CriticalCount
		}
		if a.SuspiciousByPrice() {
			s.SuspiciousByPrice++
		}
		if a.SuspiciousByReviews() {
			s.SuspiciousByReviews++
		}
		if a.Rating.IsBimodal {
			s.BimodalDistributions++
		}
		if a.Price != nil {
			s.ListingsWithPriceSignal++
			if a.Price.DeviationPct != nil {
				devSum += *a.Price.DeviationPct
				devCount++
			}
		}
	}

	if s.TotalListings > 0 {
		s.AverageWeight = weightSum / float64(s.TotalListings)
	}
	if devCount > 0 {
		s.AverageDeviationPct = devSum / float64(devCount)
	}
	return s
}
