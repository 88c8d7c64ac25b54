package scoring

import (
	"sort"

	"github.com/inkguard/inkguard/pkg/listing"
)

// ReviewAggregator rolls per-review judgments up into one product-level
// semantic signal.
type ReviewAggregator struct {
	W Weights
}

// NewReviewAggregator creates a ReviewAggregator with the given weights.
func NewReviewAggregator(w Weights) *ReviewAggregator {
	return &ReviewAggregator{W: w}
}

var (
	sentimentLabels    = []listing.Sentiment{listing.SentimentPositive, listing.SentimentNegative, listing.SentimentNeutral, listing.SentimentMixed}
	authenticityLabels = []listing.Authenticity{listing.AuthLikelyCounterfeit, listing.AuthLikelyAuthentic, listing.AuthUnclear, listing.AuthNotRelevant}
	severityLabels     = []listing.Severity{listing.SeverityNone, listing.SeverityLow, listing.SeverityMedium, listing.SeverityHigh, listing.SeverityCritical}
)

// emptySemantic is the neutral signal for a listing with no judged reviews.
func emptySemantic() SemanticSignal {
	s := SemanticSignal{
		SentimentCounts:     make(map[string]int, len(sentimentLabels)),
		SentimentPct:        make(map[string]float64, len(sentimentLabels)),
		AuthenticityCounts:  make(map[string]int, len(authenticityLabels)),
		AuthenticityRatio:   0.5,
		ComplaintFrequency:  map[string]int{},
		TopComplaints:       []CategoryCount{},
		CounterfeitKeywords: []string{},
		AuthenticKeywords:   []string{},
		SeverityCounts:      make(map[string]int, len(severityLabels)),
		RiskScore:           0.5,
	}
	for _, l := range sentimentLabels {
		s.SentimentCounts[string(l)] = 0
		s.SentimentPct[string(l)] = 0
	}
	for _, l := range authenticityLabels {
		s.AuthenticityCounts[string(l)] = 0
	}
	for _, l := range severityLabels {
		s.SeverityCounts[string(l)] = 0
	}
	return s
}

// Aggregate computes the semantic signal. An empty slice yields the neutral
// signal (risk 0.5, authenticity ratio 0.5), never an error.
func (a *ReviewAggregator) Aggregate(judgments []listing.ReviewJudgment) SemanticSignal {
	s := emptySemantic()
	if len(judgments) == 0 {
		return s
	}

	total := len(judgments)
	n := float64(total)
	s.TotalAnalyzed = total

	var sentimentSum, confidenceSum float64
	var shortDur, rejection, empty, leaking, fake, authClaim int
	var complaintOrder []string
	cfKeywords := newOrderedSet()
	authKeywords := newOrderedSet()

	for _, j := range judgments {
		s.SentimentCounts[string(j.Sentiment)]++
		s.AuthenticityCounts[string(j.Authenticity)]++
		s.SeverityCounts[string(j.Severity)]++
		sentimentSum += j.SentimentScore
		confidenceSum += j.Confidence

		for _, c := range j.ComplaintCategories {
			if _, seen := s.ComplaintFrequency[c]; !seen {
				complaintOrder = append(complaintOrder, c)
			}
			s.ComplaintFrequency[c]++
		}
		cfKeywords.add(j.CounterfeitKeywords...)
		authKeywords.add(j.AuthenticKeywords...)

		if j.MentionsShortDuration {
			shortDur++
		}
		if j.MentionsPrinterRejection {
			rejection++
		}
		if j.MentionsEmptyCartridge {
			empty++
		}
		if j.MentionsLeaking {
			leaking++
		}
		if j.MentionsFakeClaim {
			fake++
		}
		if j.MentionsAuthenticClaim {
			authClaim++
		}
		if j.IsSuspicious {
			s.SuspiciousCount++
		}
	}

	for label, c := range s.SentimentCounts {
		s.SentimentPct[label] = float64(c) / n * 100
	}
	s.AverageSentiment = sentimentSum / n
	s.AverageConfidence = confidenceSum / n

	s.CounterfeitCount = s.AuthenticityCounts[string(listing.AuthLikelyCounterfeit)]
	s.AuthenticCount = s.AuthenticityCounts[string(listing.AuthLikelyAuthentic)]
	s.UnclearCount = s.AuthenticityCounts[string(listing.AuthUnclear)] + s.AuthenticityCounts[string(listing.AuthNotRelevant)]
	if signal := s.CounterfeitCount + s.AuthenticCount; signal > 0 {
		s.AuthenticityRatio = float64(s.AuthenticCount) / float64(signal)
	}

	s.TopComplaints = topCategories(s.ComplaintFrequency, complaintOrder, a.W.TopComplaints)
	s.CounterfeitKeywords = cfKeywords.items
	s.AuthenticKeywords = authKeywords.items

	s.Issues = IssuePercentages{
		ShortDuration:    float64(shortDur) / n * 100,
		PrinterRejection: float64(rejection) / n * 100,
		EmptyCartridge:   float64(empty) / n * 100,
		Leaking:          float64(leaking) / n * 100,
		FakeClaim:        float64(fake) / n * 100,
		AuthenticClaim:   float64(authClaim) / n * 100,
	}

	s.CriticalCount = s.SeverityCounts[string(listing.SeverityCritical)]
	s.HighCount = s.SeverityCounts[string(listing.SeverityHigh)]
	s.SuspiciousPct = float64(s.SuspiciousCount) / n * 100

	s.RiskScore = a.risk(s)
	return s
}

func (a *ReviewAggregator) risk(s SemanticSignal) float64 {
	auth := 0.5
	if signal := s.CounterfeitCount + s.AuthenticCount; signal > 0 {
		auth = float64(s.CounterfeitCount) / float64(signal)
	}
	susp := float64(s.SuspiciousCount) / float64(s.TotalAnalyzed)
	critical := (s.Issues.PrinterRejection + s.Issues.FakeClaim) / 200
	sentiment := (1 - s.AverageSentiment) / 2

	return clamp01(a.W.SemanticAuthenticityWeight*auth +
		a.W.SemanticSuspiciousWeight*susp +
		a.W.SemanticIssueWeight*critical +
		a.W.SemanticSentimentWeight*sentiment)
}

// topCategories ranks by count descending; ties keep first-seen order.
func topCategories(freq map[string]int, order []string, limit int) []CategoryCount {
	out := make([]CategoryCount, 0, len(order))
	for _, c := range order {
		out = append(out, CategoryCount{Category: c, Count: freq[c]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

type orderedSet struct {
	seen  map[string]bool
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]bool), items: []string{}}
}

func (o *orderedSet) add(vals ...string) {
	for _, v := range vals {
		if v == "" || o.seen[v] {
			continue
		}
		o.seen[v] = true
		o.items = append(o.items, v)
	}
}
