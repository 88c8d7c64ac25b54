package scoring_test

import (
	"testing"

	"github.com/inkguard/inkguard/pkg/listing"
	"github.com/inkguard/inkguard/pkg/scoring"
)

func sampleJudgments() []listing.ReviewJudgment {
	return []listing.ReviewJudgment{
		{
			ReviewNumber: 1, Rating: 5,
			Sentiment: listing.SentimentPositive, SentimentScore: 0.8,
			Authenticity: listing.AuthLikelyAuthentic, Confidence: 0.9,
			PraiseCategories:       []string{"original"},
			AuthenticKeywords:      []string{"original mesmo"},
			MentionsAuthenticClaim: true,
			Severity:               listing.SeverityNone,
		},
		{
			ReviewNumber: 2, Rating: 1,
			Sentiment: listing.SentimentNegative, SentimentScore: -0.9,
			Authenticity: listing.AuthLikelyCounterfeit, Confidence: 0.8,
			ComplaintCategories:      []string{"recognition", "durability"},
			CounterfeitKeywords:      []string{"não reconhece"},
			MentionsPrinterRejection: true,
			IsSuspicious:             true,
			Severity:                 listing.SeverityCritical,
		},
		{
			ReviewNumber: 3, Rating: 1,
			Sentiment: listing.SentimentNegative, SentimentScore: -0.6,
			Authenticity: listing.AuthLikelyCounterfeit, Confidence: 0.7,
			ComplaintCategories:   []string{"durability"},
			CounterfeitKeywords:   []string{"acabou rápido", "não reconhece"},
			MentionsShortDuration: true,
			MentionsFakeClaim:     true,
			IsSuspicious:          true,
			Severity:              listing.SeverityHigh,
		},
		{
			ReviewNumber: 4, Rating: 3,
			Sentiment: listing.SentimentNeutral, SentimentScore: 0.1,
			Authenticity: listing.AuthNotRelevant, Confidence: 0.6,
			ComplaintCategories: []string{"shipping"},
			Severity:            listing.SeverityLow,
		},
	}
}

func TestReviewAggregator_Empty(t *testing.T) {
	a := scoring.NewReviewAggregator(scoring.Defaults())
	s := a.Aggregate(nil)

	if s.RiskScore != 0.5 {
		t.Errorf("expected risk 0.5, got %f", s.RiskScore)
	}
	if s.AuthenticityRatio != 0.5 {
		t.Errorf("expected authenticity ratio 0.5, got %f", s.AuthenticityRatio)
	}
	if s.TotalAnalyzed != 0 || s.SuspiciousCount != 0 || s.CriticalCount != 0 || s.AverageConfidence != 0 {
		t.Errorf("expected zero counts, got %+v", s)
	}
	if s.TopComplaints == nil || s.CounterfeitKeywords == nil || s.AuthenticKeywords == nil || s.ComplaintFrequency == nil {
		t.Error("expected empty, non-nil collections")
	}
	for label, c := range s.SeverityCounts {
		if c != 0 {
			t.Errorf("expected zero severity count for %s, got %d", label, c)
		}
	}
}

func TestReviewAggregator_Sample(t *testing.T) {
	a := scoring.NewReviewAggregator(scoring.Defaults())
	s := a.Aggregate(sampleJudgments())

	if s.TotalAnalyzed != 4 {
		t.Fatalf("expected 4 analyzed, got %d", s.TotalAnalyzed)
	}
	if s.CounterfeitCount != 2 || s.AuthenticCount != 1 || s.UnclearCount != 1 {
		t.Errorf("unexpected authenticity counts: cf=%d auth=%d unclear=%d", s.CounterfeitCount, s.AuthenticCount, s.UnclearCount)
	}
	if !approx(s.AuthenticityRatio, 1.0/3, 1e-9) {
		t.Errorf("expected authenticity ratio 1/3, got %f", s.AuthenticityRatio)
	}
	if !approx(s.AverageSentiment, -0.15, 1e-9) {
		t.Errorf("expected average sentiment -0.15, got %f", s.AverageSentiment)
	}
	if !approx(s.AverageConfidence, 0.75, 1e-9) {
		t.Errorf("expected average confidence 0.75, got %f", s.AverageConfidence)
	}
	if s.SentimentCounts["negative"] != 2 || !approx(s.SentimentPct["negative"], 50, 1e-9) {
		t.Errorf("unexpected negative sentiment stats: %d / %f", s.SentimentCounts["negative"], s.SentimentPct["negative"])
	}

	wantTop := []scoring.CategoryCount{{"durability", 2}, {"recognition", 1}, {"shipping", 1}}
	if len(s.TopComplaints) != len(wantTop) {
		t.Fatalf("expected %d top complaints, got %v", len(wantTop), s.TopComplaints)
	}
	for i := range wantTop {
		if s.TopComplaints[i] != wantTop[i] {
			t.Errorf("top complaint %d: expected %v, got %v", i, wantTop[i], s.TopComplaints[i])
		}
	}

	if len(s.CounterfeitKeywords) != 2 {
		t.Errorf("expected 2 unique counterfeit keywords, got %v", s.CounterfeitKeywords)
	}
	if s.Issues.PrinterRejection != 25 || s.Issues.FakeClaim != 25 || s.Issues.ShortDuration != 25 || s.Issues.AuthenticClaim != 25 {
		t.Errorf("unexpected issue percentages %+v", s.Issues)
	}
	if s.Issues.Leaking != 0 || s.Issues.EmptyCartridge != 0 {
		t.Errorf("expected no leaking/empty mentions, got %+v", s.Issues)
	}
	if s.CriticalCount != 1 || s.HighCount != 1 {
		t.Errorf("expected 1 critical and 1 high, got %d and %d", s.CriticalCount, s.HighCount)
	}
	if s.SuspiciousCount != 2 || s.SuspiciousPct != 50 {
		t.Errorf("expected 2 suspicious (50%%), got %d (%f)", s.SuspiciousCount, s.SuspiciousPct)
	}

	want := 0.35*(2.0/3) + 0.25*0.5 + 0.25*(50.0/200) + 0.15*(1.15/2)
	if !approx(s.RiskScore, want, 1e-9) {
		t.Errorf("expected risk %f, got %f", want, s.RiskScore)
	}
}

func TestReviewAggregator_TopComplaintsTieBreak(t *testing.T) {
	a := scoring.NewReviewAggregator(scoring.Defaults())
	var js []listing.ReviewJudgment
	for _, c := range []string{"quality", "leaking", "price", "empty"} {
		js = append(js, listing.ReviewJudgment{
			Sentiment:           listing.SentimentNegative,
			Authenticity:        listing.AuthUnclear,
			Severity:            listing.SeverityLow,
			ComplaintCategories: []string{c},
		})
	}
	js = append(js, listing.ReviewJudgment{
		Sentiment:           listing.SentimentNegative,
		Authenticity:        listing.AuthUnclear,
		Severity:            listing.SeverityLow,
		ComplaintCategories: []string{"empty"},
	})

	s := a.Aggregate(js)
	got := []string{}
	for _, c := range s.TopComplaints {
		got = append(got, c.Category)
	}
	want := []string{"empty", "quality", "leaking"}
	if len(got) != 3 || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestReviewAggregator_RiskClamped(t *testing.T) {
	a := scoring.NewReviewAggregator(scoring.Defaults())
	worst := listing.ReviewJudgment{
		Sentiment: listing.SentimentNegative, SentimentScore: -1,
		Authenticity:             listing.AuthLikelyCounterfeit,
		MentionsPrinterRejection: true,
		MentionsFakeClaim:        true,
		IsSuspicious:             true,
		Severity:                 listing.SeverityCritical,
	}
	s := a.Aggregate([]listing.ReviewJudgment{worst, worst})
	if !approx(s.RiskScore, 1.0, 1e-9) {
		t.Errorf("expected maximum risk 1.0, got %f", s.RiskScore)
	}
	if s.AuthenticityRatio != 0 {
		t.Errorf("expected authenticity ratio 0, got %f", s.AuthenticityRatio)
	}
}
