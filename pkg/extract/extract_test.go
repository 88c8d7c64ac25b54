package extract_test

import (
	"context"
	"errors"
	"testing"

	"github.com/inkguard/inkguard/pkg/extract"
	"github.com/inkguard/inkguard/pkg/listing"
)

type fakeClassifier struct {
	calls []int
	fail  int
}

func (f *fakeClassifier) ClassifyReview(_ context.Context, r listing.Review, rc extract.ReviewContext) (*listing.ReviewJudgment, error) {
	f.calls = append(f.calls, r.Number)
	if r.Number == f.fail {
		return nil, errors.New("boom")
	}
	return &listing.ReviewJudgment{
		ReviewNumber: 999, // overwritten by ClassifyAll
		Sentiment:    listing.SentimentNeutral,
		Authenticity: listing.AuthUnclear,
		Severity:     listing.SeverityNone,
		Notes:        rc.Model,
	}, nil
}

func TestClassifyAll_SkipsBlankText(t *testing.T) {
	reviews := []listing.Review{
		{Number: 1, Rating: 5, Text: "Ótimo, original"},
		{Number: 2, Rating: 4, Text: "   "},
		{Number: 3, Rating: 1, Text: "Não funcionou"},
		{Number: 4, Rating: 3},
	}
	c := &fakeClassifier{}
	js, err := extract.ClassifyAll(context.Background(), c, reviews, extract.ReviewContext{Model: "664"})
	if err != nil {
		t.Fatalf("ClassifyAll() error: %v", err)
	}
	if len(c.calls) != 2 || c.calls[0] != 1 || c.calls[1] != 3 {
		t.Errorf("expected reviews 1 and 3 to be classified, got %v", c.calls)
	}
	if len(js) != 2 {
		t.Fatalf("expected 2 judgments, got %d", len(js))
	}
	if js[1].ReviewNumber != 3 || js[1].Rating != 1 {
		t.Errorf("expected number/rating stamped from review, got %d/%d", js[1].ReviewNumber, js[1].Rating)
	}
	if js[0].Notes != "664" {
		t.Errorf("expected review context to reach the classifier, got %q", js[0].Notes)
	}
}

func TestClassifyAll_Empty(t *testing.T) {
	js, err := extract.ClassifyAll(context.Background(), &fakeClassifier{}, nil, extract.ReviewContext{})
	if err != nil {
		t.Fatalf("ClassifyAll() error: %v", err)
	}
	if js == nil || len(js) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", js)
	}
}

func TestClassifyAll_Error(t *testing.T) {
	reviews := []listing.Review{{Number: 1, Text: "a"}, {Number: 2, Text: "b"}, {Number: 3, Text: "c"}}
	c := &fakeClassifier{fail: 2}
	_, err := extract.ClassifyAll(context.Background(), c, reviews, extract.ReviewContext{})
	if err == nil {
		t.Fatal("expected an error")
	}
	if len(c.calls) != 2 {
		t.Errorf("expected classification to stop at the failing review, got calls %v", c.calls)
	}
}

func TestClassifyAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := extract.ClassifyAll(ctx, &fakeClassifier{}, []listing.Review{{Number: 1, Text: "a"}}, extract.ReviewContext{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
