// Package extract defines the language-understanding collaborators the
// pipeline depends on: reading a listing's bundle structure from its text and
// judging individual review texts. Implementations live in subpackages.
package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/inkguard/inkguard/pkg/listing"
)

// ErrEmptyResponse is returned when a collaborator produced no usable output.
var ErrEmptyResponse = errors.New("empty response")

// StructureExtractor reads the bundle decomposition from a listing's title
// and description.
type StructureExtractor interface {
	ExtractStructure(ctx context.Context, title, description string) (*listing.Decomposition, error)
}

// ReviewClassifier judges one review's text.
type ReviewClassifier interface {
	ClassifyReview(ctx context.Context, review listing.Review, rc ReviewContext) (*listing.ReviewJudgment, error)
}

// ReviewContext is the product information given to the classifier so it can
// judge page-count complaints against the expected yield.
type ReviewContext struct {
	ListingID     string  `json:"listing_id"`
	Title         string  `json:"title"`
	Model         string  `json:"model"`
	IsXL          bool    `json:"is_xl"`
	ExpectedPages int     `json:"expected_pages"`
	Price         float64 `json:"price"`
	Seller        string  `json:"seller,omitempty"`
}

// ClassifyAll judges every review that has text, in order, skipping reviews
// with blank text. The judgment's review number and rating are taken from the
// review. An input with no text yields an empty, non-nil slice.
func ClassifyAll(ctx context.Context, c ReviewClassifier, reviews []listing.Review, rc ReviewContext) ([]listing.ReviewJudgment, error) {
	out := []listing.ReviewJudgment{}
	withText := (&listing.Listing{Reviews: reviews}).ReviewsWithText()
	for _, r := range withText {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		j, err := c.ClassifyReview(ctx, r, rc)
		if err != nil {
			return nil, fmt.Errorf("classifying review %d: %w", r.Number, err)
		}
		if j == nil {
			return nil, fmt.Errorf("classifying review %d: %w", r.Number, ErrEmptyResponse)
		}
		j.ReviewNumber = r.Number
		j.Rating = r.Rating
		out = append(out, *j)
	}
	return out, nil
}
