package pipeline

import (
	"time"

	"github.com/inkguard/inkguard/pkg/listing"
	"github.com/inkguard/inkguard/pkg/scoring"
)

// MaxDescriptionChars caps the listing description carried in an Enriched record.
const MaxDescriptionChars = 500

// Enriched is one listing after the full pipeline: its marketplace data, the
// extracted structure, the per-review judgments and the assessment.
type Enriched struct {
	ListingID     string                   `json:"listing_id"`
	RunID         string                   `json:"run_id,omitempty"`
	Title         string                   `json:"title"`
	Link          string                   `json:"link,omitempty"`
	ImageURL      string                   `json:"image_url,omitempty"`
	FreeShipping  bool                     `json:"free_shipping"`
	Price         float64                  `json:"price"`
	Description   string                   `json:"description,omitempty"`
	Seller        *listing.Seller          `json:"seller,omitempty"`
	Structure     *listing.Decomposition   `json:"structure,omitempty"`
	ExpectedPages int                      `json:"expected_pages"`
	Judgments     []listing.ReviewJudgment `json:"judgments"`
	Assessment    *scoring.Assessment      `json:"assessment"`
	ProcessedAt   time.Time                `json:"processed_at"`
}

// HasSemantic reports whether review text was judged for the listing.
func (e *Enriched) HasSemantic() bool {
	return e.Assessment != nil && e.Assessment.Semantic != nil
}

// Alertable reports whether either risk axis flagged the listing.
func (e *Enriched) Alertable() bool {
	if e.Assessment == nil {
		return false
	}
	return e.Assessment.Verdict == scoring.VerdictHighRisk || e.Assessment.Verdict == scoring.VerdictElevated
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Assessments extracts the non-nil assessments from records.
func Assessments(records []*Enriched) []*scoring.Assessment {
	out := make([]*scoring.Assessment, 0, len(records))
	for _, r := range records {
		if r != nil && r.Assessment != nil {
			out = append(out, r.Assessment)
		}
	}
	return out
}
