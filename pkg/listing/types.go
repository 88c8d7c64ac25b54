// Package listing defines the typed input records for the inkguard risk engine.
// These types are the shared vocabulary between the dataset loader, the
// language-understanding collaborators and the scoring core.
package listing

import (
	"encoding/json"
	"strings"
)

// Listing is a single marketplace offer for an ink cartridge product.
type Listing struct {
	ID           string          `json:"id" validate:"required"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	Link         string          `json:"link,omitempty"`
	ImageURL     string          `json:"image_url,omitempty"`
	FreeShipping bool            `json:"free_shipping"`
	Price        float64         `json:"price" validate:"finite,gte=0"`
	SellerID     string          `json:"seller_id,omitempty"`
	Histogram    RatingHistogram `json:"histogram"`
	Reviews      []Review        `json:"reviews,omitempty" validate:"dive"`
	Seller       *Seller         `json:"seller,omitempty"`
}

// ReviewsWithText returns the reviews that carry non-blank text, in order.
func (l *Listing) ReviewsWithText() []Review {
	var out []Review
	for _, r := range l.Reviews {
		if strings.TrimSpace(r.Text) != "" {
			out = append(out, r)
		}
	}
	return out
}

// Review is one customer review as scraped from the marketplace.
type Review struct {
	Number int    `json:"review_number"`
	Rating int    `json:"rating" validate:"gte=0,lte=5"`
	Text   string `json:"text"`
	Date   string `json:"date,omitempty"`
	Likes  int    `json:"likes" validate:"gte=0"`
}

// Seller is the merchant behind a listing.
type Seller struct {
	ID                int64  `json:"id"`
	Nickname          string `json:"nickname"`
	City              string `json:"city,omitempty"`
	State             string `json:"state,omitempty"`
	UserType          string `json:"user_type,omitempty"`
	LevelID           string `json:"level_id,omitempty"`
	PowerSellerStatus string `json:"power_seller_status,omitempty"`
	TotalTransactions int    `json:"total_transactions" validate:"gte=0"`
}

// Color is the normalized cartridge color used for price lookups.
type Color string

const (
	ColorBlack Color = "Black"
	ColorColor Color = "Color"
)

// ParseColor maps free-form color text (Portuguese, English or Spanish) onto
// Black or Color. Anything that does not name black is treated as Color.
func ParseColor(s string) Color {
	lower := strings.ToLower(s)
	for _, kw := range []string{"preto", "black", "negro"} {
		if strings.Contains(lower, kw) {
			return ColorBlack
		}
	}
	return ColorColor
}

// Opposite returns the other color.
func (c Color) Opposite() Color {
	if c == ColorBlack {
		return ColorColor
	}
	return ColorBlack
}

// UnmarshalJSON accepts any color text and normalizes it.
func (c *Color) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = ParseColor(s)
	return nil
}

// BundleItem is one line of a bundle decomposition: a model, a color and how
// many units of it the listing contains.
type BundleItem struct {
	Model    string `json:"model" validate:"required"`
	Color    Color  `json:"color" validate:"omitempty,oneof=Black Color"`
	Quantity int    `json:"quantity" validate:"gte=1"`
}

// Decomposition is the structure extracted from a listing's title and
// description. Confidence and Notes are passed through untouched.
type Decomposition struct {
	IsBundle       bool         `json:"is_bundle"`
	BundleQuantity int          `json:"bundle_quantity" validate:"gte=0"`
	Items          []BundleItem `json:"item_breakdown" validate:"dive"`
	ModelPrimary   string       `json:"model_primary"`
	IsXL           bool         `json:"is_xl"`
	Colors         []string     `json:"colors_in_bundle"`
	Confidence     float64      `json:"confidence" validate:"finite,gte=0,lte=1"`
	Notes          string       `json:"notes,omitempty"`
}

// Quantity is the sum of item quantities.
func (d *Decomposition) Quantity() int {
	var n int
	for _, it := range d.Items {
		n += it.Quantity
	}
	return n
}

// PrimaryColor returns the first listed bundle color, or Black when none is
// listed.
func (d *Decomposition) PrimaryColor() Color {
	if len(d.Colors) == 0 {
		return ColorBlack
	}
	return ParseColor(d.Colors[0])
}

// Sentiment is the overall polarity of a review.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentMixed    Sentiment = "mixed"
)

// Authenticity is what a review says about whether the unit was genuine.
type Authenticity string

const (
	AuthLikelyCounterfeit Authenticity = "likely_counterfeit"
	AuthLikelyAuthentic   Authenticity = "likely_authentic"
	AuthUnclear           Authenticity = "unclear"
	AuthNotRelevant       Authenticity = "not_relevant"
)

// Severity ranks how alarming a single review is.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ReviewJudgment is the structured reading of one review's text. Once produced
// it is treated as immutable evidence.
type ReviewJudgment struct {
	ReviewNumber int `json:"review_number"`
	Rating       int `json:"rating" validate:"gte=0,lte=5"`

	Sentiment      Sentiment    `json:"sentiment" validate:"oneof=positive negative neutral mixed"`
	SentimentScore float64      `json:"sentiment_score" validate:"finite,gte=-1,lte=1"`
	Authenticity   Authenticity `json:"authenticity_signal" validate:"oneof=likely_counterfeit likely_authentic unclear not_relevant"`
	Confidence     float64      `json:"confidence" validate:"finite,gte=0,lte=1"`

	ComplaintCategories []string `json:"complaint_categories"`
	PraiseCategories    []string `json:"praise_categories"`
	CounterfeitKeywords []string `json:"counterfeit_keywords"`
	AuthenticKeywords   []string `json:"authentic_keywords"`

	MentionsShortDuration    bool `json:"mentions_short_duration"`
	MentionsPrinterRejection bool `json:"mentions_printer_rejection"`
	MentionsEmptyCartridge   bool `json:"mentions_empty_cartridge"`
	MentionsLeaking          bool `json:"mentions_leaking"`
	MentionsFakeClaim        bool `json:"mentions_fake_claim"`
	MentionsAuthenticClaim   bool `json:"mentions_authentic_claim"`

	MentionsPageCount   bool   `json:"mentions_page_count"`
	PageCountMentioned  *int   `json:"page_count_mentioned,omitempty" validate:"omitempty,gte=0"`
	PageCountVsExpected string `json:"page_count_vs_expected,omitempty" validate:"omitempty,oneof=much_below below normal above"`

	IsSuspicious bool     `json:"is_suspicious_review"`
	Severity     Severity `json:"severity" validate:"oneof=none low medium high critical"`
	Notes        string   `json:"notes,omitempty"`
}
