package llm

import (
	"fmt"
	"strings"

	"github.com/inkguard/inkguard/pkg/extract"
	"github.com/inkguard/inkguard/pkg/listing"
)

const jsonOnly = `Return ONLY valid JSON. No markdown, no explanations. Start with { and end with }.`

const structureSystemPrompt = `You analyze HP printer cartridge listings from a Brazilian marketplace.
Extract bundle, model and color information precisely. Listings are usually in Portuguese.
` + jsonOnly

func structurePrompt(title, description string) string {
	return fmt.Sprintf(`Analyze this HP cartridge listing.

TITLE: %s

DESCRIPTION: %s

Return a JSON object with:
- "is_bundle": true for kits with more than one cartridge
- "bundle_quantity": total cartridges in the package (1 for a single unit)
- "item_breakdown": array of {"model", "color", "quantity"}; model such as "664" or "664XL",
  color "Preto" for black or "Colorido" for tri-color
- "model_primary": the main model, e.g. "664XL"
- "is_xl": whether the cartridges are XL
- "colors_in_bundle": colors included, e.g. ["Preto", "Colorido"]
- "confidence": 0.0 to 1.0, lower when the listing is ambiguous
- "notes": ambiguities or special cases

Example for "Kit 2 Cartuchos HP 664XL Preto + Color":
{"is_bundle": true, "bundle_quantity": 2, "item_breakdown": [{"model": "664XL", "color": "Preto", "quantity": 1}, {"model": "664XL", "color": "Colorido", "quantity": 1}], "model_primary": "664XL", "is_xl": true, "colors_in_bundle": ["Preto", "Colorido"], "confidence": 1.0, "notes": ""}`,
		title, description)
}

func reviewSystemPrompt(rc extract.ReviewContext) string {
	var sb strings.Builder
	sb.WriteString(`You detect counterfeit HP printer cartridges from Brazilian customer reviews written in Portuguese.
Counterfeiters sell refilled cartridges claimed as original, empty cartridges, and fakes the printer rejects.
Separate product quality and shipping complaints from authenticity signals.

Expected yields for genuine cartridges: HP 664 black about 120 pages, HP 664 color about 100,
HP 664XL black about 480, HP 664XL color about 330. A review reporting far fewer pages suggests less ink.
`)
	if rc.ExpectedPages > 0 {
		fmt.Fprintf(&sb, "\nTHIS PRODUCT should yield approximately %d pages.\n", rc.ExpectedPages)
	}
	sb.WriteString(jsonOnly)
	return sb.String()
}

func reviewPrompt(r listing.Review, rc extract.ReviewContext) string {
	size := "Regular"
	if rc.IsXL {
		size = "XL"
	}
	seller := rc.Seller
	if seller == "" {
		seller = "Unknown"
	}

	return fmt.Sprintf(`Analyze this review of an HP printer cartridge.

REVIEW:
- Rating: %d out of 5
- Date: %s
- Found useful by: %d
- Text: %q

PRODUCT:
- Title: %s
- Model: %s %s
- Expected page yield: %d
- Price: R$ %.2f
- Seller: %s

Return a JSON object with:
- "sentiment": positive, negative, neutral or mixed
- "sentiment_score": -1.0 to 1.0
- "authenticity_signal": likely_counterfeit, likely_authentic, unclear or not_relevant
- "confidence": 0.0 to 1.0
- "complaint_categories": from durability, recognition, quality, leaking, empty, defective, price, shipping, packaging, other
- "praise_categories": from quality, original, value, durability, shipping
- "counterfeit_keywords": exact phrases suggesting a fake
- "authentic_keywords": exact phrases suggesting a genuine product
- "mentions_short_duration", "mentions_printer_rejection", "mentions_empty_cartridge",
  "mentions_leaking", "mentions_fake_claim", "mentions_authentic_claim", "mentions_page_count": booleans
- "page_count_mentioned": the number of pages mentioned, or null
- "page_count_vs_expected": much_below, below, normal or above, or null
- "is_suspicious_review": true when the review points to a counterfeit
- "severity": none, low, medium, high or critical
- "notes": short free text`,
		r.Rating, r.Date, r.Likes, r.Text,
		rc.Title, rc.Model, size, rc.ExpectedPages, rc.Price, seller)
}
