package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/inkguard/inkguard/pkg/listing"
)

// PriceAnalyzer compares a listed price against the suggested retail price of
// the items the listing contains.
type PriceAnalyzer struct {
	Table *ReferenceTable
}

// NewPriceAnalyzer creates a PriceAnalyzer over table.
func NewPriceAnalyzer(table *ReferenceTable) *PriceAnalyzer {
	return &PriceAnalyzer{Table: table}
}

// Analyze prices a bundle. When no item matches the reference table the
// deviation fields stay nil and the tier is UNKNOWN.
func (a *PriceAnalyzer) Analyze(listedPrice float64, items []listing.BundleItem) PriceSignal {
	var qty int
	for _, it := range items {
		qty += it.Quantity
	}

	s := PriceSignal{
		ListedPrice:    listedPrice,
		BundleQuantity: qty,
		PricePerUnit:   listedPrice,
		Tier:           TierUnknown,
		TotalItems:     len(items),
	}
	if qty > 0 {
		s.PricePerUnit = listedPrice / float64(qty)
	}

	var expected float64
	var matched []ReferenceRow
	for _, it := range items {
		row, fallback, ok := a.match(it)
		if !ok {
			continue
		}
		if fallback {
			s.ColorFallbacks++
		}
		expected += row.PriceBRL * float64(it.Quantity)
		matched = append(matched, row)
	}
	s.MatchedItems = len(matched)

	if len(matched) > 0 {
		dev := listedPrice - expected
		pct := dev / expected * 100
		suggested := expected
		if qty > 0 {
			suggested = expected / float64(qty)
		}
		s.MatchedSKU = matched[0].Code
		s.ExpectedBundlePrice = &expected
		s.SuggestedRetail = &suggested
		s.DeviationAmount = &dev
		s.DeviationPct = &pct
		s.Tier, s.IsSuspicious = TierFromDeviation(pct)
	}

	s.Notes = priceNotes(s)
	return s
}

// match looks an item up by its exact key, then retries Black and Color. The
// second return value reports that the row came from the retry.
func (a *PriceAnalyzer) match(it listing.BundleItem) (ReferenceRow, bool, bool) {
	base, xl := NormalizeModel(it.Model)
	color := listing.ParseColor(string(it.Color))

	if row, ok := a.Table.Lookup(base, xl, color); ok {
		return row, false, true
	}
	for _, c := range []listing.Color{listing.ColorBlack, listing.ColorColor} {
		if row, ok := a.Table.Lookup(base, xl, c); ok {
			return row, true, true
		}
	}
	return ReferenceRow{}, false, false
}

func priceNotes(s PriceSignal) string {
	var notes []string

	if s.BundleQuantity > 1 {
		notes = append(notes, fmt.Sprintf("Bundle of %d cartridges", s.BundleQuantity))
	}

	if s.MatchedItems == 0 {
		notes = append(notes, "Could not match to price table")
	} else if s.MatchedItems != s.TotalItems {
		notes = append(notes, fmt.Sprintf("Partial match: %d/%d items matched", s.MatchedItems, s.TotalItems))
	}

	if s.ColorFallbacks > 0 {
		notes = append(notes, fmt.Sprintf("Color fallback used for %d item(s)", s.ColorFallbacks))
	}

	if s.DeviationPct != nil {
		pct := *s.DeviationPct
		if pct < -30 {
			notes = append(notes, fmt.Sprintf("%.1f%% below retail - SUSPICIOUS", math.Abs(pct)))
		} else if pct > 50 {
			notes = append(notes, fmt.Sprintf("Premium pricing: %.1f%% above retail", pct))
		}
	}

	if len(notes) == 0 {
		return "Normal pricing"
	}
	return strings.Join(notes, "; ")
}
