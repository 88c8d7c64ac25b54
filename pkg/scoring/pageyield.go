package scoring

import (
	"sort"

	"github.com/inkguard/inkguard/pkg/listing"
)

// DefaultPageYield is returned for models missing from the yield table.
const DefaultPageYield = 120

var pageYields = map[PriceKey]int{
	{Model: "664", XL: false, Color: listing.ColorBlack}: 120,
	{Model: "664", XL: false, Color: listing.ColorColor}: 100,
	{Model: "664", XL: true, Color: listing.ColorBlack}:  480,
	{Model: "664", XL: true, Color: listing.ColorColor}:  330,
	{Model: "667", XL: false, Color: listing.ColorBlack}: 120,
	{Model: "667", XL: false, Color: listing.ColorColor}: 100,
	{Model: "667", XL: true, Color: listing.ColorBlack}:  480,
	{Model: "667", XL: true, Color: listing.ColorColor}:  330,
	{Model: "662", XL: false, Color: listing.ColorBlack}: 120,
	{Model: "662", XL: false, Color: listing.ColorColor}: 100,
	{Model: "662", XL: true, Color: listing.ColorBlack}:  360,
	{Model: "662", XL: true, Color: listing.ColorColor}:  330,
}

// ExpectedPages returns the manufacturer page yield for a cartridge. The
// model may carry an XL marker; xl is OR-ed with it.
func ExpectedPages(model string, xl bool, color listing.Color) int {
	base, modelXL := NormalizeModel(model)
	if n, ok := pageYields[PriceKey{Model: base, XL: xl || modelXL, Color: color}]; ok {
		return n
	}
	return DefaultPageYield
}

// ExpectedPagesFor returns the yield of a decomposition's primary cartridge.
func ExpectedPagesFor(d *listing.Decomposition) int {
	if d == nil {
		return DefaultPageYield
	}
	return ExpectedPages(d.ModelPrimary, d.IsXL, d.PrimaryColor())
}

// PageYield is one entry of the yield table.
type PageYield struct {
	Key   PriceKey `json:"key"`
	Pages int      `json:"pages"`
}

// PageYields returns the yield table ordered by model, XL, then color.
func PageYields() []PageYield {
	out := make([]PageYield, 0, len(pageYields))
	for k, n := range pageYields {
		out = append(out, PageYield{Key: k, Pages: n})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Key, out[j].Key
		if a.Model != b.Model {
			return a.Model < b.Model
		}
		if a.XL != b.XL {
			return !a.XL
		}
		return a.Color < b.Color
	})
	return out
}
