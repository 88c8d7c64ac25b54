package surface

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/inkguard/inkguard/pkg/scoring"
)

// RenderSummary writes a batch summary as aligned text.
func RenderSummary(w io.Writer, s scoring.Summary) error {
	fmt.Fprintln(w, bold("Batch summary"))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  Listings\t%d\n", s.TotalListings)
	fmt.Fprintf(tw, "  With review text analysis\t%d\n", s.WithSemanticAnalysis)
	fmt.Fprintf(tw, "  Suspicious by price\t%d\n", s.SuspiciousByPrice)
	fmt.Fprintf(tw, "  Suspicious by reviews\t%d\n", s.SuspiciousByReviews)
	fmt.Fprintf(tw, "  Bimodal distributions\t%d\n", s.BimodalDistributions)
	fmt.Fprintf(tw, "  Critical reviews\t%d\n", s.CriticalReviews)
	fmt.Fprintf(tw, "  Average trust weight\t%.3f\n", s.AverageWeight)
	fmt.Fprintf(tw, "  Average price deviation\t%+.1f%%\n", s.AverageDeviationPct)
	if err := tw.Flush(); err != nil {
		return err
	}

	if s.TotalListings > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "By interpretation:")
		for _, i := range scoring.Interpretations {
			if n := s.ByInterpretation[i]; n > 0 {
				fmt.Fprintf(w, "  %-24s %d\n", i, n)
			}
		}
	}
	return nil
}

// RenderReferenceTable writes the reference price rows and page yields.
func RenderReferenceTable(w io.Writer, rows []scoring.ReferenceRow, yields []scoring.PageYield) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tSERIES\tPRODUCT\tPAGES\tPRICE (BRL)")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.2f\n", r.Code, r.Series, r.Product, r.Pages, r.PriceBRL)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CARTRIDGE\tEXPECTED PAGES")
	for _, y := range yields {
		fmt.Fprintf(tw, "%s\t%d\n", y.Key, y.Pages)
	}
	return tw.Flush()
}
