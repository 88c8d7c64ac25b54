package surface

import (
	"fmt"
	"io"
	"strings"

	"github.com/inkguard/inkguard/pkg/scoring"
)

// MarkdownRenderer produces a markdown report, suitable for issue trackers
// and chat messages.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Render(w io.Writer, a *scoring.Assessment) error {
	_, err := io.WriteString(w, BuildMarkdown(a))
	return err
}

// BuildMarkdown renders the assessment as a markdown document.
func BuildMarkdown(a *scoring.Assessment) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## inkguard: %s (listing %s)\n\n", a.Verdict, a.ListingID))

	// Signals
	sb.WriteString("### Signals\n\n")
	sb.WriteString("| Signal | Value |\n|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Review trust | %.2f (%s) |\n", a.Trust.Weight, a.Trust.Interpretation))
	sb.WriteString(fmt.Sprintf("| Confidence | %s |\n", a.Trust.Confidence))
	sb.WriteString(fmt.Sprintf("| Ratings | %d (avg %.2f, %s) |\n", a.Rating.Total, a.Rating.Average, a.Rating.Health))
	if a.Semantic != nil {
		sb.WriteString(fmt.Sprintf("| Reviews analyzed | %d (risk %.2f) |\n", a.Semantic.TotalAnalyzed, a.Semantic.RiskScore))
	}
	if p := a.Price; p != nil && p.DeviationPct != nil {
		sb.WriteString(fmt.Sprintf("| Price | R$ %.2f vs R$ %.2f (%+.1f%%, %s) |\n",
			p.ListedPrice, *p.ExpectedBundlePrice, *p.DeviationPct, p.Tier))
	}
	sb.WriteString("\n")

	// Findings
	sb.WriteString("### Findings\n\n")
	for _, f := range a.Findings {
		sb.WriteString(fmt.Sprintf("- %s **%s** (%.2f) - %s\n",
			severityIcon(f.Severity), f.Name, f.Score, f.Severity))

		// Show top 3 evidence items
		maxEv := 3
		if len(f.Evidence) < maxEv {
			maxEv = len(f.Evidence)
		}
		for i := 0; i < maxEv; i++ {
			sb.WriteString(fmt.Sprintf("  - %s\n", f.Evidence[i].Summary))
		}
	}
	sb.WriteString("\n")

	if a.Trust.Reasoning != "" {
		sb.WriteString("### Reasoning\n\n")
		sb.WriteString(a.Trust.Reasoning)
		sb.WriteString("\n")
	}

	return sb.String()
}

func severityIcon(sev scoring.Severity) string {
	switch sev {
	case scoring.SeverityHigh:
		return ":red_circle:"
	case scoring.SeverityMedium:
		return ":orange_circle:"
	case scoring.SeverityLow:
		return ":yellow_circle:"
	default:
		return ":blue_circle:"
	}
}
