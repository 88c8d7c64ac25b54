package surface

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/inkguard/inkguard/pkg/scoring"
)

// TerminalRenderer renders an Assessment as colored terminal output.
type TerminalRenderer struct{}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

func verdictColor(v scoring.Verdict) string {
	if noColor() {
		return ""
	}
	switch v {
	case scoring.VerdictLowRisk:
		return colorGreen
	case scoring.VerdictInconclusive:
		return colorYellow
	case scoring.VerdictElevated, scoring.VerdictHighRisk:
		return colorRed
	default:
		return ""
	}
}

func severityColor(s scoring.Severity) string {
	switch s {
	case scoring.SeverityHigh:
		return colorRed
	case scoring.SeverityMedium:
		return colorYellow
	default:
		return ""
	}
}

func noColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

func bold(s string) string {
	if noColor() {
		return s
	}
	return colorBold + s + colorReset
}

func dim(s string) string {
	if noColor() {
		return s
	}
	return colorDim + s + colorReset
}

func colored(s, color string) string {
	if noColor() || color == "" {
		return s
	}
	return color + s + colorReset
}

func (r *TerminalRenderer) Render(w io.Writer, a *scoring.Assessment) error {
	vc := verdictColor(a.Verdict)

	// Header
	fmt.Fprintf(w, "%s\n\n",
		bold(fmt.Sprintf("inkguard: %s - listing %s",
			colored(string(a.Verdict), vc), a.ListingID)))

	// Trust
	t := a.Trust
	fmt.Fprintf(w, "Review trust: %.2f (%s, %s confidence)\n",
		t.Weight, t.Interpretation, t.Confidence)
	fmt.Fprintf(w, "  %s\n", dim(t.Reasoning))

	// Price
	if p := a.Price; p != nil {
		if p.DeviationPct != nil {
			fmt.Fprintf(w, "Price: R$ %.2f vs R$ %.2f expected (%+.1f%%, %s)\n",
				p.ListedPrice, *p.ExpectedBundlePrice, *p.DeviationPct, p.Tier)
		} else {
			fmt.Fprintf(w, "Price: R$ %.2f (%s)\n", p.ListedPrice, p.Tier)
		}
		fmt.Fprintf(w, "  %s\n", dim(p.Notes))
	} else {
		fmt.Fprintf(w, "Price: %s\n", dim("not analyzed"))
	}
	fmt.Fprintln(w)

	// Findings
	fmt.Fprintln(w, "Findings:")
	for _, f := range a.Findings {
		sev := colored(fmt.Sprintf("%-6s", f.Severity), severityColor(f.Severity))
		fmt.Fprintf(w, "  [%s] (%.2f) %s", sev, f.Score, bold(f.Name))

		if len(f.Evidence) > 0 {
			fmt.Fprintf(w, ": %s", f.Evidence[0].Summary)
		}
		fmt.Fprintln(w)

		// Show additional evidence (up to 5 total)
		maxEvidence := 5
		if len(f.Evidence) < maxEvidence {
			maxEvidence = len(f.Evidence)
		}
		for i := 1; i < maxEvidence; i++ {
			for _, line := range wrapText(f.Evidence[i].Summary, 70) {
				fmt.Fprintf(w, "           %s\n", dim(line))
			}
		}
		if len(f.Evidence) > 5 {
			fmt.Fprintf(w, "           %s\n", dim(fmt.Sprintf("... and %d more", len(f.Evidence)-5)))
		}
	}
	fmt.Fprintln(w)

	// Top complaints
	if s := a.Semantic; s != nil && len(s.TopComplaints) > 0 {
		parts := make([]string, len(s.TopComplaints))
		for i, c := range s.TopComplaints {
			parts[i] = fmt.Sprintf("%s (%d)", c.Category, c.Count)
		}
		fmt.Fprintf(w, "Top complaints: %s\n\n", strings.Join(parts, ", "))
	}

	return nil
}

// wrapText wraps a string at the given width, returning lines.
func wrapText(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]

	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
		} else {
			current += " " + word
		}
	}
	lines = append(lines, current)
	return lines
}
