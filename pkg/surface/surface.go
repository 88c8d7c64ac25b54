// Package surface defines output rendering for inkguard assessments.
// Implementations handle different output targets: terminal, markdown, JSON, YAML.
package surface

import (
	"fmt"
	"io"

	"github.com/inkguard/inkguard/pkg/scoring"
)

// Renderer produces formatted output from an Assessment.
type Renderer interface {
	// Render writes the formatted assessment to the writer.
	Render(w io.Writer, a *scoring.Assessment) error
}

// ForFormat returns the renderer for a format name.
func ForFormat(format string) (Renderer, error) {
	switch format {
	case "", "terminal", "text":
		return &TerminalRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	case "yaml":
		return &YAMLRenderer{}, nil
	case "markdown", "md":
		return &MarkdownRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want terminal, json, yaml or markdown)", format)
	}
}
