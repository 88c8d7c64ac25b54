package surface

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/inkguard/inkguard/pkg/scoring"
	"gopkg.in/yaml.v3"
)

// JSONRenderer marshals an Assessment to indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(w io.Writer, a *scoring.Assessment) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}

// YAMLRenderer writes an Assessment as YAML using the JSON field names, in
// declaration order.
type YAMLRenderer struct{}

func (r *YAMLRenderer) Render(w io.Writer, a *scoring.Assessment) error {
	return WriteYAML(w, a)
}

// WriteYAML encodes any JSON-tagged value as block-style YAML.
func WriteYAML(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling: %w", err)
	}

	// JSON is valid YAML; decoding into a node keeps key order.
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("converting to yaml: %w", err)
	}
	resetStyle(&doc)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

func resetStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		resetStyle(c)
	}
}
