package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ProgressReport is how far a checkpointed batch has come.
type ProgressReport struct {
	Completed int         `json:"completed"`
	Total     int         `json:"total"`
	Remaining int         `json:"remaining"`
	Percent   float64     `json:"percent"`
	Last      []*Enriched `json:"last"` // up to three most recently saved records
}

// Progress reads the sink and compares it against the expected total. A
// total of 0 reports only the completed count.
func Progress(ctx context.Context, sink Sink, total int) (ProgressReport, error) {
	all, err := sink.List(ctx)
	if err != nil {
		return ProgressReport{}, fmt.Errorf("list checkpoint: %w", err)
	}

	p := ProgressReport{Completed: len(all), Total: total}
	if total > 0 {
		p.Remaining = max(total-len(all), 0)
		p.Percent = float64(len(all)) / float64(total) * 100
	}
	start := max(len(all)-3, 0)
	p.Last = all[start:]
	return p, nil
}

// Export formats accepted by ExportAnalyzed.
const (
	ExportJSON  = "json"
	ExportJSONL = "jsonl"
	ExportBoth  = "both"
)

// ExportAnalyzed writes the records that carry review-text analysis into
// dir as llm_analyzed_products.jsonl, llm_analyzed_products_pretty.json, or
// both. It returns the paths written and the number of records exported.
func ExportAnalyzed(records []*Enriched, dir, format string) ([]string, int, error) {
	if format != ExportJSON && format != ExportJSONL && format != ExportBoth {
		return nil, 0, fmt.Errorf("unknown export format %q (json, jsonl, both)", format)
	}

	analyzed := []*Enriched{}
	for _, r := range records {
		if r != nil && r.HasSemantic() {
			analyzed = append(analyzed, r)
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, 0, fmt.Errorf("create export directory: %w", err)
	}

	var written []string
	if format == ExportJSONL || format == ExportBoth {
		path := filepath.Join(dir, "llm_analyzed_products.jsonl")
		if err := writeJSONL(path, analyzed); err != nil {
			return nil, 0, err
		}
		written = append(written, path)
	}
	if format == ExportJSON || format == ExportBoth {
		path := filepath.Join(dir, "llm_analyzed_products_pretty.json")
		data, err := json.MarshalIndent(analyzed, "", "  ")
		if err != nil {
			return nil, 0, fmt.Errorf("marshal export: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, 0, fmt.Errorf("write export: %w", err)
		}
		written = append(written, path)
	}
	return written, len(analyzed), nil
}

func writeJSONL(path string, records []*Enriched) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export: %w", err)
	}
	enc := json.NewEncoder(f)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			f.Close()
			return fmt.Errorf("write export: %w", err)
		}
	}
	return f.Close()
}
