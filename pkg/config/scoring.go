package config

import (
	"fmt"

	"github.com/inkguard/inkguard/pkg/scoring"
)

// Engine builds a scoring engine from the scoring section: default weights
// with configured overrides applied, over the configured reference table.
func (s ScoringConfig) Engine() (*scoring.Engine, error) {
	w := scoring.Defaults()
	if err := w.Apply(s.Overrides()); err != nil {
		return nil, err
	}

	table := scoring.DefaultReferenceTable()
	if s.PriceTable != "" {
		t, err := scoring.LoadReferenceTable(s.PriceTable)
		if err != nil {
			return nil, fmt.Errorf("loading price table: %w", err)
		}
		table = t
	}

	return scoring.NewEngine(w, table)
}
