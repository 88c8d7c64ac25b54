package listing

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SaveListings writes listings to disk as an indented JSON array.
func SaveListings(path string, listings []Listing) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for listings: %w", err)
	}

	data, err := json.MarshalIndent(listings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling listings: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing listings: %w", err)
	}

	return nil
}

// LoadListings reads a JSON array of listings from disk. A file holding a
// single listing object is accepted too.
func LoadListings(path string) ([]Listing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading listings: %w", err)
	}

	var listings []Listing
	if err := json.Unmarshal(data, &listings); err == nil {
		return listings, nil
	}

	var single Listing
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("unmarshaling listings: %w", err)
	}
	return []Listing{single}, nil
}

// LoadDecomposition reads a bundle decomposition from disk.
func LoadDecomposition(path string) (*Decomposition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading decomposition: %w", err)
	}

	var d Decomposition
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("unmarshaling decomposition: %w", err)
	}
	return &d, nil
}

// LoadJudgments reads a JSON array of review judgments from disk.
func LoadJudgments(path string) ([]ReviewJudgment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading judgments: %w", err)
	}

	var js []ReviewJudgment
	if err := json.Unmarshal(data, &js); err != nil {
		return nil, fmt.Errorf("unmarshaling judgments: %w", err)
	}
	return js, nil
}
