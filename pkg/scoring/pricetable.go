package scoring

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/inkguard/inkguard/pkg/listing"
)

// ReferenceRow is one manufacturer-suggested retail entry.
type ReferenceRow struct {
	Code     string  `yaml:"code" json:"code"`
	Series   string  `yaml:"series" json:"series"`
	Product  string  `yaml:"product" json:"product"`
	Pages    int     `yaml:"pages" json:"pages"`
	PriceBRL float64 `yaml:"price_brl" json:"price_brl"`
}

// Key derives the lookup key for the row: the series number, whether the
// product is an XL cartridge, and its color.
func (r ReferenceRow) Key() PriceKey {
	base, _ := NormalizeModel(r.Series)
	return PriceKey{
		Model: base,
		XL:    strings.Contains(strings.ToUpper(r.Product), "XL"),
		Color: listing.ParseColor(r.Product),
	}
}

// PriceKey identifies a reference row.
type PriceKey struct {
	Model string        `json:"model"`
	XL    bool          `json:"xl"`
	Color listing.Color `json:"color"`
}

func (k PriceKey) String() string {
	xl := ""
	if k.XL {
		xl = "XL"
	}
	return fmt.Sprintf("%s%s/%s", k.Model, xl, k.Color)
}

// ReferenceTable is a static, read-only lookup of suggested retail prices.
type ReferenceTable struct {
	rows   []ReferenceRow
	lookup map[PriceKey]ReferenceRow
}

// DefaultReferenceRows returns the built-in HP 664 suggested retail prices.
func DefaultReferenceRows() []ReferenceRow {
	return []ReferenceRow{
		{Code: "F6V28AB", Series: "HP 664", Product: "HP 664 Tri-color", Pages: 100, PriceBRL: 74.90},
		{Code: "F6V29AB", Series: "HP 664", Product: "HP 664 Preto", Pages: 120, PriceBRL: 69.90},
		{Code: "F6V30AB", Series: "HP 664", Product: "HP 664XL Tri-color", Pages: 330, PriceBRL: 172.90},
		{Code: "F6V31AB", Series: "HP 664", Product: "HP 664XL Preto", Pages: 480, PriceBRL: 172.90},
	}
}

// DefaultReferenceTable returns the built-in table.
func DefaultReferenceTable() *ReferenceTable {
	t, err := NewReferenceTable(DefaultReferenceRows())
	if err != nil {
		panic(fmt.Sprintf("built-in reference table is invalid: %v", err))
	}
	return t
}

// NewReferenceTable indexes rows by key. Rows must carry a code and a
// positive price, and no two rows may share a key.
func NewReferenceTable(rows []ReferenceRow) (*ReferenceTable, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("reference table has no rows")
	}
	t := &ReferenceTable{
		rows:   make([]ReferenceRow, len(rows)),
		lookup: make(map[PriceKey]ReferenceRow, len(rows)),
	}
	copy(t.rows, rows)
	for i, r := range rows {
		if r.Code == "" {
			return nil, fmt.Errorf("row %d: code is required", i)
		}
		if !(r.PriceBRL > 0) {
			return nil, fmt.Errorf("row %d (%s): price must be positive", i, r.Code)
		}
		k := r.Key()
		if k.Model == "" {
			return nil, fmt.Errorf("row %d (%s): series has no model number", i, r.Code)
		}
		if prev, dup := t.lookup[k]; dup {
			return nil, fmt.Errorf("rows %s and %s share key %s", prev.Code, r.Code, k)
		}
		t.lookup[k] = r
	}
	return t, nil
}

type referenceFile struct {
	Rows []ReferenceRow `yaml:"rows"`
}

// LoadReferenceTable reads a YAML file of the form `rows: [{code, series,
// product, pages, price_brl}, ...]`.
func LoadReferenceTable(path string) (*ReferenceTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading reference table: %w", err)
	}
	var f referenceFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing reference table: %w", err)
	}
	t, err := NewReferenceTable(f.Rows)
	if err != nil {
		return nil, fmt.Errorf("reference table %s: %w", path, err)
	}
	return t, nil
}

// Rows returns a copy of the table rows in their original order.
func (t *ReferenceTable) Rows() []ReferenceRow {
	out := make([]ReferenceRow, len(t.rows))
	copy(out, t.rows)
	return out
}

// Lookup finds the row for a normalized key.
func (t *ReferenceTable) Lookup(model string, xl bool, color listing.Color) (ReferenceRow, bool) {
	r, ok := t.lookup[PriceKey{Model: model, XL: xl, Color: color}]
	return r, ok
}

// NormalizeModel removes spaces, a leading "HP" brand prefix and the XL
// marker from a model string, reporting whether XL was present.
// "664XL" -> ("664", true); "HP 664" -> ("664", false).
func NormalizeModel(model string) (string, bool) {
	m := strings.ToUpper(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, model))
	m = strings.TrimPrefix(m, "HP")
	xl := strings.Contains(m, "XL")
	m = strings.ReplaceAll(m, "XL", "")
	return m, xl
}
