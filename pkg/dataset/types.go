// Package dataset loads the raw marketplace dataset (products, reviews and
// sellers as scraped) and joins it into typed listings.
package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Product is one entry of the products file. Keys follow the scraper's
// Portuguese naming.
type Product struct {
	ID          string  `json:"id"`
	Title       string  `json:"titulo"`
	Description string  `json:"descricao"`
	Link        string  `json:"link"`
	Price       Price   `json:"preco"`
	ImageURL    string  `json:"imagem_url"`
	FreeShip    bool    `json:"frete_gratis"`
	SellerID    FlexID  `json:"seller_id"`
	Average     float64 `json:"rating_medio"`
	Total       int     `json:"total_reviews"`
	Stars1      int     `json:"rating_1_estrela"`
	Stars2      int     `json:"rating_2_estrelas"`
	Stars3      int     `json:"rating_3_estrelas"`
	Stars4      int     `json:"rating_4_estrelas"`
	Stars5      int     `json:"rating_5_estrelas"`
}

// ReviewEntry holds the reviews extracted for one product.
type ReviewEntry struct {
	ProductID string      `json:"product_id"`
	Extracted int         `json:"total_reviews_extracted"`
	Reviews   []RawReview `json:"reviews"`
}

// RawReview is a single scraped review.
type RawReview struct {
	Number int    `json:"review_number"`
	Rating int    `json:"rating"`
	Text   string `json:"text"`
	Date   string `json:"date"`
	Likes  int    `json:"likes"`
}

// Seller is one entry of the sellers file.
type Seller struct {
	ID       int64  `json:"id"`
	Nickname string `json:"nickname"`
	UserType string `json:"user_type"`
	Address  struct {
		City  string `json:"city"`
		State string `json:"state"`
	} `json:"address"`
	Reputation struct {
		LevelID           string `json:"level_id"`
		PowerSellerStatus string `json:"power_seller_status"`
		Transactions      struct {
			Total int `json:"total"`
		} `json:"transactions"`
	} `json:"seller_reputation"`
}

// Price is a listing price that the scraper emits either as a JSON number or
// as a string ("59.90", "1.234,56", "R$ 59,90").
type Price struct {
	Raw   string
	Value float64
	Valid bool
}

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = Price{}
		return nil
	}
	if len(data) > 0 && data[0] != '"' {
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("parsing price %s: %w", data, err)
		}
		*p = Price{Raw: string(data), Value: f, Valid: true}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParsePrice(s)
	*p = Price{Raw: s, Value: v, Valid: err == nil}
	return nil
}

func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return json.Marshal(p.Raw)
	}
	return json.Marshal(p.Value)
}

// ParsePrice parses a price string. A comma followed by at most two digits
// at the end is taken as the decimal separator, with dots as thousands
// separators.
func ParsePrice(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return 0, fmt.Errorf("empty price")
	}
	if i := strings.LastIndex(s, ","); i >= 0 && len(s)-i-1 <= 2 {
		s = strings.ReplaceAll(s[:i], ".", "") + "." + s[i+1:]
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing price %q: %w", s, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative price %q", s)
	}
	return v, nil
}

// FlexID is a seller reference that may arrive as a string or a number.
// Empty means the product has no seller.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("parsing seller id %s: %w", data, err)
	}
	*f = FlexID(n.String())
	return nil
}

// Int returns the numeric seller id, or false for empty or malformed ids.
func (f FlexID) Int() (int64, bool) {
	if f == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(string(f), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
