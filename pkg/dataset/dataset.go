package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/inkguard/inkguard/pkg/listing"
	"github.com/inkguard/inkguard/pkg/logging"
	log "github.com/sirupsen/logrus"
)

// Files names the three dataset files.
type Files struct {
	Products string
	Reviews  string
	Sellers  string
}

// Dataset is the loaded raw dataset plus its lookup indexes.
type Dataset struct {
	Products []Product
	Reviews  []ReviewEntry
	Sellers  []Seller

	reviewIndex      map[string]*ReviewEntry
	sellerIndex      map[int64]*Seller
	productsBySeller map[int64][]*Product

	log log.FieldLogger
}

// Load reads the three files and builds the indexes.
func Load(files Files, logger log.FieldLogger) (*Dataset, error) {
	var products struct {
		Produtos []Product `json:"produtos"`
	}
	if err := readJSON(files.Products, &products); err != nil {
		return nil, fmt.Errorf("loading products: %w", err)
	}

	var reviews []ReviewEntry
	if err := readJSON(files.Reviews, &reviews); err != nil {
		return nil, fmt.Errorf("loading reviews: %w", err)
	}

	var sellers struct {
		Vendedores []Seller `json:"dados_vendedores"`
	}
	if err := readJSON(files.Sellers, &sellers); err != nil {
		return nil, fmt.Errorf("loading sellers: %w", err)
	}

	ds := New(products.Produtos, reviews, sellers.Vendedores, logger)
	ds.log.WithFields(log.Fields{
		"products": len(ds.Products),
		"reviews":  len(ds.Reviews),
		"sellers":  len(ds.Sellers),
	}).Info("dataset loaded")
	return ds, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// New indexes already-decoded records. A nil logger discards output.
func New(products []Product, reviews []ReviewEntry, sellers []Seller, logger log.FieldLogger) *Dataset {
	if logger == nil {
		logger = logging.Discard()
	}
	ds := &Dataset{
		Products:         products,
		Reviews:          reviews,
		Sellers:          sellers,
		reviewIndex:      make(map[string]*ReviewEntry, len(reviews)),
		sellerIndex:      make(map[int64]*Seller, len(sellers)),
		productsBySeller: make(map[int64][]*Product),
		log:              logger,
	}
	for i := range ds.Reviews {
		ds.reviewIndex[ds.Reviews[i].ProductID] = &ds.Reviews[i]
	}
	for i := range ds.Sellers {
		ds.sellerIndex[ds.Sellers[i].ID] = &ds.Sellers[i]
	}
	for i := range ds.Products {
		if id, ok := ds.Products[i].SellerID.Int(); ok {
			ds.productsBySeller[id] = append(ds.productsBySeller[id], &ds.Products[i])
		}
	}
	return ds
}

// ReviewsFor returns the review entry for a product.
func (d *Dataset) ReviewsFor(productID string) (*ReviewEntry, bool) {
	e, ok := d.reviewIndex[productID]
	return e, ok
}

// Seller returns the seller with the given id.
func (d *Dataset) Seller(id int64) (*Seller, bool) {
	s, ok := d.sellerIndex[id]
	return s, ok
}

// ProductsBySeller returns the products listed by a seller, in file order.
func (d *Dataset) ProductsBySeller(id int64) []*Product {
	return d.productsBySeller[id]
}

// IntegrityReport lists referential problems in the dataset.
type IntegrityReport struct {
	MissingReviews []string `json:"missing_reviews"` // products with no review entry
	OrphanReviews  []string `json:"orphan_reviews"`  // review entries for unknown products
	OrphanProducts []string `json:"orphan_products"` // empty or non-numeric seller id
	UnknownSellers []int64  `json:"unknown_sellers"`
}

// Clean reports whether no problem was found.
func (r IntegrityReport) Clean() bool {
	return len(r.MissingReviews) == 0 && len(r.OrphanReviews) == 0 &&
		len(r.OrphanProducts) == 0 && len(r.UnknownSellers) == 0
}

// Integrity checks product/review and product/seller references. All lists
// are sorted.
func (d *Dataset) Integrity() IntegrityReport {
	r := IntegrityReport{
		MissingReviews: []string{},
		OrphanReviews:  []string{},
		OrphanProducts: []string{},
		UnknownSellers: []int64{},
	}

	productIDs := make(map[string]bool, len(d.Products))
	unknown := make(map[int64]bool)
	for _, p := range d.Products {
		productIDs[p.ID] = true
		if _, ok := d.reviewIndex[p.ID]; !ok {
			r.MissingReviews = append(r.MissingReviews, p.ID)
		}
		id, ok := p.SellerID.Int()
		if !ok {
			r.OrphanProducts = append(r.OrphanProducts, p.ID)
			continue
		}
		if _, ok := d.sellerIndex[id]; !ok && !unknown[id] {
			unknown[id] = true
			r.UnknownSellers = append(r.UnknownSellers, id)
		}
	}
	for _, e := range d.Reviews {
		if !productIDs[e.ProductID] {
			r.OrphanReviews = append(r.OrphanReviews, e.ProductID)
		}
	}

	sort.Strings(r.MissingReviews)
	sort.Strings(r.OrphanReviews)
	sort.Strings(r.OrphanProducts)
	sort.Slice(r.UnknownSellers, func(i, j int) bool { return r.UnknownSellers[i] < r.UnknownSellers[j] })
	return r
}

// Stats summarizes the dataset.
type Stats struct {
	Products          int `json:"products"`
	ReviewEntries     int `json:"review_entries"`
	Sellers           int `json:"sellers"`
	ProductsWithText  int `json:"products_with_text"`
	IndividualReviews int `json:"individual_reviews"`
	OrphanProducts    int `json:"orphan_products"`
}

// Stats counts products, reviews and sellers.
func (d *Dataset) Stats() Stats {
	s := Stats{
		Products:      len(d.Products),
		ReviewEntries: len(d.Reviews),
		Sellers:       len(d.sellerIndex),
	}
	for _, e := range d.Reviews {
		if e.Extracted > 0 {
			s.ProductsWithText++
		}
		s.IndividualReviews += len(e.Reviews)
	}
	s.OrphanProducts = len(d.Integrity().OrphanProducts)
	return s
}

// Listings joins every product with its reviews and seller. Products whose
// price cannot be parsed are skipped with a warning. A histogram whose
// reported total disagrees with its counts is normalized to the counts.
func (d *Dataset) Listings() []listing.Listing {
	out := make([]listing.Listing, 0, len(d.Products))
	for i := range d.Products {
		l, ok := d.listing(&d.Products[i])
		if ok {
			out = append(out, l)
		}
	}
	return out
}

// Listing joins a single product.
func (d *Dataset) Listing(productID string) (listing.Listing, bool) {
	for i := range d.Products {
		if d.Products[i].ID == productID {
			return d.listing(&d.Products[i])
		}
	}
	return listing.Listing{}, false
}

func (d *Dataset) listing(p *Product) (listing.Listing, bool) {
	entry := d.log.WithField("listing_id", p.ID)
	if !p.Price.Valid {
		entry.WithField("preco", p.Price.Raw).Warn("skipping product with unparseable price")
		return listing.Listing{}, false
	}

	h := listing.RatingHistogram{
		One:     p.Stars1,
		Two:     p.Stars2,
		Three:   p.Stars3,
		Four:    p.Stars4,
		Five:    p.Stars5,
		Total:   p.Total,
		Average: p.Average,
	}
	if n, changed := h.Normalized(); changed {
		entry.WithFields(log.Fields{
			"reported_total": p.Total,
			"counted_total":  n.Total,
		}).Warn("rating total disagrees with star counts, using counts")
		h = n
	}

	l := listing.Listing{
		ID:           p.ID,
		Title:        p.Title,
		Description:  p.Description,
		Link:         p.Link,
		ImageURL:     p.ImageURL,
		FreeShipping: p.FreeShip,
		Price:        p.Price.Value,
		SellerID:     string(p.SellerID),
		Histogram:    h,
	}

	if e, ok := d.reviewIndex[p.ID]; ok {
		l.Reviews = make([]listing.Review, 0, len(e.Reviews))
		for _, r := range e.Reviews {
			l.Reviews = append(l.Reviews, listing.Review{
				Number: r.Number,
				Rating: r.Rating,
				Text:   r.Text,
				Date:   r.Date,
				Likes:  r.Likes,
			})
		}
	}

	if id, ok := p.SellerID.Int(); ok {
		if s, ok := d.sellerIndex[id]; ok {
			l.Seller = &listing.Seller{
				ID:                s.ID,
				Nickname:          s.Nickname,
				City:              s.Address.City,
				State:             s.Address.State,
				UserType:          s.UserType,
				LevelID:           s.Reputation.LevelID,
				PowerSellerStatus: s.Reputation.PowerSellerStatus,
				TotalTransactions: s.Reputation.Transactions.Total,
			}
		}
	}
	return l, true
}
