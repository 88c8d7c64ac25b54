package listing

// RatingHistogram holds star-rating counts for a listing. Total is the sum of
// the five counts; Average is carried as reported by the marketplace and is
// never derived from the counts.
type RatingHistogram struct {
	One     int     `json:"one" validate:"gte=0"`
	Two     int     `json:"two" validate:"gte=0"`
	Three   int     `json:"three" validate:"gte=0"`
	Four    int     `json:"four" validate:"gte=0"`
	Five    int     `json:"five" validate:"gte=0"`
	Total   int     `json:"total" validate:"gte=0"`
	Average float64 `json:"average" validate:"finite,gte=0,lte=5"`
}

// NewRatingHistogram builds a histogram from counts indexed by star-1
// (counts[0] is one star) and derives Total.
func NewRatingHistogram(counts [5]int, average float64) RatingHistogram {
	h := RatingHistogram{
		One:     counts[0],
		Two:     counts[1],
		Three:   counts[2],
		Four:    counts[3],
		Five:    counts[4],
		Average: average,
	}
	h.Total = h.Sum()
	return h
}

// Count returns the number of ratings with the given star value, or 0 for
// values outside 1..5.
func (h RatingHistogram) Count(star int) int {
	switch star {
	case 1:
		return h.One
	case 2:
		return h.Two
	case 3:
		return h.Three
	case 4:
		return h.Four
	case 5:
		return h.Five
	default:
		return 0
	}
}

// Sum returns the sum of the five counts.
func (h RatingHistogram) Sum() int {
	return h.One + h.Two + h.Three + h.Four + h.Five
}

// Normalized returns a copy whose Total equals the sum of the counts, and
// whether the reported total had to be replaced.
func (h RatingHistogram) Normalized() (RatingHistogram, bool) {
	sum := h.Sum()
	if h.Total == sum {
		return h, false
	}
	h.Total = sum
	return h, true
}
