package catalog

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Set is a membership-only collection of facet labels.
type Set[T ~string] map[T]struct{}

func NewSet[T ~string](labels ...T) Set[T] {
	s := make(Set[T], len(labels))
	for _, l := range labels {
		s[l] = struct{}{}
	}
	return s
}

func (s Set[T]) Has(l T) bool {
	_, ok := s[l]
	return ok
}

// Sorted returns the labels in lexical order.
func (s Set[T]) Sorted() []T {
	out := make([]T, 0, len(s))
	for l := range s {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MarshalJSON encodes the set as a sorted list of labels.
func (s Set[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// Availability is the stock facet.
type Availability string

const (
	InStock    Availability = "In Stock"
	OutOfStock Availability = "Out of Stock"
)

func ParseAvailability(label string) (Availability, bool) {
	label = strings.TrimSpace(label)
	for _, a := range []Availability{InStock, OutOfStock} {
		if strings.EqualFold(string(a), label) {
			return a, true
		}
	}
	return "", false
}

// PriceBucket is a coarse price interval with an inclusive upper bound.
// Labels outside the known set are kept as-is and contain no price.
type PriceBucket string

const (
	BucketUpTo2000   PriceBucket = "0-2000"
	Bucket2000To5000 PriceBucket = "2000-5000"
	Bucket5000To10k  PriceBucket = "5000-10000"
	BucketOver10k    PriceBucket = "10000+"
)

// PriceBuckets lists the buckets in ascending order. Together they cover
// every price exactly once.
var PriceBuckets = []PriceBucket{BucketUpTo2000, Bucket2000To5000, Bucket5000To10k, BucketOver10k}

var (
	price2000  = decimal.NewFromInt(2000)
	price5000  = decimal.NewFromInt(5000)
	price10000 = decimal.NewFromInt(10000)
)

// ParsePriceBucket normalizes en dashes and spaces. The result is returned
// even when the label is unknown, so that it can match nothing.
func ParsePriceBucket(label string) PriceBucket {
	label = strings.ReplaceAll(label, "–", "-")
	label = strings.ReplaceAll(label, " ", "")
	return PriceBucket(label)
}

func (b PriceBucket) Contains(price decimal.Decimal) bool {
	switch b {
	case BucketUpTo2000:
		return price.LessThanOrEqual(price2000)
	case Bucket2000To5000:
		return price.GreaterThan(price2000) && price.LessThanOrEqual(price5000)
	case Bucket5000To10k:
		return price.GreaterThan(price5000) && price.LessThanOrEqual(price10000)
	case BucketOver10k:
		return price.GreaterThan(price10000)
	default:
		return false
	}
}

// BucketFor returns the single bucket containing price. BucketUpTo2000 has
// no lower bound, so every price falls in exactly one bucket.
func BucketFor(price decimal.Decimal) PriceBucket {
	switch {
	case price.GreaterThan(price10000):
		return BucketOver10k
	case price.GreaterThan(price5000):
		return Bucket5000To10k
	case price.GreaterThan(price2000):
		return Bucket2000To5000
	default:
		return BucketUpTo2000
	}
}

// Selection holds the chosen labels for each facet. An empty facet places
// no constraint on the result.
type Selection struct {
	Categories   Set[Category]     `json:"categories"`
	Brands       Set[Brand]        `json:"brands"`
	Sizes        Set[Size]         `json:"sizes"`
	Availability Set[Availability] `json:"availability"`
	PriceBuckets Set[PriceBucket]  `json:"price_buckets"`
}

// Facet is a single conjunctive filter term.
type Facet func(Product) bool

// Facets returns one predicate per constrained facet. The order carries no
// meaning: the result of applying them is the same in any order.
func (s Selection) Facets() []Facet {
	var out []Facet

	if len(s.Categories) > 0 {
		set := s.Categories
		out = append(out, func(p Product) bool { return set.Has(p.Category) })
	}
	if len(s.Brands) > 0 {
		set := s.Brands
		out = append(out, func(p Product) bool { return set.Has(p.Brand) })
	}
	if len(s.Sizes) > 0 {
		set := s.Sizes
		out = append(out, func(p Product) bool {
			for _, size := range p.Sizes {
				if set.Has(size) {
					return true
				}
			}
			return false
		})
	}
	if f := availabilityFacet(s.Availability); f != nil {
		out = append(out, f)
	}
	if len(s.PriceBuckets) > 0 {
		set := s.PriceBuckets
		out = append(out, func(p Product) bool {
			for b := range set {
				if b.Contains(p.Price) {
					return true
				}
			}
			return false
		})
	}

	return out
}

func availabilityFacet(set Set[Availability]) Facet {
	if len(set) == 0 {
		return nil
	}
	in, out := set.Has(InStock), set.Has(OutOfStock)
	switch {
	case in && out:
		return nil
	case in:
		return func(p Product) bool { return p.InStock }
	case out:
		return func(p Product) bool { return !p.InStock }
	default:
		return func(Product) bool { return false }
	}
}

// Filter keeps the products satisfying every facet, preserving input order.
func Filter(products []Product, facets ...Facet) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if matchAll(p, facets) {
			out = append(out, p)
		}
	}
	return out
}

func matchAll(p Product, facets []Facet) bool {
	for _, f := range facets {
		if !f(p) {
			return false
		}
	}
	return true
}
