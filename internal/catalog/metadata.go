package catalog

import (
	"slices"

	"github.com/shopspring/decimal"
)

// FacetCounts summarizes a product list for the filter sidebar.
type FacetCounts struct {
	Categories   map[Category]int     `json:"categories"`
	Brands       map[Brand]int        `json:"brands"`
	Sizes        map[Size]int         `json:"sizes"`
	Availability map[Availability]int `json:"availability"`
	PriceBuckets map[PriceBucket]int  `json:"price_buckets"`
	MinPrice     decimal.Decimal      `json:"min_price"`
	MaxPrice     decimal.Decimal      `json:"max_price"`
}

// Facets counts how many products carry each facet label.
func Facets(products []Product) FacetCounts {
	fc := FacetCounts{
		Categories:   map[Category]int{},
		Brands:       map[Brand]int{},
		Sizes:        map[Size]int{},
		Availability: map[Availability]int{InStock: 0, OutOfStock: 0},
		PriceBuckets: map[PriceBucket]int{},
	}
	for _, b := range PriceBuckets {
		fc.PriceBuckets[b] = 0
	}

	for i, p := range products {
		fc.Categories[p.Category]++
		if p.Brand != "" {
			fc.Brands[p.Brand]++
		}
		for _, s := range p.Sizes {
			fc.Sizes[s]++
		}
		if p.InStock {
			fc.Availability[InStock]++
		} else {
			fc.Availability[OutOfStock]++
		}
		fc.PriceBuckets[BucketFor(p.Price)]++

		if i == 0 || p.Price.LessThan(fc.MinPrice) {
			fc.MinPrice = p.Price
		}
		if i == 0 || p.Price.GreaterThan(fc.MaxPrice) {
			fc.MaxPrice = p.Price
		}
	}
	return fc
}

// Related returns up to limit other products from p's category, most
// popular first.
func Related(products []Product, p Product, limit int) []Product {
	if limit <= 0 {
		return nil
	}
	out := Filter(products, func(o Product) bool {
		return o.Category == p.Category && o.ID != p.ID
	})
	slices.SortStableFunc(out, SortPopular.compare)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
