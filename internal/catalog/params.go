package catalog

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidLabel is returned for facet labels outside a closed set.
var ErrInvalidLabel = errors.New("invalid facet label")

// splitLabels accepts both repeated parameters and comma separated lists.
func splitLabels(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// ParseQuery builds a Query from URL parameters:
//
//	q, sort, category, brand, size, availability, price, subcategory
//
// Category and availability labels must be known; price bucket labels are
// accepted as given and an unknown one matches nothing. When subcategory is
// set together with exactly one category, it becomes the query Scope.
func ParseQuery(values url.Values) (Query, error) {
	q := Query{
		Search: values.Get("q"),
		Sort:   ParseSortMode(values.Get("sort")),
	}

	sel := Selection{
		Categories:   NewSet[Category](),
		Brands:       NewSet[Brand](),
		Sizes:        NewSet[Size](),
		Availability: NewSet[Availability](),
		PriceBuckets: NewSet[PriceBucket](),
	}

	for _, l := range splitLabels(values["category"]) {
		c, ok := ParseCategory(l)
		if !ok {
			return Query{}, errors.Wrapf(ErrInvalidLabel, "category %q", l)
		}
		sel.Categories[c] = struct{}{}
	}
	for _, l := range splitLabels(values["brand"]) {
		sel.Brands[Brand(l)] = struct{}{}
	}
	for _, l := range splitLabels(values["size"]) {
		sel.Sizes[Size(l)] = struct{}{}
	}
	for _, l := range splitLabels(values["availability"]) {
		a, ok := ParseAvailability(l)
		if !ok {
			return Query{}, errors.Wrapf(ErrInvalidLabel, "availability %q", l)
		}
		sel.Availability[a] = struct{}{}
	}
	for _, l := range splitLabels(values["price"]) {
		sel.PriceBuckets[ParsePriceBucket(l)] = struct{}{}
	}
	q.Selection = sel

	if sub := strings.TrimSpace(values.Get("subcategory")); sub != "" && len(sel.Categories) == 1 {
		for c := range sel.Categories {
			q.Scope = &Scope{Category: c, Term: sub}
		}
	}

	return q, nil
}

// SeedFromQuery derives the initial sidebar state from a landing URL's
// category and subcategory parameters. Unlike ParseQuery it never fails:
// an unknown category seeds nothing.
func SeedFromQuery(values url.Values) (Selection, *Scope) {
	sel := Selection{Categories: NewSet[Category]()}

	c, ok := ParseCategory(values.Get("category"))
	if !ok {
		return sel, nil
	}
	sel.Categories[c] = struct{}{}

	if sub := strings.TrimSpace(values.Get("subcategory")); sub != "" {
		return sel, &Scope{Category: c, Term: sub}
	}
	return sel, nil
}
