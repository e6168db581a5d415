package catalog

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// SortMode orders a query result.
type SortMode string

const (
	SortPopular   SortMode = "popular"
	SortNewest    SortMode = "newest"
	SortPriceAsc  SortMode = "priceAsc"
	SortPriceDesc SortMode = "priceDesc"
)

// ParseSortMode never fails: anything unrecognised sorts by popularity.
func ParseSortMode(s string) SortMode {
	switch m := SortMode(strings.TrimSpace(s)); m {
	case SortPopular, SortNewest, SortPriceAsc, SortPriceDesc:
		return m
	default:
		return SortPopular
	}
}

func (m SortMode) compare(a, b Product) int {
	switch m {
	case SortNewest:
		return b.CreatedAt.Compare(a.CreatedAt)
	case SortPriceAsc:
		return a.Price.Cmp(b.Price)
	case SortPriceDesc:
		return b.Price.Cmp(a.Price)
	default:
		return cmp.Compare(b.Popularity, a.Popularity)
	}
}

// Scope narrows a query to one category and a sub-category term, as used
// by category landing pages. It is applied on top of the main search.
type Scope struct {
	Category Category `json:"category"`
	Term     string   `json:"term"`
}

func (s *Scope) matches(p Product) bool {
	if p.Category != s.Category {
		return false
	}
	term := strings.ToLower(s.Term)
	if term == "" {
		return true
	}
	if containsFold(p.Name, term) || containsFold(p.Description, term) || containsFold(string(p.Category), term) {
		return true
	}
	for _, tag := range p.Tags {
		if containsFold(tag, term) {
			return true
		}
	}
	return false
}

// Query describes one view of the catalog.
type Query struct {
	Search    string
	Selection Selection
	Sort      SortMode
	Scope     *Scope
}

func (q Query) matchesSearch(p Product) bool {
	if q.Search == "" {
		return true
	}
	term := strings.ToLower(q.Search)
	return containsFold(p.Name, term) ||
		containsFold(p.Description, term) ||
		containsFold(string(p.Category), term) ||
		containsFold(string(p.Brand), term)
}

// containsFold reports whether lowered term occurs in s, ignoring case.
func containsFold(s, term string) bool {
	return strings.Contains(strings.ToLower(s), term)
}

// Run filters and sorts products. Products are returned in a new slice;
// ties in the sort key keep their input order.
func Run(products []Product, q Query) []Product {
	facets := q.Selection.Facets()
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if !q.matchesSearch(p) {
			continue
		}
		if q.Scope != nil && !q.Scope.matches(p) {
			continue
		}
		if !matchAll(p, facets) {
			continue
		}
		out = append(out, p)
	}

	mode := ParseSortMode(string(q.Sort))
	slices.SortStableFunc(out, mode.compare)
	return out
}

// Canonical renders q in a form where equal queries produce equal strings:
// facet labels are sorted and the sort mode is normalized.
func (q Query) Canonical() string {
	var b strings.Builder
	b.WriteString("q=")
	b.WriteString(strconv.Quote(strings.ToLower(q.Search)))
	b.WriteString("|sort=")
	b.WriteString(string(ParseSortMode(string(q.Sort))))
	writeSet(&b, "cat", q.Selection.Categories)
	writeSet(&b, "brand", q.Selection.Brands)
	writeSet(&b, "size", q.Selection.Sizes)
	writeSet(&b, "avail", q.Selection.Availability)
	writeSet(&b, "price", q.Selection.PriceBuckets)
	if q.Scope != nil {
		b.WriteString("|scope=")
		b.WriteString(string(q.Scope.Category))
		b.WriteByte('/')
		b.WriteString(strconv.Quote(strings.ToLower(q.Scope.Term)))
	}
	return b.String()
}

func writeSet[T ~string](b *strings.Builder, name string, s Set[T]) {
	b.WriteByte('|')
	b.WriteString(name)
	b.WriteByte('=')
	for i, l := range s.Sorted() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(string(l)))
	}
}

// Key hashes the canonical form of q.
func (q Query) Key() uint64 {
	return xxhash.Sum64String(q.Canonical())
}
