package catalog

import (
	"context"
	"net/url"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T, products []Product) *Catalog {
	t.Helper()
	c, err := NewCatalog(16)
	require.NoError(t, err)
	c.Replace(products)
	return c
}

func TestCatalog_QueryMemoized(t *testing.T) {
	c := newTestCatalog(t, fixtures)
	q := Query{Search: "cam", Sort: SortPriceAsc}

	first := c.Query(context.Background(), q)
	assert.Equal(t, []string{"p4", "p9", "p1", "p2"}, ids(first))

	first[0].Name = "mutated"
	second := c.Query(context.Background(), q)
	assert.Equal(t, "Camo Cargo Pants", second[0].Name, "callers get their own copy")
	assert.Equal(t, 1, c.results.Len())
}

func TestCatalog_ReplaceInvalidatesResults(t *testing.T) {
	c := newTestCatalog(t, fixtures)
	q := Query{Selection: Selection{Categories: NewSet(CategoryCameras)}}
	require.Len(t, c.Query(context.Background(), q), 2)
	v := c.Version()

	c.Replace(fixtures[:1])
	assert.Equal(t, v+1, c.Version())
	assert.Equal(t, []string{"p1"}, ids(c.Query(context.Background(), q)))
}

func TestCatalog_Product(t *testing.T) {
	c := newTestCatalog(t, fixtures)

	p, err := c.Product("p5")
	require.NoError(t, err)
	assert.Equal(t, "Women's Running Shoes", p.Name)

	_, err = c.Product("nope")
	assert.True(t, errors.Is(err, ErrProductNotFound))
}

func TestCatalog_Load(t *testing.T) {
	c, err := NewCatalog(4)
	require.NoError(t, err)

	src := &fakeSource{products: fixtures[:3]}
	require.NoError(t, c.Load(context.Background(), src))
	assert.Len(t, c.Products(), 3)

	src.err = errors.New("db down")
	assert.Error(t, c.Load(context.Background(), src))
	assert.Len(t, c.Products(), 3, "failed load keeps the old snapshot")
}

func TestParseQuery(t *testing.T) {
	values := url.Values{
		"q":            {"Cam"},
		"sort":         {"priceDesc"},
		"category":     {"cameras,men"},
		"size":         {"M", "L"},
		"availability": {"in stock"},
		"price":        {"2000 – 5000", "lots"},
	}
	q, err := ParseQuery(values)
	require.NoError(t, err)

	assert.Equal(t, "Cam", q.Search)
	assert.Equal(t, SortPriceDesc, q.Sort)
	assert.Equal(t, []Category{CategoryCameras, CategoryMen}, q.Selection.Categories.Sorted())
	assert.Equal(t, []Size{"L", "M"}, q.Selection.Sizes.Sorted())
	assert.True(t, q.Selection.Availability.Has(InStock))
	assert.True(t, q.Selection.PriceBuckets.Has(Bucket2000To5000))
	assert.True(t, q.Selection.PriceBuckets.Has("lots"))
	assert.Nil(t, q.Scope)
}

func TestParseQuery_Scope(t *testing.T) {
	q, err := ParseQuery(url.Values{"category": {"Men"}, "subcategory": {"t-shirt"}})
	require.NoError(t, err)
	require.NotNil(t, q.Scope)
	assert.Equal(t, Scope{Category: CategoryMen, Term: "t-shirt"}, *q.Scope)

	q, err = ParseQuery(url.Values{"category": {"Men", "Women"}, "subcategory": {"t-shirt"}})
	require.NoError(t, err)
	assert.Nil(t, q.Scope)
}

func TestParseQuery_InvalidLabels(t *testing.T) {
	for _, values := range []url.Values{
		{"category": {"Shoes"}},
		{"availability": {"maybe"}},
	} {
		_, err := ParseQuery(values)
		assert.True(t, errors.Is(err, ErrInvalidLabel), "%v", values)
	}

	q, err := ParseQuery(url.Values{"sort": {"random"}})
	require.NoError(t, err)
	assert.Equal(t, SortPopular, q.Sort)
}

func TestSeedFromQuery(t *testing.T) {
	sel, scope := SeedFromQuery(url.Values{"category": {"kids"}, "subcategory": {"jackets"}})
	assert.True(t, sel.Categories.Has(CategoryKids))
	require.NotNil(t, scope)
	assert.Equal(t, "jackets", scope.Term)

	sel, scope = SeedFromQuery(url.Values{"category": {"Shoes"}})
	assert.Empty(t, sel.Categories)
	assert.Nil(t, scope)
}

func TestFacets(t *testing.T) {
	fc := Facets(fixtures)

	assert.Equal(t, 2, fc.Categories[CategoryCameras])
	assert.Equal(t, 2, fc.Brands["Roadster"])
	assert.Equal(t, 2, fc.Sizes["M"])
	assert.Equal(t, 8, fc.Availability[InStock])
	assert.Equal(t, 2, fc.Availability[OutOfStock])
	assert.Equal(t, 4, fc.PriceBuckets[BucketUpTo2000])
	assert.Equal(t, 2, fc.PriceBuckets[Bucket2000To5000])
	assert.Equal(t, 1, fc.PriceBuckets[Bucket5000To10k])
	assert.Equal(t, 3, fc.PriceBuckets[BucketOver10k])
	assert.True(t, fc.MinPrice.Equal(decimal.NewFromInt(499)))
	assert.True(t, fc.MaxPrice.Equal(decimal.NewFromInt(79999)))

	empty := Facets(nil)
	assert.Zero(t, empty.Availability[InStock])
	assert.Len(t, empty.PriceBuckets, len(PriceBuckets))
}

func TestRelated(t *testing.T) {
	assert.Equal(t, []string{"p10"}, ids(Related(fixtures, fixtures[5], 4)))
	assert.Equal(t, []string{"p9"}, ids(Related(fixtures, fixtures[7], 1)))
	assert.Empty(t, Related(fixtures, fixtures[0], 0))
}
