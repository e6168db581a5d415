package catalog

import (
	"context"
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"clam-storefront/internal/logger"
	"clam-storefront/internal/metrics"
)

// ErrProductNotFound is returned when a product id is not in the catalog.
var ErrProductNotFound = errors.New("product not found")

// Source supplies the full product list.
type Source interface {
	ListProducts(ctx context.Context) ([]Product, error)
}

type memoKey struct {
	version uint64
	query   uint64
}

type memoEntry struct {
	canonical string
	products  []Product
}

// Catalog holds the current immutable product snapshot and memoizes query
// results per snapshot version.
type Catalog struct {
	mu       sync.RWMutex
	products []Product
	byID     map[string]int
	version  uint64

	results *lru.Cache
}

// NewCatalog creates an empty catalog whose query memo holds up to
// cacheSize results.
func NewCatalog(cacheSize int) (*Catalog, error) {
	results, err := lru.New(cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "query cache")
	}
	return &Catalog{results: results, byID: map[string]int{}}, nil
}

// Replace installs a new snapshot. Results memoized against the previous
// snapshot are never served again.
func (c *Catalog) Replace(products []Product) {
	snapshot := slices.Clone(products)
	byID := make(map[string]int, len(snapshot))
	for i, p := range snapshot {
		byID[p.ID] = i
	}

	c.mu.Lock()
	c.products = snapshot
	c.byID = byID
	c.version++
	c.mu.Unlock()

	c.results.Purge()
	metrics.CatalogProducts.Set(float64(len(snapshot)))
}

// Load fetches every product from src and installs it as the snapshot.
func (c *Catalog) Load(ctx context.Context, src Source) error {
	products, err := src.ListProducts(ctx)
	if err != nil {
		return errors.Wrap(err, "load catalog")
	}
	c.Replace(products)
	logger.Infof("catalog loaded: %d products (version %d)", len(products), c.Version())
	return nil
}

func (c *Catalog) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Products returns the current snapshot. Callers must not modify it.
func (c *Catalog) Products() []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.products
}

// Product looks up a product by id in the current snapshot.
func (c *Catalog) Product(id string) (Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return Product{}, errors.Wrapf(ErrProductNotFound, "id %q", id)
	}
	return c.products[i], nil
}

// Query runs q against the current snapshot. A memoized result is only
// reused when both the snapshot version and the canonical query match.
func (c *Catalog) Query(ctx context.Context, q Query) []Product {
	_, span := tracer.Start(ctx, "catalog.Query")
	defer span.End()

	c.mu.RLock()
	products, version := c.products, c.version
	c.mu.RUnlock()

	canonical := q.Canonical()
	key := memoKey{version: version, query: q.Key()}
	metrics.CatalogQueries.WithLabelValues(string(ParseSortMode(string(q.Sort)))).Inc()

	if v, ok := c.results.Get(key); ok {
		if e := v.(memoEntry); e.canonical == canonical {
			metrics.QueryCache.WithLabelValues("hit").Inc()
			span.SetAttributes(attribute.Bool("catalog.cache_hit", true), attribute.Int("catalog.results", len(e.products)))
			return slices.Clone(e.products)
		}
	}
	metrics.QueryCache.WithLabelValues("miss").Inc()

	out := Run(products, q)
	c.results.Add(key, memoEntry{canonical: canonical, products: out})
	metrics.QueryResultSize.Observe(float64(len(out)))
	span.SetAttributes(attribute.Bool("catalog.cache_hit", false), attribute.Int("catalog.results", len(out)))
	return slices.Clone(out)
}
