package catalog

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"clam-storefront/internal/logger"
)

const productColumns = `
	id, name, COALESCE(description, ''), COALESCE(short_description, ''),
	category, COALESCE(brand, ''), price,
	COALESCE(sizes, '{}'::text[]) AS sizes,
	COALESCE(tags, '{}'::text[]) AS tags,
	stock_count, COALESCE(popularity, 0), COALESCE(primary_image_url, ''),
	created_at
`

// Store reads products from the catalog database. It is the Source the
// Catalog snapshot is loaded from.
type Store struct {
	db *sql.DB
}

// NewStore creates a new product store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanProduct reads one row selected with productColumns. ok is false when
// the row's category is not one the storefront knows.
func scanProduct(row rowScanner) (p Product, ok bool, err error) {
	var (
		category   string
		brand      string
		sizes      pq.StringArray
		tags       pq.StringArray
		stockCount int
	)

	err = row.Scan(
		&p.ID, &p.Name, &p.Description, &p.ShortDescription,
		&category, &brand, &p.Price,
		&sizes, &tags,
		&stockCount, &p.Popularity, &p.PrimaryImageURL,
		&p.CreatedAt,
	)
	if err != nil {
		return Product{}, false, err
	}

	p.Category, ok = ParseCategory(category)
	p.Brand = Brand(brand)
	p.InStock = stockCount > 0
	p.Tags = []string(tags)
	if len(sizes) > 0 {
		p.Sizes = make([]Size, len(sizes))
		for i, s := range sizes {
			p.Sizes[i] = Size(s)
		}
	}
	return p, ok, nil
}

// ListProducts loads the whole catalog in its stable display order.
func (s *Store) ListProducts(ctx context.Context) ([]Product, error) {
	query := `SELECT` + productColumns + `FROM catalog.products ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "ListProducts query")
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, ok, err := scanProduct(rows)
		if err != nil {
			return nil, errors.Wrap(err, "ListProducts scan")
		}
		if !ok {
			logger.Warnf("ListProducts: skipping product %s with unknown category", p.ID)
			continue
		}
		products = append(products, p)
	}

	return products, errors.Wrap(rows.Err(), "ListProducts rows")
}

// GetProduct retrieves a single product by ID
func (s *Store) GetProduct(ctx context.Context, id string) (*Product, error) {
	query := `SELECT` + productColumns + `FROM catalog.products WHERE id = $1`

	p, ok, err := scanProduct(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows || (err == nil && !ok) {
		return nil, errors.Wrapf(ErrProductNotFound, "id %q", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "GetProduct query")
	}
	return &p, nil
}
