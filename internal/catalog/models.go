package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category is one of the storefront's fixed product categories.
type Category string

const (
	CategoryMen         Category = "Men"
	CategoryWomen       Category = "Women"
	CategoryKids        Category = "Kids"
	CategoryCameras     Category = "Cameras"
	CategoryElectronics Category = "Electronics"
	CategoryAccessories Category = "Accessories"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryMen, CategoryWomen, CategoryKids,
	CategoryCameras, CategoryElectronics, CategoryAccessories,
}

// ParseCategory matches label case-insensitively against the known
// categories and returns the canonical value.
func ParseCategory(label string) (Category, bool) {
	label = strings.TrimSpace(label)
	for _, c := range Categories {
		if strings.EqualFold(string(c), label) {
			return c, true
		}
	}
	return "", false
}

// Brand and Size are open label sets drawn from the catalog itself.
type (
	Brand string
	Size  string
)

// Product represents a product in the catalog. Products are loaded once
// per snapshot and never mutated afterwards.
type Product struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	ShortDescription string          `json:"short_description"`
	Category         Category        `json:"category"`
	Brand            Brand           `json:"brand"`
	Price            decimal.Decimal `json:"price"`
	Sizes            []Size          `json:"sizes,omitempty"`
	Tags             []string        `json:"tags,omitempty"`
	InStock          bool            `json:"in_stock"`
	Popularity       float64         `json:"popularity"`
	PrimaryImageURL  string          `json:"primary_image_url"`
	CreatedAt        time.Time       `json:"created_at"`
}

// HasSizes reports whether a size must be chosen before adding to a cart.
func (p Product) HasSizes() bool {
	return len(p.Sizes) > 0
}

func (p Product) HasSize(s Size) bool {
	for _, have := range p.Sizes {
		if have == s {
			return true
		}
	}
	return false
}

// ProductListResponse wraps a query result with pagination info.
type ProductListResponse struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
	Sort     SortMode  `json:"sort"`
}
