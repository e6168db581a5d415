package catalog

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

var fixtureEpoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func product(id, name string, c Category, brand string, price string, pop float64, inStock bool, sizes ...Size) Product {
	n := len(fixtures)
	return Product{
		ID:         id,
		Name:       name,
		Category:   c,
		Brand:      Brand(brand),
		Price:      decimal.RequireFromString(price),
		Sizes:      sizes,
		InStock:    inStock,
		Popularity: pop,
		CreatedAt:  fixtureEpoch.AddDate(0, 0, n),
	}
}

var fixtures []Product

func init() {
	add := func(p Product) *Product {
		fixtures = append(fixtures, p)
		return &fixtures[len(fixtures)-1]
	}

	add(product("p1", "Canon EOS R50", CategoryCameras, "Canon", "65999", 4.8, true)).Tags = []string{"mirrorless"}
	add(product("p2", "Nikon Z fc", CategoryCameras, "Nikon", "79999", 4.6, false))
	tee := add(product("p3", "Men's Cotton Tee", CategoryMen, "Roadster", "499", 4.2, true, "S", "M", "L"))
	tee.Tags = []string{"t-shirt"}
	tee.Description = "Soft everyday cotton"
	add(product("p4", "Camo Cargo Pants", CategoryMen, "Roadster", "2000", 4.2, true, "M", "L", "XL"))
	add(product("p5", "Women's Running Shoes", CategoryWomen, "Nike", "2000.01", 4.5, true, "6", "7", "8"))
	add(product("p6", "Wireless Earbuds", CategoryElectronics, "boAt", "1999", 4.0, true))
	add(product("p7", "Kids Rain Jacket", CategoryKids, "Zara", "1499", 3.9, false, "4-5Y", "6-7Y"))
	add(product("p8", "Leather Wallet", CategoryAccessories, "Fossil", "5000", 4.1, true))
	add(product("p9", "Travel Bag", CategoryAccessories, "Lowepro", "10000.00", 4.3, true)).Description = "Padded camera bag"
	add(product("p10", "Smart TV 55", CategoryElectronics, "Sony", "54999", 4.7, true))
}

func ids(products []Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

type fakeSource struct {
	products []Product
	err      error
	calls    int
}

func (f *fakeSource) ListProducts(context.Context) ([]Product, error) {
	f.calls++
	return f.products, f.err
}

func (f *fakeSource) GetProduct(_ context.Context, id string) (*Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, ErrProductNotFound
}
