package cart

import (
	"slices"
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"clam-storefront/internal/catalog"
)

var (
	// ErrVariantRequired is returned when a sized product is added without a size.
	ErrVariantRequired = errors.New("size selection required")
	// ErrUnknownVariant is returned for a size the product does not offer.
	ErrUnknownVariant = errors.New("size not offered for product")
	// ErrInvalidPromoCode is returned when a code is not in the promo table.
	ErrInvalidPromoCode = errors.New("invalid promo code")
)

const (
	MinQuantity = 1
	MaxQuantity = 5
)

// ClampQuantity limits n to [MinQuantity, MaxQuantity].
func ClampQuantity(n int) int {
	return min(max(n, MinQuantity), MaxQuantity)
}

// LineKey identifies a cart line: one product in one size.
type LineKey struct {
	ProductID string       `json:"product_id"`
	Size      catalog.Size `json:"size,omitempty"`
}

// Line is one product variant in the cart. UnitPrice is captured when the
// line is created and does not follow later catalog changes.
type Line struct {
	ProductID string          `json:"product_id"`
	Size      catalog.Size    `json:"size,omitempty"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

func (l Line) Key() LineKey {
	return LineKey{ProductID: l.ProductID, Size: l.Size}
}

func (l Line) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds the lines and active promo for one owner. All methods are
// safe for concurrent use.
type Cart struct {
	mu      sync.Mutex
	pricing Pricing
	lines   []Line
	promo   *Promo
}

// New creates an empty cart priced with p.
func New(p Pricing) *Cart {
	return &Cart{pricing: p}
}

func (c *Cart) indexOf(key LineKey) int {
	return slices.IndexFunc(c.lines, func(l Line) bool { return l.Key() == key })
}

// AddItem adds quantity of product in size. An existing line's quantity
// becomes the clamped sum; a new line starts at the clamped quantity.
func (c *Cart) AddItem(product catalog.Product, size catalog.Size, quantity int) (Line, error) {
	switch {
	case product.HasSizes() && size == "":
		return Line{}, errors.Wrapf(ErrVariantRequired, "product %s", product.ID)
	case size != "" && !product.HasSize(size):
		return Line{}, errors.Wrapf(ErrUnknownVariant, "product %s size %q", product.ID, size)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := LineKey{ProductID: product.ID, Size: size}
	if i := c.indexOf(key); i >= 0 {
		c.lines[i].Quantity = ClampQuantity(c.lines[i].Quantity + quantity)
		return c.lines[i], nil
	}

	line := Line{
		ProductID: product.ID,
		Size:      size,
		Name:      product.Name,
		UnitPrice: product.Price,
		Quantity:  ClampQuantity(quantity),
	}
	c.lines = append(c.lines, line)
	return line, nil
}

// SetQuantity sets the quantity of the line at key. n below MinQuantity
// removes the line. It reports whether the line existed.
func (c *Cart) SetQuantity(key LineKey, n int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(key)
	if i < 0 {
		return false
	}
	if n < MinQuantity {
		c.lines = slices.Delete(c.lines, i, i+1)
		return true
	}
	c.lines[i].Quantity = ClampQuantity(n)
	return true
}

// RemoveItem deletes the line at key, if any.
func (c *Cart) RemoveItem(key LineKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexOf(key); i >= 0 {
		c.lines = slices.Delete(c.lines, i, i+1)
	}
}

// ApplyPromoCode replaces the active promo with code. An unknown code
// leaves the cart unchanged.
func (c *Cart) ApplyPromoCode(code string) (Promo, error) {
	promo, ok := c.pricing.Promos.Lookup(code)
	if !ok {
		return Promo{}, errors.Wrapf(ErrInvalidPromoCode, "%q", code)
	}

	c.mu.Lock()
	c.promo = &promo
	c.mu.Unlock()
	return promo, nil
}

func (c *Cart) RemovePromoCode() {
	c.mu.Lock()
	c.promo = nil
	c.mu.Unlock()
}

// Promo returns the active promo, if any.
func (c *Cart) Promo() (Promo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.promo == nil {
		return Promo{}, false
	}
	return *c.promo, true
}

// Lines returns a copy of the lines in the order they were added.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.lines)
}

// ItemCount is the total quantity across all lines.
func (c *Cart) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Clear removes every line and the promo.
func (c *Cart) Clear() {
	c.mu.Lock()
	c.lines = nil
	c.promo = nil
	c.mu.Unlock()
}

func (c *Cart) Totals() Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ComputeTotals(c.lines, c.promo, c.pricing.TaxRate)
}

// Contents returns the lines and their totals from a single state of the cart.
func (c *Cart) Contents() ([]Line, Totals) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.lines), ComputeTotals(c.lines, c.promo, c.pricing.TaxRate)
}

// Snapshot is the persisted form of a cart.
type Snapshot struct {
	Lines     []Line `json:"lines"`
	PromoCode string `json:"promo_code,omitempty"`
}

func (c *Cart) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{Lines: slices.Clone(c.lines)}
	if s.Lines == nil {
		s.Lines = []Line{}
	}
	if c.promo != nil {
		s.PromoCode = c.promo.Code
	}
	return s
}

// Restore replaces the cart's state with s. Quantities are re-clamped and
// duplicate keys merged; a promo code no longer in the table is dropped
// and reported with ErrInvalidPromoCode after the lines are restored.
func (c *Cart) Restore(s Snapshot) error {
	lines := make([]Line, 0, len(s.Lines))
	for _, l := range s.Lines {
		if l.Quantity < MinQuantity {
			continue
		}
		i := slices.IndexFunc(lines, func(o Line) bool { return o.Key() == l.Key() })
		if i >= 0 {
			lines[i].Quantity = ClampQuantity(lines[i].Quantity + l.Quantity)
			continue
		}
		l.Quantity = ClampQuantity(l.Quantity)
		lines = append(lines, l)
	}

	var (
		promo *Promo
		err   error
	)
	if s.PromoCode != "" {
		if p, ok := c.pricing.Promos.Lookup(s.PromoCode); ok {
			promo = &p
		} else {
			err = errors.Wrapf(ErrInvalidPromoCode, "restored code %q", s.PromoCode)
		}
	}

	c.mu.Lock()
	c.lines = lines
	c.promo = promo
	c.mu.Unlock()
	return err
}
