package cart

import (
	"github.com/shopspring/decimal"
)

// DefaultTaxRate applies when no rate is configured.
var DefaultTaxRate = decimal.RequireFromString("0.18")

// Promo is an active discount code and its rate in [0,1).
type Promo struct {
	Code string          `json:"code"`
	Rate decimal.Decimal `json:"rate"`
}

// PromoTable maps codes to discount rates. Codes match exactly.
type PromoTable map[string]decimal.Decimal

func (t PromoTable) Lookup(code string) (Promo, bool) {
	rate, ok := t[code]
	if !ok {
		return Promo{}, false
	}
	return Promo{Code: code, Rate: rate}, true
}

// Pricing is the configuration a cart computes totals with.
type Pricing struct {
	TaxRate decimal.Decimal
	Promos  PromoTable
}

// Totals is derived from a cart's lines and promo; it is never stored.
// Amounts are exact and unrounded.
type Totals struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	Discount     decimal.Decimal `json:"discount"`
	Taxable      decimal.Decimal `json:"taxable"`
	Tax          decimal.Decimal `json:"tax"`
	Total        decimal.Decimal `json:"total"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	PromoCode    string          `json:"promo_code,omitempty"`
	DiscountRate decimal.Decimal `json:"discount_rate"`
	ItemCount    int             `json:"item_count"`
}

// ComputeTotals prices lines with an optional promo:
//
//	subtotal = sum(unitPrice * quantity)
//	discount = subtotal * promo rate
//	taxable  = subtotal - discount
//	tax      = taxable * taxRate
//	total    = taxable + tax
func ComputeTotals(lines []Line, promo *Promo, taxRate decimal.Decimal) Totals {
	t := Totals{TaxRate: taxRate}
	for _, l := range lines {
		t.Subtotal = t.Subtotal.Add(l.Amount())
		t.ItemCount += l.Quantity
	}
	if promo != nil {
		t.PromoCode = promo.Code
		t.DiscountRate = promo.Rate
	}
	t.Discount = t.Subtotal.Mul(t.DiscountRate)
	t.Taxable = t.Subtotal.Sub(t.Discount)
	t.Tax = t.Taxable.Mul(taxRate)
	t.Total = t.Taxable.Add(t.Tax)
	return t
}
