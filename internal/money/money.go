// Package money formats decimal amounts for display.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Format renders amount rounded half-up to two places, with thousands
// separators, prefixed by symbol.
func Format(amount decimal.Decimal, symbol string) string {
	rounded := amount.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}

	whole := rounded.Truncate(0)
	cents := rounded.Sub(whole).Shift(2).IntPart()

	return fmt.Sprintf("%s%s%s.%02d", sign, symbol, printer.Sprintf("%d", whole.IntPart()), cents)
}
