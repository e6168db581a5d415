package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "₹0.00"},
		{"199.99", "₹199.99"},
		{"589.9764", "₹589.98"},
		{"530.97876", "₹530.98"},
		{"1234567.005", "₹1,234,567.01"},
		{"-49.998", "-₹50.00"},
	}

	for _, tt := range tests {
		got := Format(decimal.RequireFromString(tt.in), "₹")
		assert.Equal(t, tt.want, got, "Format(%s)", tt.in)
	}
}
