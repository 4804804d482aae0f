// Package money renders decimal amounts for receipts and breakdowns.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Formatter prints amounts with a currency symbol, thousands separators
// and two decimal places.
type Formatter struct {
	Symbol string
}

// NewFormatter returns a formatter using symbol, defaulting to "$".
func NewFormatter(symbol string) Formatter {
	if strings.TrimSpace(symbol) == "" {
		symbol = "$"
	}
	return Formatter{Symbol: symbol}
}

// Format renders amount as e.g. "$1,234.50" or "-$500.00".
func (f Formatter) Format(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	fixed := amount.StringFixedBank(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	return sign + f.Symbol + group(whole) + "." + frac
}

func group(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
