// Package money parses and sums the euro amounts printed on statements.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Parse converts a European formatted amount such as "1.234,56", "-1,35",
// "1,35-" or "12,00 €" into a decimal. Unparseable input yields zero and false.
func Parse(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	s = strings.NewReplacer("€", "", "EUR", "", " ", "", "\u00a0", "").Replace(s)
	if s == "" {
		return decimal.Zero, false
	}

	negative := false
	switch {
	case strings.HasSuffix(s, "-"):
		negative = true
		s = strings.TrimSuffix(s, "-")
	case strings.HasPrefix(s, "-"):
		negative = true
		s = strings.TrimPrefix(s, "-")
	case strings.HasPrefix(s, "+"):
		s = strings.TrimPrefix(s, "+")
	}

	s = strings.ReplaceAll(s, ".", "")
	s = strings.Replace(s, ",", ".", 1)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// MustParse is Parse for fixtures and static data; it returns zero on failure.
func MustParse(raw string) decimal.Decimal {
	d, _ := Parse(raw)
	return d
}

// Sum adds all values.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Format renders d with two decimals and a comma separator, as printed on statements.
func Format(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}
