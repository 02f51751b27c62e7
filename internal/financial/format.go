package financial

import "github.com/shopspring/decimal"

// Round2 is the single rounding point for display and export.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FormatMoney renders d as symbol followed by two decimals, e.g. R431.88 or R-50.00.
func FormatMoney(symbol string, d decimal.Decimal) string {
	return symbol + d.StringFixed(2)
}
