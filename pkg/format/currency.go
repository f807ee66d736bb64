// Package format renders currency and percentage values for reports.
package format

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// InfiniteReturn is displayed in place of a return computed on zero or negative capital.
const InfiniteReturn = "∞%"

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount float64) string {
	formatted := formatPositiveCurrency(math.Abs(amount))
	if amount < 0 && formatted != "0.00" {
		return "-$" + formatted
	}
	return "$" + formatted
}

// WholeCurrency is Currency rounded to whole dollars (e.g., "$2,454").
func WholeCurrency(amount float64) string {
	s := Currency(math.Round(amount))
	return strings.TrimSuffix(s, ".00")
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount float64) string {
	formatted := formatPositiveCurrency(math.Abs(amount))
	if amount < 0 && formatted != "0.00" {
		return "-" + formatted
	}
	return formatted
}

// Percent renders a decimal ratio (0.052) as a percentage string ("5.20%").
func Percent(ratio float64, places int32) string {
	return decimal.NewFromFloat(ratio).Shift(2).StringFixed(places) + "%"
}

// PercentPoints renders a value already expressed in percent (5.5) as "5.50%".
func PercentPoints(value float64, places int32) string {
	return decimal.NewFromFloat(value).StringFixed(places) + "%"
}

func formatPositiveCurrency(value float64) string {
	// StringFixed rounds half away from zero, which matches how cents are quoted.
	formatted := decimal.NewFromFloat(value).StringFixed(2)
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]
	decPart := "00"
	if len(parts) == 2 {
		decPart = parts[1]
	}

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return intPart + "." + decPart
}
