package charts

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CompactNumber formats axis values with a K or M suffix, truncating
// toward zero: 1500 -> "1K", 2500000 -> "2M", 950 -> "950".
func CompactNumber(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("%dM", int64(v/1_000_000))
	case v >= 1_000:
		return fmt.Sprintf("%dK", int64(v/1_000))
	}
	return fmt.Sprintf("%d", int64(math.Trunc(v)))
}

// Percent formats a share as "12.3%".
func Percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

var printer = message.NewPrinter(language.BrazilianPortuguese)

// Money formats an amount with two decimals using Brazilian separators.
func Money(d decimal.Decimal) string {
	return printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
}
