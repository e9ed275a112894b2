package generic

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrencySymbol is used when no business currency has been configured.
const DefaultCurrencySymbol = "$"

var (
	nonNumeric    = regexp.MustCompile(`[^0-9.\-]+`)
	leadingNumber = regexp.MustCompile(`^-?(\d+(\.\d*)?|\.\d+)`)
)

// FormatCurrency renders amount with two decimals behind the currency symbol,
// e.g. "$12.50". An empty symbol falls back to DefaultCurrencySymbol.
func FormatCurrency(amount decimal.Decimal, symbol string) string {
	if symbol == "" {
		symbol = DefaultCurrencySymbol
	}
	return symbol + amount.StringFixed(2)
}

// ParseCurrency extracts a number from user input such as "$1,250.75" or
// "12 €". Symbols and separators are dropped, then the longest leading
// number is read, so "1.2.3" is 1.2 and "12-3" is 12. No number yields zero.
func ParseCurrency(value string) decimal.Decimal {
	num := leadingNumber.FindString(nonNumeric.ReplaceAllString(value, ""))
	if num == "" {
		return decimal.Zero
	}
	num = strings.TrimSuffix(num, ".")
	if rest, neg := strings.CutPrefix(num, "-"); neg && strings.HasPrefix(rest, ".") {
		num = "-0" + rest
	} else if strings.HasPrefix(num, ".") {
		num = "0" + num
	}
	return MustParseDecimal(num)
}
