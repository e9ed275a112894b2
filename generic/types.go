/*
Package generic provides the domain-agnostic primitives of the ledger engine.

PURPOSE:
  This package contains the building blocks shared by every part of the
  ledger: exact decimal arithmetic for money and quantities, calendar days,
  an injectable clock, the key-value persistence contract, and the error
  taxonomy. It knows nothing about purchases, sales, or debts.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amounts: money and quantities are decimal.Decimal, never float64
  - Clamping: balances and stock are floored at zero in several places
  - Summation helpers used by the recompute functions

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point drift
  2. Wire compatibility: decimals marshal as JSON numbers, not strings,
     so export documents stay readable by older tooling
  3. Purity: nothing in this package touches global mutable state
     except the one-time decimal JSON setting below

USAGE:
  price := generic.NewAmount(5.5)
  total := price.Mul(generic.NewAmountFromInt(3))
  stock := generic.ClampZero(purchased.Sub(sold))

SEE ALSO:
  - money.go: Currency formatting and parsing
  - time.go: TimePoint and Clock
  - store.go: Key-value persistence interface
  - errors.go: Sentinel and structured errors
*/
package generic

import (
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// =============================================================================
// AMOUNT HELPERS - money and quantities
// =============================================================================

// NewAmount converts a float literal to a decimal amount.
func NewAmount(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value)
}

func NewAmountFromInt(value int64) decimal.Decimal {
	return decimal.NewFromInt(value)
}

// MustParseDecimal parses s, returning zero when s is not a number.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ClampZero returns d, or zero when d is negative.
func ClampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Sum adds all values. An empty slice sums to zero.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// ApproxEqual reports whether a and b differ by less than tolerance.
func ApproxEqual(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(tolerance)
}

// DecimalPtr returns a pointer to a copy of d.
func DecimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

// ValueOrZero dereferences d, treating nil as zero.
func ValueOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// IsSet reports whether d is present and non-zero.
func IsSet(d *decimal.Decimal) bool {
	return d != nil && !d.IsZero()
}
