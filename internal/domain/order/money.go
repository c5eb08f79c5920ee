package order

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Currency is the only currency the storefront charges in.
const Currency = "USD"

// Storefront limits. Both stay well inside the NUMERIC(12,2) order column and int64 cents.
var (
	MaxItemPrice  = decimal.NewFromInt(10_000)
	MaxOrderTotal = decimal.NewFromInt(100_000)
)

// Bounds on a decimal's shape, checked before any arithmetic rescales it.
const (
	maxAmountDigits   = 18
	maxAmountExponent = 12
	minAmountExponent = -18
)

var ErrAmountOutOfRange = errors.New("order: amount out of range")

// LineTotal is price × quantity.
func LineTotal(it Item) decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Total sums the line totals exactly.
func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(LineTotal(it))
	}
	return total
}

// boundedShape reports whether d is small enough in digits and exponent to rescale cheaply.
func boundedShape(d decimal.Decimal) bool {
	exp := d.Exponent()
	return exp <= maxAmountExponent && exp >= minAmountExponent && d.NumDigits() <= maxAmountDigits
}

// MinorUnits converts an amount to whole cents, rounding half away from zero.
// Amounts that do not fit int64 cents yield ErrAmountOutOfRange.
func MinorUnits(amount decimal.Decimal) (int64, error) {
	if !boundedShape(amount) {
		return 0, ErrAmountOutOfRange
	}
	cents := amount.Shift(2).Round(0).BigInt()
	if !cents.IsInt64() {
		return 0, ErrAmountOutOfRange
	}
	return cents.Int64(), nil
}
