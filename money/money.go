// Package money holds the fixed point arithmetic shared by every engine.
//
// All quotients truncate toward zero. Persisted money values keep
// MoneyPrecision fractional digits, intermediate quotients keep
// DivisionPrecision, and nothing here ever goes through float64 except
// for human readable formatting.
package money

import (
	"github.com/alpacahq/gocaptable/gberrors"
	humanize "github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const (
	MoneyPrecision    int32 = 6
	DivisionPrecision int32 = 12
	PowPrecision      int32 = 18
)

var (
	Zero    = decimal.Zero
	One     = decimal.New(1, 0)
	Hundred = decimal.New(100, 0)
)

// Div returns a / b truncated to DivisionPrecision digits.
func Div(a, b decimal.Decimal) (decimal.Decimal, error) {
	return DivP(a, b, DivisionPrecision)
}

// DivP returns a / b truncated to precision digits.
func DivP(a, b decimal.Decimal, precision int32) (decimal.Decimal, error) {
	if b.IsZero() {
		return Zero, gberrors.DivisionByZero.WithMsgf("cannot divide %v by zero", a)
	}
	q, _ := a.QuoRem(b, precision)
	return q, nil
}

// Money truncates v to MoneyPrecision digits.
func Money(v decimal.Decimal) decimal.Decimal {
	return v.Truncate(MoneyPrecision)
}

// Shares returns the whole number of shares amount buys at price.
// Fractional entitlement is dropped, never rounded up.
func Shares(amount, price decimal.Decimal) (decimal.Decimal, error) {
	if price.IsZero() {
		return Zero, gberrors.DivisionByZero.WithMsg("conversion price is zero")
	}
	if price.IsNegative() || amount.IsNegative() {
		return Zero, gberrors.InvalidInput.WithMsg("amount and price must not be negative")
	}
	q, _ := amount.QuoRem(price, 0)
	return q.Floor(), nil
}

// Fraction converts a percentage in [0, 100] into a fraction.
func Fraction(pct decimal.Decimal) decimal.Decimal {
	return pct.Shift(-2)
}

// Percent converts a fraction into a percentage.
func Percent(fraction decimal.Decimal) decimal.Decimal {
	return fraction.Shift(2)
}

// ValidPercent reports whether pct lies in [0, 100].
func ValidPercent(pct decimal.Decimal) bool {
	return !pct.IsNegative() && pct.LessThanOrEqual(Hundred)
}

// PowInt raises base to a non-negative integer power by squaring,
// truncating every intermediate product to PowPrecision digits.
func PowInt(base decimal.Decimal, n int) (decimal.Decimal, error) {
	if n < 0 {
		return Zero, gberrors.InvalidInput.WithMsg("negative exponent")
	}
	result := One
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base).Truncate(PowPrecision)
		}
		base = base.Mul(base).Truncate(PowPrecision)
		n >>= 1
	}
	return result, nil
}

func Min(first decimal.Decimal, rest ...decimal.Decimal) decimal.Decimal {
	return decimal.Min(first, rest...)
}

func Max(first decimal.Decimal, rest ...decimal.Decimal) decimal.Decimal {
	return decimal.Max(first, rest...)
}

// WithinEpsilon reports whether |a - b| <= eps.
func WithinEpsilon(a, b, eps decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(eps)
}

// Format renders an amount as 1,234.56 for notifications and reports.
func Format(v decimal.Decimal) string {
	amt, _ := v.Float64()
	return humanize.CommafWithDigits(amt, 2)
}

// FormatShares renders a whole share count as 1,234,567.
func FormatShares(v decimal.Decimal) string {
	return humanize.Comma(v.Floor().IntPart())
}

// Ptr is a helper for optional decimal fields.
func Ptr(v decimal.Decimal) *decimal.Decimal {
	return &v
}

// RequireFromString parses s and panics on failure. Only meant for
// constants and tests.
func RequireFromString(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
