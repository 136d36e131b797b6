package models

import (
	"errors"

	"github.com/shopspring/decimal"
)

var hundred = decimal.New(100, 0)

// decimalOf unwraps the values ozzo-validation hands to rule funcs.
// ok is false for nil optionals, which every rule accepts.
func decimalOf(value interface{}) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, true
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero, false
		}
		return *v, true
	default:
		return decimal.Zero, false
	}
}

func positive(value interface{}) error {
	if d, ok := decimalOf(value); ok && !d.IsPositive() {
		return errors.New("must be greater than zero")
	}
	return nil
}

func nonNegative(value interface{}) error {
	if d, ok := decimalOf(value); ok && d.IsNegative() {
		return errors.New("must not be negative")
	}
	return nil
}

func percent(value interface{}) error {
	if d, ok := decimalOf(value); ok && (d.IsNegative() || d.GreaterThan(hundred)) {
		return errors.New("must be between 0 and 100")
	}
	return nil
}
