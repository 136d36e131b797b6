package constants

import (
	"github.com/alpacahq/gocaptable/utils/env"
	"github.com/alpacahq/gocaptable/utils/log"
	"github.com/shopspring/decimal"
)

// this package is for constants that are used in multiple
// locations across the code and don't strictly apply to
// another package (i.e. models etc.)

var (
	// OwnershipEpsilon is the tolerance allowed when checking
	// that ownership percentages of a cap table sum to 100
	OwnershipEpsilon = decimal.New(1, -6)

	// DefaultShareClass is the class conversions land in when
	// neither the round nor the note names one
	DefaultShareClass = func() string {
		if v := env.GetVar("DEFAULT_SHARE_CLASS"); v != "" {
			return v
		}
		return "Series Preferred"
	}()

	// DaysPerYear is the day count basis used for interest accrual
	DaysPerYear = func() decimal.Decimal {
		basis, err := decimal.NewFromString(env.GetVar("ACCRUAL_DAY_COUNT"))
		if err != nil || !basis.IsPositive() {
			if env.GetVar("ACCRUAL_DAY_COUNT") != "" {
				log.Error(
					"invalid constant set",
					"name", "ACCRUAL_DAY_COUNT",
					"value", env.GetVar("ACCRUAL_DAY_COUNT"),
					"error", err)
			}
			return decimal.New(365, 0)
		}
		return basis
	}()
)
