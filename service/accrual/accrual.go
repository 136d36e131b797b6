package accrual

import (
	"github.com/alpacahq/gocaptable/gberrors"
	"github.com/alpacahq/gocaptable/models"
	"github.com/alpacahq/gocaptable/models/enum"
	"github.com/alpacahq/gocaptable/money"
	"github.com/alpacahq/gocaptable/utils/constants"
	"github.com/alpacahq/gocaptable/utils/date"
	"github.com/shopspring/decimal"
)

// Accrued is the outcome of accruing a note up to a date.
type Accrued struct {
	Principal        decimal.Decimal
	Interest         decimal.Decimal
	ConvertingAmount decimal.Decimal
	Days             int
}

// Accrue computes the interest earned on principal between issued
// and asOf at an annual rate given in percent, over a DaysPerYear basis.
// Compound accrual compounds daily.
func Accrue(
	principal, rate decimal.Decimal,
	issued, asOf date.Date,
	compounding enum.Compounding) (decimal.Decimal, error) {

	if principal.IsNegative() {
		return money.Zero, gberrors.InvalidInput.WithMsg("principal must not be negative")
	}
	if rate.IsNegative() {
		return money.Zero, gberrors.InvalidInput.WithMsg("interest rate must not be negative")
	}
	if asOf.Before(issued) {
		return money.Zero, gberrors.InvalidDateRange.WithMsgf(
			"as-of date %v precedes issued date %v", asOf, issued)
	}

	days := decimal.New(int64(asOf.DaysSince(issued)), 0)
	annual := money.Fraction(rate)

	var accrued decimal.Decimal

	switch compounding {
	case enum.Simple:
		interest, err := money.Div(principal.Mul(annual).Mul(days), constants.DaysPerYear)
		if err != nil {
			return money.Zero, err
		}
		accrued = interest
	case enum.Compound:
		daily, err := money.DivP(annual, constants.DaysPerYear, money.PowPrecision)
		if err != nil {
			return money.Zero, err
		}
		factor, err := money.PowInt(money.One.Add(daily), int(days.IntPart()))
		if err != nil {
			return money.Zero, err
		}
		accrued = principal.Mul(factor.Sub(money.One))
	default:
		return money.Zero, gberrors.InvalidInput.WithMsgf("unknown compounding %q", compounding)
	}

	return money.Max(money.Money(accrued), money.Zero), nil
}

// ForNote accrues a note's interest up to asOf and returns the amount
// that converts, principal plus interest.
func ForNote(sec *models.ConvertibleSecurity, asOf date.Date) (*Accrued, error) {
	inst, err := sec.Instrument()
	if err != nil {
		return nil, gberrors.InvalidInput.WithError(err)
	}

	note, ok := inst.(*models.NoteTerms)
	if !ok {
		return nil, gberrors.InvalidInput.WithMsgf("security %v is not a note", sec.ID)
	}

	interest, err := Accrue(sec.PrincipalAmount, note.InterestRate, sec.IssuedDate, asOf, note.Compounding)
	if err != nil {
		return nil, err
	}

	return &Accrued{
		Principal:        sec.PrincipalAmount,
		Interest:         interest,
		ConvertingAmount: sec.PrincipalAmount.Add(interest),
		Days:             asOf.DaysSince(sec.IssuedDate),
	}, nil
}
