package pricing

import (
	"github.com/alpacahq/gocaptable/gberrors"
	"github.com/alpacahq/gocaptable/models"
	"github.com/alpacahq/gocaptable/money"
	"github.com/shopspring/decimal"
)

// Terms are the cap and discount a security converts with. For MFN
// holders these may be better than what the security itself states.
type Terms struct {
	ValuationCap *decimal.Decimal
	DiscountRate *decimal.Decimal
	// MFN is true when a peer's terms replaced the holder's own
	MFN bool
}

type Quote struct {
	RoundPrice         decimal.Decimal
	CapPrice           *decimal.Decimal
	DiscountPrice      *decimal.Decimal
	ConversionPrice    decimal.Decimal
	FullyDilutedShares decimal.Decimal
	Terms              Terms
}

// TermsOf returns the security's own conversion terms.
func TermsOf(sec *models.ConvertibleSecurity) (Terms, error) {
	inst, err := sec.Instrument()
	if err != nil {
		return Terms{}, gberrors.InvalidInput.WithError(err)
	}

	switch t := inst.(type) {
	case *models.SafeTerms:
		return Terms{ValuationCap: t.ValuationCap, DiscountRate: t.DiscountRate}, nil
	case *models.NoteTerms:
		return Terms{ValuationCap: t.ValuationCap, DiscountRate: t.DiscountRate}, nil
	default:
		return Terms{}, gberrors.InvalidInput.WithError(models.ErrUnknownVariant)
	}
}

// Price quotes sec against round using its own terms.
func Price(sec *models.ConvertibleSecurity, round *models.EquityRound, fdShares decimal.Decimal) (*Quote, error) {
	terms, err := TermsOf(sec)
	if err != nil {
		return nil, err
	}
	return PriceWithTerms(terms, round, fdShares)
}

// PriceWithTerms computes the conversion price as the lowest of the
// round price, the cap price and the discounted round price.
func PriceWithTerms(terms Terms, round *models.EquityRound, fdShares decimal.Decimal) (*Quote, error) {
	if !round.Priced() {
		return nil, gberrors.NoApplicablePricing.WithMsgf("round %v has no price per share", round.ID)
	}

	roundPrice := *round.PricePerShare

	q := &Quote{
		RoundPrice:      roundPrice,
		ConversionPrice: roundPrice,
		Terms:           terms,
	}

	if terms.ValuationCap != nil {
		if terms.ValuationCap.IsNegative() {
			return nil, gberrors.InvalidInput.WithMsg("valuation cap must not be negative")
		}

		shares, err := FullyDilutedAtRound(round, fdShares)
		if err != nil {
			return nil, err
		}

		capPrice, err := money.Div(*terms.ValuationCap, shares)
		if err != nil {
			return nil, err
		}

		q.FullyDilutedShares = shares
		q.CapPrice = &capPrice
		q.ConversionPrice = money.Min(q.ConversionPrice, capPrice)
	}

	if terms.DiscountRate != nil {
		if !money.ValidPercent(*terms.DiscountRate) {
			return nil, gberrors.InvalidInput.WithMsgf("discount rate %v is not a percentage", terms.DiscountRate)
		}

		discountPrice := roundPrice.Mul(money.One.Sub(money.Fraction(*terms.DiscountRate))).
			Truncate(money.DivisionPrecision)

		q.DiscountPrice = &discountPrice
		q.ConversionPrice = money.Min(q.ConversionPrice, discountPrice)
	}

	if !q.ConversionPrice.IsPositive() {
		return nil, gberrors.DivisionByZero.WithMsg("conversion price is zero")
	}

	return q, nil
}

// FullyDilutedAtRound returns the share count a valuation cap is
// divided by. The cap table's count is used when known, otherwise it
// is implied from the round's valuation and price.
func FullyDilutedAtRound(round *models.EquityRound, fdShares decimal.Decimal) (decimal.Decimal, error) {
	if fdShares.IsPositive() {
		return fdShares, nil
	}

	valuation := round.Valuation()
	if !valuation.IsPositive() || !round.Priced() {
		return money.Zero, gberrors.IncompleteCapTableData.WithMsgf(
			"no fully diluted share count for round %v", round.ID)
	}

	implied, err := money.DivP(valuation, *round.PricePerShare, 0)
	if err != nil {
		return money.Zero, err
	}

	if !implied.IsPositive() {
		return money.Zero, gberrors.IncompleteCapTableData.WithMsgf(
			"no fully diluted share count for round %v", round.ID)
	}

	return implied, nil
}
