package captable

import (
	"github.com/alpacahq/gocaptable/gberrors"
	"github.com/alpacahq/gocaptable/models"
	"github.com/alpacahq/gocaptable/models/enum"
	"github.com/alpacahq/gocaptable/money"
	"github.com/alpacahq/gocaptable/utils/constants"
	"github.com/shopspring/decimal"
)

// Recompute derives share totals and ownership percentages from the
// holdings. Stored ownership values are never trusted.
func Recompute(snap *models.CapTableSnapshot) {
	outstanding := money.Zero
	fullyDiluted := money.Zero

	for i := range snap.Stakeholders {
		sh := &snap.Stakeholders[i]
		sh.TotalShares = money.Zero
		for _, h := range sh.Holdings {
			sh.TotalShares = sh.TotalShares.Add(h.Shares)
		}
		outstanding = outstanding.Add(sh.TotalShares)
		fullyDiluted = fullyDiluted.Add(sh.TotalShares).Add(sh.Options).Add(sh.Warrants)
	}

	for i := range snap.Stakeholders {
		sh := &snap.Stakeholders[i]
		sh.CurrentOwnership = percentOf(sh.TotalShares, outstanding)
		sh.FullyDilutedOwnership = percentOf(sh.TotalShares.Add(sh.Options).Add(sh.Warrants), fullyDiluted)
	}

	snap.FullyDilutedShares = fullyDiluted
}

func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return money.Zero
	}
	fraction, _ := money.Div(part, whole)
	return money.Percent(fraction)
}

// OutstandingShares sums every stakeholder's holdings.
func OutstandingShares(snap *models.CapTableSnapshot) decimal.Decimal {
	total := money.Zero
	for i := range snap.Stakeholders {
		for _, h := range snap.Stakeholders[i].Holdings {
			total = total.Add(h.Shares)
		}
	}
	return total
}

// Validate fails with InvariantViolation when the snapshot is not a
// consistent cap table. It expects derived values to be recomputed.
func Validate(snap *models.CapTableSnapshot) error {
	classes := map[string]*models.ShareClass{}
	held := map[string]decimal.Decimal{}

	for i := range snap.ShareClasses {
		c := &snap.ShareClasses[i]

		if _, dup := classes[c.Name]; dup {
			return gberrors.InvariantViolation.WithMsgf("duplicate share class %q", c.Name)
		}
		classes[c.Name] = c

		switch {
		case c.SharesOutstanding.IsNegative():
			return gberrors.InvariantViolation.WithMsgf("share class %q has negative outstanding shares", c.Name)
		case c.SharesOutstanding.GreaterThan(c.SharesIssued):
			return gberrors.InvariantViolation.WithMsgf("share class %q has more shares outstanding than issued", c.Name)
		case c.SharesIssued.GreaterThan(c.SharesAuthorized):
			return gberrors.InvariantViolation.WithMsgf("share class %q has more shares issued than authorized", c.Name)
		case c.LiquidationPreference.IsNegative():
			return gberrors.InvariantViolation.WithMsgf("share class %q has a negative liquidation preference", c.Name)
		}
	}

	holders := map[string]bool{}

	for i := range snap.Stakeholders {
		sh := &snap.Stakeholders[i]

		if holders[sh.HolderID] {
			return gberrors.InvariantViolation.WithMsgf("duplicate stakeholder %q", sh.HolderID)
		}
		holders[sh.HolderID] = true

		if sh.Options.IsNegative() || sh.Warrants.IsNegative() || sh.TotalInvestment.IsNegative() {
			return gberrors.InvariantViolation.WithMsgf("stakeholder %q has negative balances", sh.HolderID)
		}

		for _, h := range sh.Holdings {
			if h.Shares.IsNegative() {
				return gberrors.InvariantViolation.WithMsgf("stakeholder %q holds negative %q shares", sh.HolderID, h.ShareClass)
			}
			if _, ok := classes[h.ShareClass]; !ok {
				return gberrors.InvariantViolation.WithMsgf("stakeholder %q holds unknown share class %q", sh.HolderID, h.ShareClass)
			}
			held[h.ShareClass] = held[h.ShareClass].Add(h.Shares)
		}
	}

	for name, c := range classes {
		if !held[name].Equal(c.SharesOutstanding) {
			return gberrors.InvariantViolation.WithMsgf(
				"share class %q has %v shares outstanding but stakeholders hold %v",
				name, c.SharesOutstanding, held[name])
		}
	}

	if OutstandingShares(snap).IsPositive() {
		total := money.Zero
		for i := range snap.Stakeholders {
			total = total.Add(snap.Stakeholders[i].CurrentOwnership)
		}
		if !money.WithinEpsilon(total, money.Hundred, constants.OwnershipEpsilon) {
			return gberrors.InvariantViolation.WithMsgf("ownership sums to %v%%", total)
		}
	}

	for _, e := range snap.Events {
		if e.RoundID == nil && e.ConversionID == nil {
			return gberrors.InvariantViolation.WithMsgf("%v event for %q has no cause", e.Type, e.HolderID)
		}
		if e.Type == enum.EventConversion && e.ConversionID == nil {
			return gberrors.InvariantViolation.WithMsgf("conversion event for %q has no conversion", e.HolderID)
		}
	}

	return nil
}

// Normalize recomputes the derived values and validates the result.
func Normalize(snap *models.CapTableSnapshot) error {
	Recompute(snap)
	return Validate(snap)
}
