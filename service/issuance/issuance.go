package issuance

import (
	"strings"

	"github.com/alpacahq/gocaptable/gberrors"
	"github.com/alpacahq/gocaptable/models"
	"github.com/alpacahq/gocaptable/models/enum"
	"github.com/alpacahq/gocaptable/money"
	"github.com/alpacahq/gocaptable/service/captable"
	"github.com/alpacahq/gocaptable/utils/constants"
	"github.com/alpacahq/gocaptable/utils/date"
	"github.com/shopspring/decimal"
)

type Request struct {
	HolderID   string
	HolderName string
	ShareClass string
	// Amount converts into shares, Principal is what the holder
	// originally invested
	Amount       decimal.Decimal
	Principal    decimal.Decimal
	Price        decimal.Decimal
	AsOf         date.Date
	RoundID      *string
	ConversionID *string
}

type Result struct {
	Snapshot *models.CapTableSnapshot
	Shares   decimal.Decimal
	// Residual is the part of Amount too small to buy a whole share.
	// It is forfeited.
	Residual decimal.Decimal
	Event    models.CapTableEvent
}

// TargetClass names the share class a security converts into.
func TargetClass(sec *models.ConvertibleSecurity, round *models.EquityRound) string {
	if sec.Note != nil && strings.TrimSpace(sec.Note.SecurityType) != "" {
		return sec.Note.SecurityType
	}
	if round != nil && strings.TrimSpace(round.ShareClassName) != "" {
		return round.ShareClassName
	}
	return constants.DefaultShareClass
}

// Issue converts req.Amount into whole shares at req.Price and returns
// the next version of base with those shares issued. base itself is
// left untouched.
func Issue(base *models.CapTableSnapshot, req Request) (*Result, error) {
	if req.HolderID == "" {
		return nil, gberrors.InvalidInput.WithMsg("holder is required")
	}
	if req.ShareClass == "" {
		return nil, gberrors.InvalidInput.WithMsg("share class is required")
	}
	if req.Principal.IsNegative() {
		return nil, gberrors.InvalidInput.WithMsg("principal must not be negative")
	}

	shares, err := money.Shares(req.Amount, req.Price)
	if err != nil {
		return nil, err
	}

	if !shares.IsPositive() {
		return nil, gberrors.InvalidInput.WithMsgf(
			"%v does not buy a whole share at %v", req.Amount, req.Price)
	}

	residual := req.Amount.Sub(shares.Mul(req.Price))

	next, err := base.Clone()
	if err != nil {
		return nil, gberrors.InternalServerError.WithError(err)
	}
	next.AsOfDate = req.AsOf

	captable.Recompute(next)
	before := next.FullyDilutedShares

	if err = issueToClass(next, req, shares); err != nil {
		return nil, err
	}

	holder := next.Stakeholder(req.HolderID)
	if holder == nil {
		next.Stakeholders = append(next.Stakeholders, models.Stakeholder{
			HolderID: req.HolderID,
			Name:     req.HolderName,
			Type:     enum.Investor,
		})
		holder = &next.Stakeholders[len(next.Stakeholders)-1]
	}
	holder.AddShares(req.ShareClass, shares)
	holder.TotalInvestment = holder.TotalInvestment.Add(req.Principal)

	captable.Recompute(next)

	event := models.CapTableEvent{
		Type:         enum.EventConversion,
		RoundID:      req.RoundID,
		ConversionID: req.ConversionID,
		HolderID:     req.HolderID,
		ShareClass:   req.ShareClass,
		SharesIssued: shares,
		SharesBefore: before,
		SharesAfter:  next.FullyDilutedShares,
	}
	next.Events = append(next.Events, event)

	if err = captable.Validate(next); err != nil {
		return nil, err
	}

	return &Result{
		Snapshot: next,
		Shares:   shares,
		Residual: residual,
		Event:    event,
	}, nil
}

func issueToClass(snap *models.CapTableSnapshot, req Request, shares decimal.Decimal) error {
	class := snap.ShareClass(req.ShareClass)

	if class == nil {
		price := req.Price
		snap.ShareClasses = append(snap.ShareClasses, models.ShareClass{
			Name:                  req.ShareClass,
			Type:                  enum.Preferred,
			SharesAuthorized:      shares,
			SharesIssued:          shares,
			SharesOutstanding:     shares,
			PricePerShare:         &price,
			LiquidationPreference: money.One,
			SeniorityRank:         newSeriesRank(snap),
			VotesPerShare:         money.One,
		})
		return nil
	}

	if class.Type == enum.Option || class.Type == enum.Warrant {
		return gberrors.InvalidInput.WithMsgf("cannot convert into %v class %q", class.Type, class.Name)
	}

	available := class.SharesAuthorized.Sub(class.SharesIssued)

	// a series opened by this round's conversions grows with them
	if available.LessThan(shares) && openedByRound(snap, class, req.RoundID) {
		class.SharesAuthorized = class.SharesIssued.Add(shares)
		available = shares
	}

	if available.LessThan(shares) {
		return gberrors.InvariantViolation.WithMsgf(
			"share class %q has %v authorized shares available, %v needed",
			class.Name, available, shares)
	}

	class.SharesIssued = class.SharesIssued.Add(shares)
	class.SharesOutstanding = class.SharesOutstanding.Add(shares)

	return nil
}

// openedByRound is true when every share issued in class came from
// conversions in roundID.
func openedByRound(snap *models.CapTableSnapshot, class *models.ShareClass, roundID *string) bool {
	if roundID == nil {
		return false
	}

	converted := money.Zero
	for _, e := range snap.Events {
		if e.ShareClass != class.Name {
			continue
		}
		if e.Type != enum.EventConversion || e.RoundID == nil || *e.RoundID != *roundID {
			return false
		}
		converted = converted.Add(e.SharesIssued)
	}

	return converted.IsPositive() && converted.Equal(class.SharesIssued)
}

// newSeriesRank places a newly created series ahead of every existing
// preferred class.
func newSeriesRank(snap *models.CapTableSnapshot) int {
	rank := 1
	first := true
	for _, c := range snap.ShareClasses {
		if c.Type != enum.Preferred {
			continue
		}
		if first || c.SeniorityRank-1 < rank {
			rank = c.SeniorityRank - 1
			first = false
		}
	}
	return rank
}
