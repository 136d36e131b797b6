package dilution

import (
	"github.com/alpacahq/gocaptable/gberrors"
	"github.com/alpacahq/gocaptable/models"
	"github.com/alpacahq/gocaptable/money"
	"github.com/alpacahq/gocaptable/service/captable"
	"github.com/shopspring/decimal"
)

type Scenario struct {
	Investment decimal.Decimal `yaml:"investment"`
	PreMoney   decimal.Decimal `yaml:"pre_money"`
}

type StakeholderDilution struct {
	HolderID string          `csv:"holder_id"`
	Name     string          `csv:"name"`
	Shares   decimal.Decimal `csv:"shares"`
	// percentages of the fully diluted share count
	CurrentOwnership   decimal.Decimal `csv:"current_ownership"`
	NewOwnership       decimal.Decimal `csv:"new_ownership"`
	Dilution           decimal.Decimal `csv:"dilution"`
	DilutionPercentage decimal.Decimal `csv:"dilution_percentage"`
}

type Projection struct {
	Investment       decimal.Decimal
	PreMoney         decimal.Decimal
	PostMoney        decimal.Decimal
	PricePerShare    decimal.Decimal
	NewShares        decimal.Decimal
	SharesBefore     decimal.Decimal
	TotalSharesAfter decimal.Decimal
	// NewInvestorOwnership is the percentage the round buys
	NewInvestorOwnership decimal.Decimal
	Stakeholders         []StakeholderDilution
}

// Project estimates what a round of investment at preMoney would do to
// every stakeholder's fully diluted ownership. snap is not modified.
func Project(snap *models.CapTableSnapshot, investment, preMoney decimal.Decimal) (*Projection, error) {
	if investment.IsNegative() {
		return nil, gberrors.InvalidInput.WithMsg("investment must not be negative")
	}
	if !preMoney.IsPositive() {
		return nil, gberrors.InvalidInput.WithMsg("pre money valuation must be positive")
	}

	// work on a copy so derived values on snap stay as they were
	current, err := snap.Clone()
	if err != nil {
		return nil, gberrors.InternalServerError.WithError(err)
	}
	captable.Recompute(current)

	fd := current.FullyDilutedShares
	if !fd.IsPositive() {
		return nil, gberrors.IncompleteCapTableData.WithMsg("cap table has no fully diluted shares")
	}

	price, err := money.Div(preMoney, fd)
	if err != nil {
		return nil, err
	}

	newShares, err := money.Div(investment, price)
	if err != nil {
		return nil, err
	}

	after := fd.Add(newShares)

	p := &Projection{
		Investment:       investment,
		PreMoney:         preMoney,
		PostMoney:        preMoney.Add(investment),
		PricePerShare:    price,
		NewShares:        newShares,
		SharesBefore:     fd,
		TotalSharesAfter: after,
		Stakeholders:     make([]StakeholderDilution, 0, len(current.Stakeholders)),
	}

	p.NewInvestorOwnership, err = percentOf(newShares, after)
	if err != nil {
		return nil, err
	}

	// ownership before and after are both fully diluted, so holders of
	// options and warrants are diluted like shareholders
	for _, sh := range current.Stakeholders {
		shares := sh.TotalShares.Add(sh.Options).Add(sh.Warrants)

		newOwnership, err := percentOf(shares, after)
		if err != nil {
			return nil, err
		}

		d := StakeholderDilution{
			HolderID:           sh.HolderID,
			Name:               sh.Name,
			Shares:             shares,
			CurrentOwnership:   sh.FullyDilutedOwnership,
			NewOwnership:       newOwnership,
			Dilution:           sh.FullyDilutedOwnership.Sub(newOwnership),
			DilutionPercentage: money.Zero,
		}

		if !d.CurrentOwnership.IsZero() {
			fraction, err := money.Div(d.Dilution, d.CurrentOwnership)
			if err != nil {
				return nil, err
			}
			d.DilutionPercentage = money.Percent(fraction)
		}

		p.Stakeholders = append(p.Stakeholders, d)
	}

	return p, nil
}

// ProjectScenarios runs Project for each scenario in order.
func ProjectScenarios(snap *models.CapTableSnapshot, scenarios []Scenario) ([]*Projection, error) {
	projections := make([]*Projection, 0, len(scenarios))
	for _, sc := range scenarios {
		p, err := Project(snap, sc.Investment, sc.PreMoney)
		if err != nil {
			return nil, err
		}
		projections = append(projections, p)
	}
	return projections, nil
}

func percentOf(part, whole decimal.Decimal) (decimal.Decimal, error) {
	fraction, err := money.Div(part, whole)
	if err != nil {
		return money.Zero, err
	}
	return money.Percent(fraction), nil
}
