package waterfall

import (
	"github.com/alpacahq/gocaptable/gberrors"
	"github.com/alpacahq/gocaptable/models"
	"github.com/alpacahq/gocaptable/models/enum"
	"github.com/alpacahq/gocaptable/money"
	"github.com/alpacahq/gocaptable/service/captable"
	"github.com/shopspring/decimal"
)

type Payout struct {
	HolderID        string          `csv:"holder_id"`
	Name            string          `csv:"name"`
	Investment      decimal.Decimal `csv:"investment"`
	Preference      decimal.Decimal `csv:"preference"`
	Participation   decimal.Decimal `csv:"participation"`
	Total           decimal.Decimal `csv:"total"`
	ReturnMultiple  decimal.Decimal `csv:"return_multiple"`
	OwnershipAtExit decimal.Decimal `csv:"ownership_at_exit"`
}

type ClassPayout struct {
	Name          string
	SeniorityRank int
	Owed          decimal.Decimal
	Paid          decimal.Decimal
}

type Result struct {
	Proceeds    decimal.Decimal
	Distributed decimal.Decimal
	// Unallocated is what truncation or an empty common pool left over
	Unallocated decimal.Decimal
	Classes     []ClassPayout
	Payouts     []Payout
}

// Payout returns the holder's payout, or nil.
func (r *Result) Payout(holderID string) *Payout {
	for i := range r.Payouts {
		if r.Payouts[i].HolderID == holderID {
			return &r.Payouts[i]
		}
	}
	return nil
}

// Run allocates exit proceeds through the liquidation preference stack
// of snap. Preferred classes are paid most senior first, classes of
// equal rank share their tier pro rata to what they are owed, and what
// remains goes to common and participating preferred shares. Once the
// proceeds run out everything junior gets exactly zero.
func Run(snap *models.CapTableSnapshot, proceeds decimal.Decimal) (*Result, error) {
	if proceeds.IsNegative() {
		return nil, gberrors.InvalidInput.WithMsg("exit proceeds must not be negative")
	}

	table, err := snap.Clone()
	if err != nil {
		return nil, gberrors.InternalServerError.WithError(err)
	}
	captable.Recompute(table)

	payouts := make([]Payout, len(table.Stakeholders))
	index := map[string]int{}
	for i, sh := range table.Stakeholders {
		index[sh.HolderID] = i
		payouts[i] = Payout{
			HolderID:        sh.HolderID,
			Name:            sh.Name,
			Investment:      sh.TotalInvestment,
			OwnershipAtExit: sh.CurrentOwnership,
		}
	}

	res := &Result{Proceeds: proceeds}
	remaining := proceeds

	preferred := table.ClassesBySeniority()
	exhausted := false

	for start := 0; start < len(preferred); {
		end := start
		for end < len(preferred) && preferred[end].SeniorityRank == preferred[start].SeniorityRank {
			end++
		}
		tier := preferred[start:end]
		start = end

		owed := make([]decimal.Decimal, len(tier))
		tierOwed := money.Zero
		for i := range tier {
			if owed[i], err = preferenceOwed(&tier[i]); err != nil {
				return nil, err
			}
			tierOwed = tierOwed.Add(owed[i])
		}

		// a senior tier already ran out, nothing below gets paid
		tierPaid := money.Zero
		if !exhausted {
			tierPaid = money.Min(remaining, tierOwed)
			exhausted = tierPaid.LessThan(tierOwed)
		}

		for i := range tier {
			paid := owed[i]
			if tierPaid.LessThan(tierOwed) {
				share, err := money.Div(tierPaid.Mul(owed[i]), tierOwed)
				if err != nil {
					return nil, err
				}
				paid = money.Money(share)
			}

			name := tier[i].Name
			paid, err = distribute(table, payouts, index, paid, func(h models.Holding) bool {
				return h.ShareClass == name
			}, func(p *Payout, amt decimal.Decimal) {
				p.Preference = p.Preference.Add(amt)
			})
			if err != nil {
				return nil, err
			}

			remaining = remaining.Sub(paid)
			res.Classes = append(res.Classes, ClassPayout{
				Name:          name,
				SeniorityRank: tier[i].SeniorityRank,
				Owed:          owed[i],
				Paid:          paid,
			})
		}
	}

	participates := map[string]bool{}
	for _, c := range table.ShareClasses {
		if c.Type == enum.Common || (c.Type == enum.Preferred && c.Participating) {
			participates[c.Name] = true
		}
	}

	if !exhausted && remaining.IsPositive() {
		paid, err := distribute(table, payouts, index, remaining, func(h models.Holding) bool {
			return participates[h.ShareClass]
		}, func(p *Payout, amt decimal.Decimal) {
			p.Participation = p.Participation.Add(amt)
		})
		if err != nil {
			return nil, err
		}
		remaining = remaining.Sub(paid)
	}

	res.Distributed = money.Zero
	for i := range payouts {
		p := &payouts[i]
		p.Total = p.Preference.Add(p.Participation)
		res.Distributed = res.Distributed.Add(p.Total)

		if p.Investment.IsPositive() {
			if p.ReturnMultiple, err = money.Div(p.Total, p.Investment); err != nil {
				return nil, err
			}
		} else {
			p.ReturnMultiple = money.Zero
		}
	}

	res.Unallocated = remaining
	res.Payouts = payouts

	return res, nil
}

// preferenceOwed is outstanding x price x preference, capped at
// outstanding x price x multiple when a multiple is set.
func preferenceOwed(c *models.ShareClass) (decimal.Decimal, error) {
	if !c.LiquidationPreference.IsPositive() || !c.SharesOutstanding.IsPositive() {
		return money.Zero, nil
	}

	if c.PricePerShare == nil {
		return money.Zero, gberrors.IncompleteCapTableData.WithMsgf(
			"share class %q has a liquidation preference but no price per share", c.Name)
	}

	invested := c.SharesOutstanding.Mul(*c.PricePerShare)
	owed := invested.Mul(c.LiquidationPreference)

	if c.LiquidationMultiple != nil {
		owed = money.Min(owed, invested.Mul(*c.LiquidationMultiple))
	}

	return money.Money(owed), nil
}

// distribute splits amount across stakeholders pro rata to the shares
// matched by qualifies and returns what was actually handed out,
// which truncation may leave slightly below amount.
func distribute(
	table *models.CapTableSnapshot,
	payouts []Payout,
	index map[string]int,
	amount decimal.Decimal,
	qualifies func(models.Holding) bool,
	credit func(*Payout, decimal.Decimal)) (decimal.Decimal, error) {

	if !amount.IsPositive() {
		return money.Zero, nil
	}

	total := money.Zero
	for _, sh := range table.Stakeholders {
		for _, h := range sh.Holdings {
			if qualifies(h) {
				total = total.Add(h.Shares)
			}
		}
	}

	if !total.IsPositive() {
		return money.Zero, nil
	}

	paid := money.Zero
	for _, sh := range table.Stakeholders {
		shares := money.Zero
		for _, h := range sh.Holdings {
			if qualifies(h) {
				shares = shares.Add(h.Shares)
			}
		}
		if shares.IsZero() {
			continue
		}

		share, err := money.Div(amount.Mul(shares), total)
		if err != nil {
			return money.Zero, err
		}
		amt := money.Money(share)

		credit(&payouts[index[sh.HolderID]], amt)
		paid = paid.Add(amt)
	}

	return paid, nil
}
