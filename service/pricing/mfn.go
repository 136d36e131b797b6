package pricing

import (
	"github.com/alpacahq/gocaptable/models"
	"github.com/alpacahq/gocaptable/money"
	"github.com/shopspring/decimal"
)

// ResolveMFN returns the effective terms of every security in a
// round's batch, keyed by security id. It must run before any
// security of the batch is priced.
//
// A SAFE holding a most favored nation clause takes the lowest cap and
// the highest discount found among itself and the batch's SAFEs
// issued on or after its own issue date. Peers are always compared
// by their stated terms, never by their resolved ones, so the result
// does not depend on batch order and mutual MFN holders cannot chase
// each other.
func ResolveMFN(batch []models.ConvertibleSecurity) (map[string]Terms, error) {
	stated := make(map[string]Terms, len(batch))
	for i := range batch {
		terms, err := TermsOf(&batch[i])
		if err != nil {
			return nil, err
		}
		stated[batch[i].ID] = terms
	}

	resolved := make(map[string]Terms, len(batch))

	for i := range batch {
		sec := &batch[i]
		own := stated[sec.ID]

		if sec.Safe == nil || !sec.Safe.MostFavoredNation {
			resolved[sec.ID] = own
			continue
		}

		effective := own
		effective.MFN = false

		for j := range batch {
			peer := &batch[j]
			if peer.ID == sec.ID || peer.Safe == nil || peer.IssuedDate.Before(sec.IssuedDate) {
				continue
			}

			peerTerms := stated[peer.ID]

			if better := lowerOf(effective.ValuationCap, peerTerms.ValuationCap); better != effective.ValuationCap {
				effective.ValuationCap = better
				effective.MFN = true
			}
			if better := higherOf(effective.DiscountRate, peerTerms.DiscountRate); better != effective.DiscountRate {
				effective.DiscountRate = better
				effective.MFN = true
			}
		}

		resolved[sec.ID] = effective
	}

	return resolved, nil
}

// lowerOf returns current unless candidate is strictly lower. A
// missing cap is the least favorable one.
func lowerOf(current, candidate *decimal.Decimal) *decimal.Decimal {
	if candidate == nil {
		return current
	}
	if current == nil || candidate.LessThan(*current) {
		return money.Ptr(*candidate)
	}
	return current
}

// higherOf returns current unless candidate is strictly higher.
func higherOf(current, candidate *decimal.Decimal) *decimal.Decimal {
	if candidate == nil {
		return current
	}
	if current == nil || candidate.GreaterThan(*current) {
		return money.Ptr(*candidate)
	}
	return current
}
