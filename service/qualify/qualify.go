package qualify

import (
	"github.com/alpacahq/gocaptable/models"
	"github.com/alpacahq/gocaptable/models/enum"
	"github.com/alpacahq/gocaptable/utils/date"
)

type Result struct {
	Qualified bool
	Reason    enum.QualifyReason
}

// Evaluate decides whether round is a qualified financing for sec.
// It runs before any pricing so that non qualifying rounds never
// reach the pricing math.
func Evaluate(sec *models.ConvertibleSecurity, round *models.EquityRound) Result {
	switch {
	case !sec.Active():
		return Result{Reason: enum.ReasonNotActive}
	case sec.StartupID != round.StartupID:
		return Result{Reason: enum.ReasonStartupMismatch}
	case predates(sec, round):
		return Result{Reason: enum.ReasonRoundPredates}
	case !round.Priced():
		return Result{Reason: enum.ReasonNoPrice}
	}

	// no threshold: any priced round qualifies
	if sec.QualifiedFinancingThreshold != nil &&
		round.Raised().LessThan(*sec.QualifiedFinancingThreshold) {
		return Result{Reason: enum.ReasonBelowThreshold}
	}

	return Result{Qualified: true, Reason: enum.ReasonQualified}
}

// predates is true for rounds created before the security existed.
// Unset dates never predate.
func predates(sec *models.ConvertibleSecurity, round *models.EquityRound) bool {
	if round.CreatedAt.IsZero() || !sec.IssuedDate.IsValid() {
		return false
	}
	return date.DateOf(round.CreatedAt).Before(sec.IssuedDate)
}
