package conversion

import (
	"strconv"
	"sync"

	"github.com/alpacahq/gocaptable/gberrors"
	"github.com/alpacahq/gocaptable/models"
	"github.com/alpacahq/gocaptable/models/enum"
	"github.com/alpacahq/gocaptable/service/accrual"
	"github.com/alpacahq/gocaptable/service/captable"
	"github.com/alpacahq/gocaptable/service/issuance"
	"github.com/alpacahq/gocaptable/service/pricing"
	"github.com/alpacahq/gocaptable/service/qualify"
	"github.com/alpacahq/gocaptable/service/round"
	"github.com/alpacahq/gocaptable/service/security"
	"github.com/alpacahq/gocaptable/utils/date"
	"github.com/alpacahq/gocaptable/utils/db"
	"github.com/alpacahq/gocaptable/utils/env"
	"github.com/alpacahq/gocaptable/utils/log"
	"github.com/gofrs/uuid"
	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
	try "gopkg.in/matryer/try.v1"
)

// Notifier is handed every committed conversion.
type Notifier func(sec *models.ConvertibleSecurity, conv *models.Conversion) error

type Request struct {
	SecurityID string
	RoundID    string
	// Terms overrides the security's own terms, set by callers that
	// resolved MFN terms for a whole round batch up front
	Terms *pricing.Terms
	// FullyDilutedShares pins the pre-round share count cap prices
	// divide by, so every security of a batch sees the same count.
	// When nil it is derived from the latest cap table.
	FullyDilutedShares *decimal.Decimal
	// Force converts securities that have auto conversion disabled
	Force bool
}

type Outcome struct {
	SecurityID string
	RoundID    string
	State      enum.EvaluationState
	Reason     enum.QualifyReason
	Quote      *pricing.Quote
	Conversion *models.Conversion
	Snapshot   *models.CapTableSnapshot
	// Skipped is true when an earlier evaluation already settled
	// the pair and nothing was done
	Skipped bool
}

type ConversionService interface {
	Convert(req Request) (*Outcome, error)
	GetBySecurity(securityID string) (*models.Conversion, error)
	ListByStartup(startupID string) ([]models.Conversion, error)
	Evaluation(securityID, roundID string) (*models.ConversionEvaluation, error)
	WithTx(tx *gorm.DB) ConversionService
}

type conversionService struct {
	ConversionService
	tx     *gorm.DB
	notify Notifier
}

func Service(notify Notifier) ConversionService {
	return &conversionService{notify: notify}
}

// WithTx sets the connection conversions begin their transactions on
// and lookups read from.
func (s *conversionService) WithTx(tx *gorm.DB) ConversionService {
	s.tx = tx
	return s
}

var locks sync.Map

// lock serializes conversions of one startup within the process.
func lock(startupID string) func() {
	v, _ := locks.LoadOrStore(startupID, &sync.Mutex{})
	m := v.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

func retries() int {
	n, err := strconv.Atoi(env.GetVar("CONVERSION_RETRIES"))
	if err != nil || n < 1 {
		return 3
	}
	return n
}

// Convert evaluates one (security, round) pair and, when the round
// qualifies, converts the security in a single transaction. A cap
// table written concurrently by another process makes the attempt
// start over from the new latest version.
func (s *conversionService) Convert(req Request) (*Outcome, error) {
	sec, err := security.Service().WithTx(s.conn()).GetByID(req.SecurityID)
	if err != nil {
		return nil, err
	}

	unlock := lock(sec.StartupID)
	defer unlock()

	attempts := retries()

	var out *Outcome

	err = try.Do(func(attempt int) (bool, error) {
		out, err = s.attempt(req)
		if gberrors.Is(err, gberrors.ConcurrentModification) {
			log.Warn(
				"conversion hit a concurrent cap table write",
				"security", req.SecurityID,
				"round", req.RoundID,
				"attempt", attempt,
				"error", err)
			return attempt < attempts, err
		}
		return false, err
	})

	if err != nil {
		return nil, err
	}

	if out.Conversion != nil && s.notify != nil {
		// the copy loaded up front still reads ACTIVE
		if converted, rErr := security.Service().WithTx(s.conn()).GetByID(sec.ID); rErr == nil {
			sec = converted
		} else {
			at := out.Conversion.CreatedAt
			sec.Status = enum.Converted
			sec.ConvertedAt = &at
		}

		if nErr := s.notify(sec, out.Conversion); nErr != nil {
			log.Error(
				"failed to send conversion notification",
				"security", sec.ID,
				"conversion", out.Conversion.ID,
				"error", nErr)
		}
	}

	return out, nil
}

func (s *conversionService) conn() *gorm.DB {
	if s.tx != nil {
		return s.tx
	}
	return db.DB()
}

func (s *conversionService) attempt(req Request) (out *Outcome, err error) {
	tx := db.Serializable(s.conn())
	if tx.Error != nil {
		return nil, gberrors.InternalServerError.WithError(tx.Error)
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	out, err = s.evaluate(tx, req)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit().Error; err != nil {
		if db.IsSerializabilityError(err) || db.IsUniqueViolation(err) {
			return nil, gberrors.ConcurrentModification.WithError(err)
		}
		return nil, gberrors.InternalServerError.WithError(err)
	}

	return out, nil
}

func (s *conversionService) evaluate(tx *gorm.DB, req Request) (*Outcome, error) {
	secs := security.Service().WithTx(tx)
	capTables := captable.Service().WithTx(tx)

	sec, err := secs.GetByID(req.SecurityID)
	if err != nil {
		return nil, err
	}

	if !sec.Active() {
		return nil, gberrors.AlreadyConverted.WithMsgf("security %v is %v", sec.ID, sec.Status)
	}

	rnd, err := round.Service().WithTx(tx).GetByID(req.RoundID)
	if err != nil {
		return nil, err
	}

	out := &Outcome{SecurityID: sec.ID, RoundID: rnd.ID}

	eval, err := findEvaluation(tx, sec.ID, rnd.ID)
	if err != nil {
		return nil, err
	}

	if eval != nil && eval.Settled() && !req.Force {
		out.State = eval.State
		out.Reason = eval.Reason
		out.Skipped = true
		return out, nil
	}

	res := qualify.Evaluate(sec, rnd)
	out.Reason = res.Reason

	if !res.Qualified {
		out.State = enum.Disqualified
		return out, saveEvaluation(tx, sec.ID, rnd.ID, out)
	}

	terms := req.Terms
	if terms == nil {
		if terms, err = s.resolveTerms(tx, sec); err != nil {
			return nil, err
		}
	}

	base, err := capTables.Latest(sec.StartupID)
	switch {
	case gberrors.IsNotFound(err):
		base = &models.CapTableSnapshot{StartupID: sec.StartupID}
	case err != nil:
		return nil, err
	}

	fdShares := base.FullyDilutedBefore(rnd.ID)
	if req.FullyDilutedShares != nil {
		fdShares = *req.FullyDilutedShares
	}

	if out.Quote, err = pricing.PriceWithTerms(*terms, rnd, fdShares); err != nil {
		return nil, err
	}

	if !sec.AutoConversion && !req.Force {
		out.State = enum.Eligible
		return out, saveEvaluation(tx, sec.ID, rnd.ID, out)
	}

	asOf := date.DateOf(rnd.CreatedAt)
	amount := sec.PrincipalAmount
	interest := decimal.Zero
	var accrued *decimal.Decimal

	if sec.Kind == enum.Note {
		a, err := accrual.ForNote(sec, asOf)
		if err != nil {
			return nil, err
		}
		amount = a.ConvertingAmount
		interest = a.Interest
		accrued = &a.Interest
	}

	conversionID := uuid.Must(uuid.NewV4()).String()
	class := issuance.TargetClass(sec, rnd)

	issued, err := issuance.Issue(base, issuance.Request{
		HolderID:     sec.InvestorID,
		HolderName:   sec.InvestorID,
		ShareClass:   class,
		Amount:       amount,
		Principal:    sec.PrincipalAmount,
		Price:        out.Quote.ConversionPrice,
		AsOf:         asOf,
		RoundID:      &rnd.ID,
		ConversionID: &conversionID,
	})
	if err != nil {
		return nil, err
	}

	// the status guard goes first so a lost race fails before
	// anything else is written
	if err = secs.MarkConverted(sec.ID, accrued); err != nil {
		return nil, err
	}

	if err = capTables.Create(issued.Snapshot); err != nil {
		return nil, err
	}

	conv := &models.Conversion{
		ID:               conversionID,
		SecurityID:       sec.ID,
		RoundID:          rnd.ID,
		StartupID:        sec.StartupID,
		InvestorID:       sec.InvestorID,
		SnapshotID:       issued.Snapshot.ID,
		Kind:             sec.Kind,
		ShareClass:       class,
		Principal:        sec.PrincipalAmount,
		AccruedInterest:  interest,
		ConvertingAmount: amount,
		RoundPrice:       out.Quote.RoundPrice,
		CapPrice:         out.Quote.CapPrice,
		DiscountPrice:    out.Quote.DiscountPrice,
		ConversionPrice:  out.Quote.ConversionPrice,
		Shares:           issued.Shares,
		Residual:         issued.Residual,
	}

	if err = tx.Create(conv).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, gberrors.AlreadyConverted.WithError(err)
		}
		return nil, gberrors.InternalServerError.WithError(err)
	}

	out.State = enum.EvalConverted
	out.Conversion = conv
	out.Snapshot = issued.Snapshot

	return out, saveEvaluation(tx, sec.ID, rnd.ID, out)
}

// resolveTerms applies MFN against the startup's other active SAFEs.
func (s *conversionService) resolveTerms(tx *gorm.DB, sec *models.ConvertibleSecurity) (*pricing.Terms, error) {
	if sec.Kind != enum.Safe || sec.Safe == nil || !sec.Safe.MostFavoredNation {
		terms, err := pricing.TermsOf(sec)
		if err != nil {
			return nil, err
		}
		return &terms, nil
	}

	batch, err := security.Service().WithTx(tx).ListActive(sec.StartupID, 0)
	if err != nil {
		return nil, err
	}

	resolved, err := pricing.ResolveMFN(batch)
	if err != nil {
		return nil, err
	}

	terms, ok := resolved[sec.ID]
	if !ok {
		return nil, gberrors.InternalServerError.WithMsgf("no terms resolved for security %v", sec.ID)
	}

	return &terms, nil
}

func findEvaluation(tx *gorm.DB, securityID, roundID string) (*models.ConversionEvaluation, error) {
	eval := &models.ConversionEvaluation{}

	q := tx.Where("security_id = ? AND round_id = ?", securityID, roundID).First(eval)

	if q.RecordNotFound() {
		return nil, nil
	}

	if q.Error != nil {
		return nil, gberrors.InternalServerError.WithError(q.Error)
	}

	return eval, nil
}

func saveEvaluation(tx *gorm.DB, securityID, roundID string, out *Outcome) error {
	eval, err := findEvaluation(tx, securityID, roundID)
	if err != nil {
		return err
	}

	if eval == nil {
		eval = &models.ConversionEvaluation{SecurityID: securityID, RoundID: roundID}
	}

	eval.State = out.State
	eval.Reason = out.Reason
	eval.ConversionPrice = nil
	eval.ConversionID = nil

	if out.Quote != nil {
		price := out.Quote.ConversionPrice
		eval.ConversionPrice = &price
	}

	if out.Conversion != nil {
		id := out.Conversion.ID
		eval.ConversionID = &id
	}

	if err = tx.Save(eval).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return gberrors.ConcurrentModification.WithError(err)
		}
		return gberrors.InternalServerError.WithError(err)
	}

	return nil
}

func (s *conversionService) GetBySecurity(securityID string) (*models.Conversion, error) {
	conv := &models.Conversion{}

	q := s.conn().Where("security_id = ?", securityID).First(conv)

	if q.RecordNotFound() {
		return nil, gberrors.NotFound.WithMsg("conversion not found")
	}

	if q.Error != nil {
		return nil, gberrors.InternalServerError.WithError(q.Error)
	}

	return conv, nil
}

func (s *conversionService) ListByStartup(startupID string) ([]models.Conversion, error) {
	convs := []models.Conversion{}

	q := s.conn().Where("startup_id = ?", startupID).Order("created_at asc").Find(&convs)

	if q.Error != nil {
		return nil, gberrors.InternalServerError.WithError(q.Error)
	}

	return convs, nil
}

func (s *conversionService) Evaluation(securityID, roundID string) (*models.ConversionEvaluation, error) {
	eval, err := findEvaluation(s.conn(), securityID, roundID)
	if err != nil {
		return nil, err
	}

	if eval == nil {
		return nil, gberrors.NotFound.WithMsg("evaluation not found")
	}

	return eval, nil
}
