package security

import (
	"github.com/alpacahq/gocaptable/gberrors"
	"github.com/alpacahq/gocaptable/models"
	"github.com/alpacahq/gocaptable/models/enum"
	"github.com/alpacahq/gocaptable/utils/clock"
	"github.com/alpacahq/gocaptable/utils/date"
	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

type SecurityService interface {
	GetByID(id string) (*models.ConvertibleSecurity, error)
	Create(sec *models.ConvertibleSecurity) (*models.ConvertibleSecurity, error)
	ListActive(startupID string, limit int) ([]models.ConvertibleSecurity, error)
	ListMatured(asOf date.Date, limit int) ([]models.ConvertibleSecurity, error)
	MarkConverted(id string, accruedInterest *decimal.Decimal) error
	Dissolve(id string) error
	Repay(id string) error
	WithTx(tx *gorm.DB) SecurityService
}

type securityService struct {
	SecurityService
	tx *gorm.DB
}

func Service() SecurityService {
	return &securityService{}
}

func (s *securityService) WithTx(tx *gorm.DB) SecurityService {
	s.tx = tx
	return s
}

func (s *securityService) GetByID(id string) (*models.ConvertibleSecurity, error) {
	sec := &models.ConvertibleSecurity{}

	q := s.tx.Preload("Safe").Preload("Note").Where("id = ?", id).First(sec)

	if q.RecordNotFound() {
		return nil, gberrors.NotFound.WithMsg("security not found")
	}

	if q.Error != nil {
		return nil, gberrors.InternalServerError.WithError(q.Error)
	}

	return sec, nil
}

func (s *securityService) Create(sec *models.ConvertibleSecurity) (*models.ConvertibleSecurity, error) {
	if err := sec.Validate(); err != nil {
		return nil, gberrors.InvalidInput.WithMsg(err.Error())
	}

	if sec.Status != "" && sec.Status != enum.Active {
		return nil, gberrors.InvalidInput.WithMsg("securities are created active")
	}

	if err := s.tx.Create(sec).Error; err != nil {
		return nil, gberrors.InternalServerError.WithError(err)
	}

	return sec, nil
}

// ListActive returns the startup's ACTIVE securities, oldest issue
// first.
func (s *securityService) ListActive(startupID string, limit int) ([]models.ConvertibleSecurity, error) {
	secs := []models.ConvertibleSecurity{}

	q := s.tx.Preload("Safe").Preload("Note").
		Where("startup_id = ? AND status = ?", startupID, enum.Active).
		Order("issued_date asc, created_at asc")

	if limit > 0 {
		q = q.Limit(limit)
	}

	if err := q.Find(&secs).Error; err != nil {
		return nil, gberrors.InternalServerError.WithError(err)
	}

	return secs, nil
}

// ListMatured returns ACTIVE notes whose maturity date is before asOf.
func (s *securityService) ListMatured(asOf date.Date, limit int) ([]models.ConvertibleSecurity, error) {
	secs := []models.ConvertibleSecurity{}

	q := s.tx.Preload("Note").
		Joins("JOIN note_terms ON note_terms.security_id = convertible_securities.id").
		Where("convertible_securities.status = ? AND note_terms.maturity_date < ?", enum.Active, asOf).
		Order("note_terms.maturity_date asc")

	if limit > 0 {
		q = q.Limit(limit)
	}

	if err := q.Find(&secs).Error; err != nil {
		return nil, gberrors.InternalServerError.WithError(err)
	}

	return secs, nil
}

// MarkConverted flips an ACTIVE security to CONVERTED. The status is
// re-checked in the UPDATE itself, so of two concurrent callers only
// one succeeds and the other gets AlreadyConverted.
func (s *securityService) MarkConverted(id string, accruedInterest *decimal.Decimal) error {
	now := clock.Now()

	if err := s.transition(id, enum.Converted, map[string]interface{}{"converted_at": now}); err != nil {
		return err
	}

	if accruedInterest == nil {
		return nil
	}

	q := s.tx.Model(&models.NoteTerms{}).
		Where("security_id = ?", id).
		Update("accrued_interest", *accruedInterest)

	if q.Error != nil {
		return gberrors.InternalServerError.WithError(q.Error)
	}

	return nil
}

// Dissolve cancels an ACTIVE security without conversion.
func (s *securityService) Dissolve(id string) error {
	return s.transition(id, enum.Dissolved, nil)
}

// Repay closes an ACTIVE note whose principal and interest were paid
// back.
func (s *securityService) Repay(id string) error {
	sec, err := s.GetByID(id)
	if err != nil {
		return err
	}

	if sec.Kind != enum.Note {
		return gberrors.InvalidInput.WithMsg("only notes can be repaid")
	}

	return s.transition(id, enum.Repaid, nil)
}

func (s *securityService) transition(id string, to enum.SecurityStatus, extra map[string]interface{}) error {
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}

	q := s.tx.Model(&models.ConvertibleSecurity{}).
		Where("id = ? AND status = ?", id, enum.Active).
		Updates(updates)

	if q.Error != nil {
		return gberrors.InternalServerError.WithError(q.Error)
	}

	if q.RowsAffected == 1 {
		return nil
	}

	sec := &models.ConvertibleSecurity{}

	if err := s.tx.Select("id, status").Where("id = ?", id).First(sec).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return gberrors.NotFound.WithMsg("security not found")
		}
		return gberrors.InternalServerError.WithError(err)
	}

	return gberrors.AlreadyConverted.WithMsgf("security %v is %v", id, sec.Status)
}
