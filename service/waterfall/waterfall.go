package waterfall

import (
	"github.com/alpacahq/gocaptable/gberrors"
	"github.com/alpacahq/gocaptable/models"
	"github.com/alpacahq/gocaptable/models/enum"
	"github.com/alpacahq/gocaptable/service/captable"
	"github.com/alpacahq/gocaptable/utils/db"
	"github.com/jinzhu/gorm"
)

type WaterfallService interface {
	Calculate(exit *models.ExitEvent) (*Result, error)
	Record(exit *models.ExitEvent) (*models.ExitEvent, error)
	GetExit(id string) (*models.ExitEvent, error)
	Process(distributionID string) (*models.Distribution, error)
	Complete(distributionID string) (*models.Distribution, error)
	WithTx(tx *gorm.DB) WaterfallService
}

type waterfallService struct {
	WaterfallService
	tx       *gorm.DB
	capTable captable.CapTableService
}

func Service(capTable captable.CapTableService) WaterfallService {
	return &waterfallService{capTable: capTable}
}

func (s *waterfallService) WithTx(tx *gorm.DB) WaterfallService {
	s.tx = tx
	s.capTable = s.capTable.WithTx(tx)
	return s
}

func (s *waterfallService) snapshot(exit *models.ExitEvent) (*models.CapTableSnapshot, error) {
	if exit.SnapshotID != "" {
		return s.capTable.GetByID(exit.SnapshotID)
	}

	snap, err := s.capTable.Latest(exit.StartupID)
	if err != nil {
		return nil, err
	}
	exit.SnapshotID = snap.ID

	return snap, nil
}

// Calculate runs the waterfall for exit against its cap table without
// persisting anything. Without a snapshot id the latest version is used.
func (s *waterfallService) Calculate(exit *models.ExitEvent) (*Result, error) {
	if err := exit.Validate(); err != nil {
		return nil, gberrors.InvalidInput.WithMsg(err.Error())
	}

	snap, err := s.snapshot(exit)
	if err != nil {
		return nil, err
	}

	if snap.StartupID != exit.StartupID {
		return nil, gberrors.InvalidInput.WithMsg("cap table belongs to another startup")
	}

	return Run(snap, exit.ExitProceeds)
}

// Record persists the exit and one PENDING distribution per
// stakeholder. Amounts are computed once here and never again.
func (s *waterfallService) Record(exit *models.ExitEvent) (*models.ExitEvent, error) {
	if exit.ID != "" {
		existing := &models.ExitEvent{}
		q := s.tx.Where("id = ?", exit.ID).First(existing)
		if q.Error == nil {
			return nil, gberrors.Conflict.WithMsgf("exit %v already has distributions", exit.ID)
		}
		if !q.RecordNotFound() {
			return nil, gberrors.InternalServerError.WithError(q.Error)
		}
	}

	res, err := s.Calculate(exit)
	if err != nil {
		return nil, err
	}

	exit.Distributions = make([]models.Distribution, 0, len(res.Payouts))
	for _, p := range res.Payouts {
		exit.Distributions = append(exit.Distributions, models.Distribution{
			HolderID:        p.HolderID,
			Name:            p.Name,
			Investment:      p.Investment,
			Preference:      p.Preference,
			Participation:   p.Participation,
			Amount:          p.Total,
			ReturnMultiple:  p.ReturnMultiple,
			OwnershipAtExit: p.OwnershipAtExit,
			Status:          enum.DistributionPending,
		})
	}

	if err := s.tx.Create(exit).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, gberrors.Conflict.WithError(err)
		}
		return nil, gberrors.InternalServerError.WithError(err)
	}

	return exit, nil
}

func (s *waterfallService) GetExit(id string) (*models.ExitEvent, error) {
	exit := &models.ExitEvent{}

	q := s.tx.Preload("Distributions", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at asc, holder_id asc")
	}).Where("id = ?", id).First(exit)

	if q.RecordNotFound() {
		return nil, gberrors.NotFound.WithMsg("exit not found")
	}

	if q.Error != nil {
		return nil, gberrors.InternalServerError.WithError(q.Error)
	}

	return exit, nil
}

// Process moves a distribution from PENDING to PROCESSING.
func (s *waterfallService) Process(distributionID string) (*models.Distribution, error) {
	return s.transition(distributionID, enum.DistributionPending, enum.DistributionProcessing)
}

// Complete moves a distribution from PROCESSING to COMPLETED.
func (s *waterfallService) Complete(distributionID string) (*models.Distribution, error) {
	return s.transition(distributionID, enum.DistributionProcessing, enum.DistributionCompleted)
}

func (s *waterfallService) transition(id string, from, to enum.DistributionStatus) (*models.Distribution, error) {
	q := s.tx.Model(&models.Distribution{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)

	if q.Error != nil {
		return nil, gberrors.InternalServerError.WithError(q.Error)
	}

	d := &models.Distribution{}

	if err := s.tx.Where("id = ?", id).First(d).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, gberrors.NotFound.WithMsg("distribution not found")
		}
		return nil, gberrors.InternalServerError.WithError(err)
	}

	if q.RowsAffected == 0 {
		return nil, gberrors.InvalidTransition.WithMsgf(
			"distribution %v is %v, expected %v", id, d.Status, from)
	}

	return d, nil
}
