package captable

import (
	"github.com/alpacahq/gocaptable/gberrors"
	"github.com/alpacahq/gocaptable/models"
	"github.com/alpacahq/gocaptable/utils/db"
	"github.com/jinzhu/gorm"
)

type CapTableService interface {
	GetByID(id string) (*models.CapTableSnapshot, error)
	Latest(startupID string) (*models.CapTableSnapshot, error)
	GetVersion(startupID string, version uint) (*models.CapTableSnapshot, error)
	History(startupID string) ([]models.CapTableSnapshot, error)
	Create(snap *models.CapTableSnapshot) error
	WithTx(tx *gorm.DB) CapTableService
}

type capTableService struct {
	CapTableService
	tx *gorm.DB
}

func Service() CapTableService {
	return &capTableService{}
}

func (s *capTableService) WithTx(tx *gorm.DB) CapTableService {
	s.tx = tx
	return s
}

func (s *capTableService) preload() *gorm.DB {
	byID := func(db *gorm.DB) *gorm.DB {
		return db.Order("id asc")
	}
	return s.tx.
		Preload("ShareClasses", byID).
		Preload("Stakeholders", byID).
		Preload("Stakeholders.Holdings", byID).
		Preload("Events", byID)
}

func (s *capTableService) find(q *gorm.DB) (*models.CapTableSnapshot, error) {
	snap := &models.CapTableSnapshot{}

	q = q.First(snap)

	if q.RecordNotFound() {
		return nil, gberrors.NotFound.WithMsg("cap table not found")
	}

	if q.Error != nil {
		return nil, gberrors.InternalServerError.WithError(q.Error)
	}

	Recompute(snap)

	return snap, nil
}

func (s *capTableService) GetByID(id string) (*models.CapTableSnapshot, error) {
	return s.find(s.preload().Where("id = ?", id))
}

// Latest returns the highest version of the startup's cap table.
func (s *capTableService) Latest(startupID string) (*models.CapTableSnapshot, error) {
	return s.find(s.preload().Where("startup_id = ?", startupID).Order("version desc"))
}

func (s *capTableService) GetVersion(startupID string, version uint) (*models.CapTableSnapshot, error) {
	return s.find(s.preload().Where("startup_id = ? AND version = ?", startupID, version))
}

// History lists every version of the startup's cap table, oldest
// first, without their collections.
func (s *capTableService) History(startupID string) ([]models.CapTableSnapshot, error) {
	snaps := []models.CapTableSnapshot{}

	q := s.tx.Where("startup_id = ?", startupID).Order("version asc").Find(&snaps)

	if q.Error != nil {
		return nil, gberrors.InternalServerError.WithError(q.Error)
	}

	return snaps, nil
}

// Create appends snap as the startup's next version. snap must have
// been built on the current latest version, otherwise another writer
// got there first and ConcurrentModification is returned.
func (s *capTableService) Create(snap *models.CapTableSnapshot) error {
	if snap.ID != "" {
		return gberrors.InvalidInput.WithMsg("cap table snapshots are immutable")
	}

	if err := Normalize(snap); err != nil {
		return err
	}

	var latest struct {
		Version uint
	}

	q := s.tx.Model(&models.CapTableSnapshot{}).
		Select("COALESCE(MAX(version), 0) AS version").
		Where("startup_id = ?", snap.StartupID).
		Scan(&latest)

	if q.Error != nil {
		return gberrors.InternalServerError.WithError(q.Error)
	}

	if snap.Version != latest.Version+1 {
		return gberrors.ConcurrentModification.WithMsgf(
			"cap table version %v does not follow latest version %v", snap.Version, latest.Version)
	}

	if err := s.tx.Create(snap).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return gberrors.ConcurrentModification.WithError(err)
		}
		return gberrors.InternalServerError.WithError(err)
	}

	return nil
}
