package round

import (
	"time"

	"github.com/alpacahq/gocaptable/gberrors"
	"github.com/alpacahq/gocaptable/models"
	"github.com/jinzhu/gorm"
)

type RoundService interface {
	GetByID(id string) (*models.EquityRound, error)
	Create(round *models.EquityRound) (*models.EquityRound, error)
	ListRecent(since time.Time, limit int) ([]models.EquityRound, error)
	WithTx(tx *gorm.DB) RoundService
}

type roundService struct {
	RoundService
	tx *gorm.DB
}

func Service() RoundService {
	return &roundService{}
}

func (s *roundService) WithTx(tx *gorm.DB) RoundService {
	s.tx = tx
	return s
}

func (s *roundService) GetByID(id string) (*models.EquityRound, error) {
	round := &models.EquityRound{}

	q := s.tx.Where("id = ?", id).First(round)

	if q.RecordNotFound() {
		return nil, gberrors.NotFound.WithMsg("round not found")
	}

	if q.Error != nil {
		return nil, gberrors.InternalServerError.WithError(q.Error)
	}

	return round, nil
}

func (s *roundService) Create(round *models.EquityRound) (*models.EquityRound, error) {
	if err := round.Validate(); err != nil {
		return nil, gberrors.InvalidInput.WithMsg(err.Error())
	}

	if err := s.tx.Create(round).Error; err != nil {
		return nil, gberrors.InternalServerError.WithError(err)
	}

	return round, nil
}

// ListRecent returns rounds created at or after since, oldest first,
// so a startup's rounds are processed in the order they happened.
func (s *roundService) ListRecent(since time.Time, limit int) ([]models.EquityRound, error) {
	rounds := []models.EquityRound{}

	q := s.tx.Where("created_at >= ?", since).Order("created_at asc")

	if limit > 0 {
		q = q.Limit(limit)
	}

	if err := q.Find(&rounds).Error; err != nil {
		return nil, gberrors.InternalServerError.WithError(err)
	}

	return rounds, nil
}
