package round

import (
	"testing"
	"time"

	"github.com/alpacahq/gocaptable/dbtest"
	"github.com/alpacahq/gocaptable/gberrors"
	"github.com/alpacahq/gocaptable/utils/db"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RoundTestSuite struct {
	dbtest.Suite
}

func TestRoundTestSuite(t *testing.T) {
	suite.Run(t, new(RoundTestSuite))
}

func (s *RoundTestSuite) SetupSuite() {
	s.SetupDB()
}

func (s *RoundTestSuite) TearDownSuite() {
	s.TeardownDB()
}

func (s *RoundTestSuite) TestCreate() {
	srv := Service().WithTx(db.DB())

	r, err := srv.Create(dbtest.Round(uuid.Must(uuid.NewV4()).String(), decimal.New(250, -2), 2000000))
	require.Nil(s.T(), err)

	found, err := srv.GetByID(r.ID)
	require.Nil(s.T(), err)
	assert.True(s.T(), found.Priced())
	assert.True(s.T(), found.PricePerShare.Equal(decimal.New(250, -2)))
	assert.True(s.T(), found.Raised().Equal(decimal.New(2000000, 0)))

	bad := dbtest.Round(uuid.Must(uuid.NewV4()).String(), decimal.New(-1, 0), 10)
	_, err = srv.Create(bad)
	assert.True(s.T(), gberrors.Is(err, gberrors.InvalidInput))

	_, err = srv.GetByID(uuid.Must(uuid.NewV4()).String())
	assert.True(s.T(), gberrors.IsNotFound(err))
}

func (s *RoundTestSuite) TestListRecent() {
	srv := Service().WithTx(db.DB())
	startupID := uuid.Must(uuid.NewV4()).String()

	old := dbtest.Round(startupID, decimal.New(1, 0), 500000)
	old.CreatedAt = time.Now().Add(-30 * 24 * time.Hour)
	_, err := srv.Create(old)
	require.Nil(s.T(), err)

	recent, err := srv.Create(dbtest.Round(startupID, decimal.New(2, 0), 1000000))
	require.Nil(s.T(), err)

	rounds, err := srv.ListRecent(time.Now().Add(-time.Hour), 0)
	require.Nil(s.T(), err)

	ids := []string{}
	for _, r := range rounds {
		ids = append(ids, r.ID)
	}
	assert.Contains(s.T(), ids, recent.ID)
	assert.NotContains(s.T(), ids, old.ID)

	all, err := srv.ListRecent(time.Now().Add(-60*24*time.Hour), 1)
	require.Nil(s.T(), err)
	assert.Len(s.T(), all, 1)
}
