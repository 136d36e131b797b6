package conversion

import (
	"sync"
	"testing"
	"time"

	"github.com/alpacahq/gocaptable/dbtest"
	"github.com/alpacahq/gocaptable/models"
	"github.com/alpacahq/gocaptable/models/enum"
	"github.com/alpacahq/gocaptable/service/captable"
	"github.com/alpacahq/gocaptable/service/round"
	"github.com/alpacahq/gocaptable/service/security"
	"github.com/alpacahq/gocaptable/utils/date"
	"github.com/alpacahq/gocaptable/utils/db"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type WorkerTestSuite struct {
	dbtest.Suite
	mu   sync.Mutex
	sent int
}

func TestWorkerTestSuite(t *testing.T) {
	suite.Run(t, new(WorkerTestSuite))
}

func (s *WorkerTestSuite) SetupSuite() {
	s.SetupDB()
}

func (s *WorkerTestSuite) TearDownSuite() {
	s.TeardownDB()
}

func (s *WorkerTestSuite) notify(sec *models.ConvertibleSecurity, conv *models.Conversion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent++
	return nil
}

func (s *WorkerTestSuite) seed(secs ...*models.ConvertibleSecurity) (string, *models.EquityRound) {
	startupID := uuid.Must(uuid.NewV4()).String()

	require.Nil(s.T(), captable.Service().WithTx(db.DB()).Create(dbtest.CapTable(startupID)))

	for _, sec := range secs {
		sec.StartupID = startupID
		_, err := security.Service().WithTx(db.DB()).Create(sec)
		require.Nil(s.T(), err)
	}

	r, err := round.Service().WithTx(db.DB()).Create(dbtest.Round(startupID, decimal.New(250, -2), 2000000))
	require.Nil(s.T(), err)

	return startupID, r
}

func (s *WorkerTestSuite) TestSweep() {
	auto := dbtest.Safe("", 100000, nil, nil)
	manual := dbtest.Safe("", 50000, nil, nil)
	manual.AutoConversion = false
	small := dbtest.Safe("", 50000, nil, nil)
	threshold := decimal.New(10000000, 0)
	small.QualifiedFinancingThreshold = &threshold

	startupA, _ := s.seed(auto, manual, small)

	// MFN peer issued later with a $4M cap
	valuationCap := decimal.New(4000000, 0)
	mfn := dbtest.Safe("", 100000, nil, nil)
	mfn.Safe.MostFavoredNation = true
	capped := dbtest.Safe("", 100000, &valuationCap, nil)
	capped.IssuedDate = date.Date{Date: mfn.IssuedDate.AddDays(30)}

	startupB, _ := s.seed(mfn, capped)

	w := newWorker(s.notify)

	res, err := w.Sweep(time.Now())
	require.Nil(s.T(), err)
	assert.Empty(s.T(), res.Errors)
	assert.Equal(s.T(), 2, res.Rounds)
	assert.Equal(s.T(), 5, res.Processed)
	assert.Equal(s.T(), 3, res.Converted)
	assert.Equal(s.T(), 1, res.Eligible)
	assert.Equal(s.T(), 1, res.Disqualified)
	assert.Equal(s.T(), 3, s.sent)

	// the MFN holder converted at its later peer's cap, and both divide
	// the cap by the 2,000,000 shares standing before the round
	for _, c := range []struct {
		sec    *models.ConvertibleSecurity
		price  decimal.Decimal
		shares int64
	}{
		{auto, decimal.New(250, -2), 40000},
		{mfn, decimal.New(2, 0), 50000},
		{capped, decimal.New(2, 0), 50000},
	} {
		conv, err := w.conversions.GetBySecurity(c.sec.ID)
		require.Nil(s.T(), err)
		assert.True(s.T(), conv.ConversionPrice.Equal(c.price), conv.ConversionPrice.String())
		assert.True(s.T(), conv.Shares.Equal(decimal.New(c.shares, 0)), conv.Shares.String())
	}

	snapA, err := captable.Service().WithTx(db.DB()).Latest(startupA)
	require.Nil(s.T(), err)
	assert.Equal(s.T(), uint(2), snapA.Version)

	snapB, err := captable.Service().WithTx(db.DB()).Latest(startupB)
	require.Nil(s.T(), err)
	assert.Equal(s.T(), uint(3), snapB.Version)

	seriesA := snapB.ShareClass("Series A Preferred")
	require.NotNil(s.T(), seriesA)
	assert.True(s.T(), seriesA.SharesIssued.Equal(decimal.New(100000, 0)))

	for _, snap := range []*models.CapTableSnapshot{snapA, snapB} {
		for _, class := range snap.ShareClasses {
			assert.True(s.T(), class.SharesIssued.LessThanOrEqual(class.SharesAuthorized), class.Name)
		}
	}

	// nothing left to do on the next sweep
	again, err := w.Sweep(time.Now())
	require.Nil(s.T(), err)
	assert.Empty(s.T(), again.Errors)
	assert.Equal(s.T(), 0, again.Converted)
	assert.Equal(s.T(), again.Processed, again.Skipped)
	assert.Equal(s.T(), 3, s.sent)

	sec, err := security.Service().WithTx(db.DB()).GetByID(small.ID)
	require.Nil(s.T(), err)
	assert.Equal(s.T(), enum.Active, sec.Status)
}

func (s *WorkerTestSuite) TestGroupByStartup() {
	rounds := []models.EquityRound{
		{ID: "1", StartupID: "a"},
		{ID: "2", StartupID: "b"},
		{ID: "3", StartupID: "a"},
	}

	groups := groupByStartup(rounds)
	require.Len(s.T(), groups, 2)
	require.Len(s.T(), groups[0], 2)
	assert.Equal(s.T(), "1", groups[0][0].ID)
	assert.Equal(s.T(), "3", groups[0][1].ID)
	assert.Equal(s.T(), "2", groups[1][0].ID)
}
