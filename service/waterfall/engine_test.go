package waterfall

import (
	"testing"

	"github.com/alpacahq/gocaptable/dbtest"
	"github.com/alpacahq/gocaptable/gberrors"
	"github.com/alpacahq/gocaptable/models"
	"github.com/alpacahq/gocaptable/models/enum"
	"github.com/alpacahq/gocaptable/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type EngineTestSuite struct {
	suite.Suite
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func d(v int64) decimal.Decimal {
	return decimal.New(v, 0)
}

func preferred(name string, shares, price int64, rank int) models.ShareClass {
	return models.ShareClass{
		Name:                  name,
		Type:                  enum.Preferred,
		SharesAuthorized:      d(shares),
		SharesIssued:          d(shares),
		SharesOutstanding:     d(shares),
		PricePerShare:         money.Ptr(d(price)),
		LiquidationPreference: d(1),
		SeniorityRank:         rank,
		VotesPerShare:         d(1),
	}
}

func holder(id string, investment int64, class string, shares int64) models.Stakeholder {
	return models.Stakeholder{
		HolderID:        id,
		Name:            id,
		Type:            enum.Investor,
		TotalInvestment: d(investment),
		Holdings:        []models.Holding{{ShareClass: class, Shares: d(shares)}},
	}
}

// founder holds 1,000,000 common, series-a investor 400,000 shares
// bought at $3.00 with a 1x non participating preference
func (s *EngineTestSuite) table() *models.CapTableSnapshot {
	founder := holder("founder", 0, "Common", 1000000)
	founder.Type = enum.Founder
	return &models.CapTableSnapshot{
		StartupID: "startup",
		Version:   1,
		ShareClasses: []models.ShareClass{
			{
				Name:              "Common",
				Type:              enum.Common,
				SharesAuthorized:  d(5000000),
				SharesIssued:      d(1000000),
				SharesOutstanding: d(1000000),
				SeniorityRank:     100,
				VotesPerShare:     d(1),
			},
			preferred("Series A", 400000, 3, 1),
		},
		Stakeholders: []models.Stakeholder{
			founder,
			holder("series-a", 1200000, "Series A", 400000),
		},
	}
}

func (s *EngineTestSuite) TestPreferenceExceedsProceeds() {
	res, err := Run(s.table(), d(1000000))
	require.Nil(s.T(), err)

	pref := res.Payout("series-a")
	common := res.Payout("founder")
	assert.True(s.T(), pref.Total.Equal(d(1000000)), pref.Total.String())
	assert.True(s.T(), common.Total.IsZero(), common.Total.String())
	assert.True(s.T(), res.Distributed.Equal(d(1000000)))
	require.Len(s.T(), res.Classes, 1)
	assert.True(s.T(), res.Classes[0].Owed.Equal(d(1200000)))
	assert.True(s.T(), res.Classes[0].Paid.Equal(d(1000000)))
}

func (s *EngineTestSuite) TestNonParticipatingRemainder() {
	res, err := Run(s.table(), d(5000000))
	require.Nil(s.T(), err)

	assert.True(s.T(), res.Payout("series-a").Total.Equal(d(1200000)))
	assert.True(s.T(), res.Payout("series-a").Participation.IsZero())
	assert.True(s.T(), res.Payout("founder").Total.Equal(d(3800000)))
	assert.True(s.T(), res.Payout("series-a").ReturnMultiple.Equal(d(1)))
	assert.True(s.T(), res.Payout("founder").ReturnMultiple.IsZero())
}

func (s *EngineTestSuite) TestParticipating() {
	table := s.table()
	table.ShareClasses[1].Participating = true

	res, err := Run(table, d(5000000))
	require.Nil(s.T(), err)

	// 3,800,000 left for 1,400,000 shares
	a := res.Payout("series-a")
	assert.True(s.T(), a.Preference.Equal(d(1200000)))
	assert.Equal(s.T(), "1085714.285714", a.Participation.String())
	assert.Equal(s.T(), "2714285.714285", res.Payout("founder").Total.String())
	assert.True(s.T(), res.Distributed.LessThanOrEqual(d(5000000)))
	assert.True(s.T(), res.Distributed.Add(res.Unallocated).Equal(d(5000000)))
}

func (s *EngineTestSuite) TestSeniorityExhaustion() {
	table := s.table()
	table.ShareClasses = append(table.ShareClasses, preferred("Series B", 100000, 5, 0))
	table.Stakeholders = append(table.Stakeholders, holder("series-b", 500000, "Series B", 100000))

	// B is owed 500,000 and senior, A is owed 1,200,000
	res, err := Run(table, d(700000))
	require.Nil(s.T(), err)
	assert.True(s.T(), res.Payout("series-b").Total.Equal(d(500000)))
	assert.True(s.T(), res.Payout("series-a").Total.Equal(d(200000)))
	assert.True(s.T(), res.Payout("founder").Total.IsZero())

	res, err = Run(table, d(300000))
	require.Nil(s.T(), err)
	assert.True(s.T(), res.Payout("series-b").Total.Equal(d(300000)))
	assert.True(s.T(), res.Payout("series-a").Total.IsZero())
	assert.True(s.T(), res.Payout("founder").Total.IsZero())
	assert.Equal(s.T(), "Series B", res.Classes[0].Name)
}

func (s *EngineTestSuite) TestExhaustionLeavesJuniorsAtZero() {
	table := s.table()
	table.ShareClasses = append(table.ShareClasses, preferred("Series B", 300000, 1, 0))
	table.Stakeholders = append(table.Stakeholders,
		holder("b-1", 100000, "Series B", 100000),
		holder("b-2", 200000, "Series B", 200000),
	)

	// proceeds that do not split evenly across the senior class
	for _, proceeds := range []string{"0", "1", "100000.01", "299999.999999"} {
		p := decimal.RequireFromString(proceeds)
		res, err := Run(table, p)
		require.Nil(s.T(), err)

		assert.True(s.T(), res.Payout("series-a").Total.IsZero(), proceeds)
		assert.True(s.T(), res.Payout("founder").Total.IsZero(), proceeds)
		assert.True(s.T(), res.Distributed.LessThanOrEqual(p), proceeds)
		assert.True(s.T(), res.Payout("b-1").Total.LessThanOrEqual(d(100000)), proceeds)
		assert.True(s.T(), res.Payout("b-2").Total.LessThanOrEqual(d(200000)), proceeds)
	}
}

func (s *EngineTestSuite) TestPariPassu() {
	table := s.table()
	table.ShareClasses = append(table.ShareClasses, preferred("Series A-2", 200000, 3, 1))
	table.Stakeholders = append(table.Stakeholders, holder("series-a2", 600000, "Series A-2", 200000))

	// A owes 1,200,000, A-2 owes 600,000 at the same rank
	res, err := Run(table, d(900000))
	require.Nil(s.T(), err)
	assert.True(s.T(), res.Payout("series-a").Total.Equal(d(600000)))
	assert.True(s.T(), res.Payout("series-a2").Total.Equal(d(300000)))
	assert.True(s.T(), res.Payout("founder").Total.IsZero())
}

func (s *EngineTestSuite) TestLiquidationMultipleCap() {
	table := s.table()
	table.ShareClasses[1].LiquidationPreference = d(2)
	table.ShareClasses[1].LiquidationMultiple = money.Ptr(decimal.RequireFromString("1.5"))

	res, err := Run(table, d(10000000))
	require.Nil(s.T(), err)
	assert.True(s.T(), res.Classes[0].Owed.Equal(d(1800000)))
	assert.True(s.T(), res.Payout("series-a").Total.Equal(d(1800000)))
}

func (s *EngineTestSuite) TestOptionsDoNotParticipate() {
	res, err := Run(dbtest.CapTable("startup"), d(2000000))
	require.Nil(s.T(), err)

	assert.True(s.T(), res.Payout("employee").Total.IsZero())
	assert.True(s.T(), res.Payout("seed-fund").Total.Equal(d(400000)))
	// 1,600,000 across 1,400,000 common shares
	assert.Equal(s.T(), "1028571.428571", res.Payout("founder-a").Total.String())
	assert.Equal(s.T(), "571428.571428", res.Payout("founder-b").Total.String())
}

func (s *EngineTestSuite) TestFailures() {
	_, err := Run(s.table(), d(-1))
	assert.True(s.T(), gberrors.Is(err, gberrors.InvalidInput))

	table := s.table()
	table.ShareClasses[1].PricePerShare = nil
	_, err = Run(table, d(1000000))
	assert.True(s.T(), gberrors.Is(err, gberrors.IncompleteCapTableData))

	// no preference, no price needed
	table.ShareClasses[1].LiquidationPreference = decimal.Zero
	_, err = Run(table, d(1000000))
	assert.Nil(s.T(), err)
}

func (s *EngineTestSuite) TestSnapshotUntouched() {
	table := s.table()
	_, err := Run(table, d(5000000))
	require.Nil(s.T(), err)
	assert.True(s.T(), table.Stakeholders[0].CurrentOwnership.IsZero())
	assert.Len(s.T(), table.Stakeholders, 2)
}
