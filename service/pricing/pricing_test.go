package pricing

import (
	"fmt"
	"testing"
	"time"

	"github.com/alpacahq/gocaptable/gberrors"
	"github.com/alpacahq/gocaptable/models"
	"github.com/alpacahq/gocaptable/models/enum"
	"github.com/alpacahq/gocaptable/money"
	"github.com/alpacahq/gocaptable/utils/date"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type PricingTestSuite struct {
	suite.Suite
	round *models.EquityRound
}

func TestPricingTestSuite(t *testing.T) {
	suite.Run(t, new(PricingTestSuite))
}

func (s *PricingTestSuite) SetupTest() {
	s.round = &models.EquityRound{
		ID:                "round",
		StartupID:         "startup",
		Status:            enum.RoundActive,
		PricePerShare:     money.Ptr(decimal.New(3, 0)),
		PreMoneyValuation: decimal.New(6000000, 0),
		TargetAmount:      decimal.New(1000000, 0),
	}
}

func safe(id string, issued date.Date, cap, discount *decimal.Decimal, mfn bool) models.ConvertibleSecurity {
	return models.ConvertibleSecurity{
		ID:              id,
		StartupID:       "startup",
		Kind:            enum.Safe,
		Status:          enum.Active,
		PrincipalAmount: decimal.New(100000, 0),
		IssuedDate:      issued,
		Safe: &models.SafeTerms{
			ValuationCap:      cap,
			DiscountRate:      discount,
			MostFavoredNation: mfn,
		},
	}
}

func (s *PricingTestSuite) TestCapScenario() {
	sec := safe("a", date.New(2023, time.January, 1), money.Ptr(decimal.New(5000000, 0)), nil, false)

	q, err := Price(&sec, s.round, decimal.New(2000000, 0))
	require.Nil(s.T(), err)
	require.NotNil(s.T(), q.CapPrice)
	assert.Nil(s.T(), q.DiscountPrice)
	assert.True(s.T(), q.CapPrice.Equal(decimal.RequireFromString("2.5")))
	assert.True(s.T(), q.ConversionPrice.Equal(decimal.RequireFromString("2.5")))
	assert.True(s.T(), q.RoundPrice.Equal(decimal.New(3, 0)))

	shares, err := money.Shares(sec.PrincipalAmount, q.ConversionPrice)
	require.Nil(s.T(), err)
	assert.True(s.T(), shares.Equal(decimal.New(40000, 0)))
}

func (s *PricingTestSuite) TestNoTerms() {
	sec := safe("a", date.New(2023, time.January, 1), nil, nil, false)

	q, err := Price(&sec, s.round, decimal.Zero)
	require.Nil(s.T(), err)
	assert.True(s.T(), q.ConversionPrice.Equal(q.RoundPrice))
}

func (s *PricingTestSuite) TestDiscount() {
	sec := safe("a", date.New(2023, time.January, 1), nil, money.Ptr(decimal.New(20, 0)), false)

	q, err := Price(&sec, s.round, decimal.Zero)
	require.Nil(s.T(), err)
	require.NotNil(s.T(), q.DiscountPrice)
	assert.True(s.T(), q.DiscountPrice.Equal(decimal.RequireFromString("2.4")))
	assert.True(s.T(), q.ConversionPrice.Equal(decimal.RequireFromString("2.4")))
}

func (s *PricingTestSuite) TestMinimumOfCandidates() {
	caps := []int64{1000000, 5000000, 6000000, 20000000}
	discounts := []int64{0, 10, 20, 35}
	fd := decimal.New(2000000, 0)

	for _, c := range caps {
		for _, d := range discounts {
			sec := safe("a", date.New(2023, time.January, 1), money.Ptr(decimal.New(c, 0)), money.Ptr(decimal.New(d, 0)), false)

			q, err := Price(&sec, s.round, fd)
			require.Nil(s.T(), err)

			expected := money.Min(q.RoundPrice, *q.CapPrice, *q.DiscountPrice)
			msg := fmt.Sprintf("cap %v discount %v", c, d)
			assert.True(s.T(), q.ConversionPrice.Equal(expected), msg)
			assert.True(s.T(), q.ConversionPrice.LessThanOrEqual(q.RoundPrice), msg)
			assert.True(s.T(), q.ConversionPrice.LessThanOrEqual(*q.CapPrice), msg)
			assert.True(s.T(), q.ConversionPrice.LessThanOrEqual(*q.DiscountPrice), msg)
		}
	}
}

func (s *PricingTestSuite) TestNote() {
	sec := models.ConvertibleSecurity{
		ID:              "note",
		Kind:            enum.Note,
		Status:          enum.Active,
		PrincipalAmount: decimal.New(50000, 0),
		Note: &models.NoteTerms{
			InterestRate: decimal.New(8, 0),
			Compounding:  enum.Simple,
			DiscountRate: money.Ptr(decimal.New(15, 0)),
		},
	}

	q, err := Price(&sec, s.round, decimal.Zero)
	require.Nil(s.T(), err)
	assert.True(s.T(), q.ConversionPrice.Equal(decimal.RequireFromString("2.55")))
}

func (s *PricingTestSuite) TestImpliedFullyDiluted() {
	sec := safe("a", date.New(2023, time.January, 1), money.Ptr(decimal.New(3000000, 0)), nil, false)

	// pre money fallback: 6,000,000 / 3 = 2,000,000 shares
	q, err := Price(&sec, s.round, decimal.Zero)
	require.Nil(s.T(), err)
	assert.True(s.T(), q.FullyDilutedShares.Equal(decimal.New(2000000, 0)))
	assert.True(s.T(), q.CapPrice.Equal(decimal.RequireFromString("1.5")))

	// post money preferred
	s.round.PostMoneyValuation = money.Ptr(decimal.New(7500000, 0))
	q, err = Price(&sec, s.round, decimal.Zero)
	require.Nil(s.T(), err)
	assert.True(s.T(), q.FullyDilutedShares.Equal(decimal.New(2500000, 0)))

	// nothing to go on
	s.round.PostMoneyValuation = nil
	s.round.PreMoneyValuation = decimal.Zero
	_, err = Price(&sec, s.round, decimal.Zero)
	assert.True(s.T(), gberrors.Is(err, gberrors.IncompleteCapTableData))

	// no cap means the share count is irrelevant
	plain := safe("b", date.New(2023, time.January, 1), nil, nil, false)
	_, err = Price(&plain, s.round, decimal.Zero)
	assert.Nil(s.T(), err)
}

func (s *PricingTestSuite) TestFailures() {
	sec := safe("a", date.New(2023, time.January, 1), nil, nil, false)

	s.round.PricePerShare = nil
	_, err := Price(&sec, s.round, decimal.Zero)
	assert.True(s.T(), gberrors.Is(err, gberrors.NoApplicablePricing))

	s.round.PricePerShare = money.Ptr(decimal.New(3, 0))
	sec.Safe.DiscountRate = money.Ptr(decimal.New(120, 0))
	_, err = Price(&sec, s.round, decimal.Zero)
	assert.True(s.T(), gberrors.Is(err, gberrors.InvalidInput))

	sec.Safe.DiscountRate = money.Ptr(decimal.New(100, 0))
	_, err = Price(&sec, s.round, decimal.Zero)
	assert.True(s.T(), gberrors.Is(err, gberrors.DivisionByZero))

	sec.Safe = nil
	_, err = Price(&sec, s.round, decimal.Zero)
	assert.True(s.T(), gberrors.Is(err, gberrors.InvalidInput))
}

func (s *PricingTestSuite) TestResolveMFN() {
	jan := date.New(2023, time.January, 1)
	mar := date.New(2023, time.March, 1)
	jun := date.New(2023, time.June, 1)

	batch := []models.ConvertibleSecurity{
		// early MFN holder with a weak cap and no discount
		safe("mfn", jan, money.Ptr(decimal.New(8000000, 0)), nil, true),
		// later peers
		safe("later-cap", mar, money.Ptr(decimal.New(6000000, 0)), nil, false),
		safe("later-discount", jun, nil, money.Ptr(decimal.New(20, 0)), false),
		// MFN holder issued last
		safe("late-mfn", jun, money.Ptr(decimal.New(9000000, 0)), nil, true),
	}

	terms, err := ResolveMFN(batch)
	require.Nil(s.T(), err)
	require.Len(s.T(), terms, 4)

	mfn := terms["mfn"]
	assert.True(s.T(), mfn.MFN)
	assert.True(s.T(), mfn.ValuationCap.Equal(decimal.New(6000000, 0)))
	assert.True(s.T(), mfn.DiscountRate.Equal(decimal.New(20, 0)))

	// only peers issued on or after jun count for the late holder
	late := terms["late-mfn"]
	assert.True(s.T(), late.MFN)
	assert.True(s.T(), late.ValuationCap.Equal(decimal.New(9000000, 0)))
	assert.True(s.T(), late.DiscountRate.Equal(decimal.New(20, 0)))

	// non MFN holders keep their terms
	assert.False(s.T(), terms["later-cap"].MFN)
	assert.Nil(s.T(), terms["later-cap"].DiscountRate)

	// the stated terms are never modified
	assert.Nil(s.T(), batch[0].Safe.DiscountRate)
	assert.True(s.T(), batch[0].Safe.ValuationCap.Equal(decimal.New(8000000, 0)))
}

func (s *PricingTestSuite) TestResolveMFNMutual() {
	jan := date.New(2023, time.January, 1)

	a := safe("a", jan, money.Ptr(decimal.New(5000000, 0)), money.Ptr(decimal.New(10, 0)), true)
	b := safe("b", jan, money.Ptr(decimal.New(7000000, 0)), money.Ptr(decimal.New(25, 0)), true)

	forward, err := ResolveMFN([]models.ConvertibleSecurity{a, b})
	require.Nil(s.T(), err)
	reverse, err := ResolveMFN([]models.ConvertibleSecurity{b, a})
	require.Nil(s.T(), err)

	for _, id := range []string{"a", "b"} {
		assert.True(s.T(), forward[id].ValuationCap.Equal(decimal.New(5000000, 0)), id)
		assert.True(s.T(), forward[id].DiscountRate.Equal(decimal.New(25, 0)), id)
		assert.True(s.T(), forward[id].ValuationCap.Equal(*reverse[id].ValuationCap), id)
		assert.True(s.T(), forward[id].DiscountRate.Equal(*reverse[id].DiscountRate), id)
	}

	q, err := PriceWithTerms(forward["b"], s.round, decimal.New(2000000, 0))
	require.Nil(s.T(), err)
	// min(3.00, 5M / 2M = 2.50, 3.00 * 0.75 = 2.25)
	assert.True(s.T(), q.ConversionPrice.Equal(decimal.RequireFromString("2.25")))
}
