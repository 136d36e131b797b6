package accrual

import (
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

type AccrualTestSuite struct {
	suite.Suite
}

func TestAccrualTestSuite(t *testing.T) {
	suite.Run(t, new(AccrualTestSuite))
}

func (s *AccrualTestSuite) TestSimpleOneYear() {
	issued := date.New(2023, time.January, 1)
	asOf := date.New(2024, time.January, 1)

	interest, err := Accrue(decimal.New(50000, 0), decimal.New(8, 0), issued, asOf, enum.Simple)
	require.Nil(s.T(), err)
	assert.True(s.T(), interest.Equal(decimal.New(4000, 0)), interest.String())
}

func (s *AccrualTestSuite) TestSimplePartialYear() {
	issued := date.New(2023, time.January, 1)
	asOf := date.Date{Date: issued.AddDays(180)}

	interest, err := Accrue(decimal.New(50000, 0), decimal.New(8, 0), issued, asOf, enum.Simple)
	require.Nil(s.T(), err)
	// 50000 * 0.08 * 180 / 365 = 1972.6027397...
	assert.Equal(s.T(), "1972.602739", interest.String())
}

func (s *AccrualTestSuite) TestCompoundDaily() {
	issued := date.New(2023, time.January, 1)
	asOf := date.New(2024, time.January, 1)

	interest, err := Accrue(decimal.New(100000, 0), decimal.New(10, 0), issued, asOf, enum.Compound)
	require.Nil(s.T(), err)

	// 100000 * ((1 + 0.1/365)^365 - 1) ~= 10515.58
	expected := money.RequireFromString("10515.578")
	assert.True(s.T(), money.WithinEpsilon(interest, expected, money.RequireFromString("0.01")), interest.String())

	simple, err := Accrue(decimal.New(100000, 0), decimal.New(10, 0), issued, asOf, enum.Simple)
	require.Nil(s.T(), err)
	assert.True(s.T(), interest.GreaterThan(simple))
}

func (s *AccrualTestSuite) TestSameDay() {
	d := date.New(2023, time.June, 1)

	for _, c := range []enum.Compounding{enum.Simple, enum.Compound} {
		interest, err := Accrue(decimal.New(1000, 0), decimal.New(5, 0), d, d, c)
		require.Nil(s.T(), err)
		assert.True(s.T(), interest.IsZero())
	}
}

func (s *AccrualTestSuite) TestInvalid() {
	issued := date.New(2023, time.June, 1)

	_, err := Accrue(decimal.New(1000, 0), decimal.New(5, 0), issued, date.New(2023, time.May, 31), enum.Simple)
	assert.True(s.T(), gberrors.Is(err, gberrors.InvalidDateRange))

	_, err = Accrue(decimal.New(-1, 0), decimal.New(5, 0), issued, issued, enum.Simple)
	assert.True(s.T(), gberrors.Is(err, gberrors.InvalidInput))

	_, err = Accrue(decimal.New(1000, 0), decimal.New(-5, 0), issued, issued, enum.Simple)
	assert.True(s.T(), gberrors.Is(err, gberrors.InvalidInput))

	_, err = Accrue(decimal.New(1000, 0), decimal.New(5, 0), issued, issued, enum.Compounding("MONTHLY"))
	assert.True(s.T(), gberrors.Is(err, gberrors.InvalidInput))
}

func (s *AccrualTestSuite) TestForNote() {
	sec := &models.ConvertibleSecurity{
		ID:              "note",
		Kind:            enum.Note,
		PrincipalAmount: decimal.New(50000, 0),
		IssuedDate:      date.New(2023, time.January, 1),
		Note: &models.NoteTerms{
			InterestRate: decimal.New(8, 0),
			Compounding:  enum.Simple,
		},
	}

	accrued, err := ForNote(sec, date.New(2024, time.January, 1))
	require.Nil(s.T(), err)
	assert.Equal(s.T(), 365, accrued.Days)
	assert.True(s.T(), accrued.Interest.Equal(decimal.New(4000, 0)))
	assert.True(s.T(), accrued.ConvertingAmount.Equal(decimal.New(54000, 0)))

	sec.Kind = enum.Safe
	_, err = ForNote(sec, date.New(2024, time.January, 1))
	assert.True(s.T(), gberrors.Is(err, gberrors.InvalidInput))
}
