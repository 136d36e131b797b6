package mailer

import (
	"testing"

	"github.com/alpacahq/gocaptable/mailer/templates"
	"github.com/alpacahq/gocaptable/mailer/templates/layouts"
	"github.com/alpacahq/gocaptable/mailer/templates/partials"
	"github.com/alpacahq/gocaptable/models"
	"github.com/alpacahq/gocaptable/models/enum"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type MailerTestSuite struct {
	suite.Suite
	conv *models.Conversion
}

func TestMailerTestSuite(t *testing.T) {
	suite.Run(t, new(MailerTestSuite))
}

func (s *MailerTestSuite) SetupSuite() {
	s.conv = &models.Conversion{
		SecurityID:       "3f2c9a1e-0d4b-4c1f-9e7a-2b8c6d5e4f3a",
		InvestorID:       "a1b2c3d4-0000-4000-8000-000000000001",
		RoundID:          "r0und123-0000-4000-8000-000000000002",
		Kind:             enum.Note,
		ShareClass:       "Series A Preferred",
		Principal:        decimal.New(50000, 0),
		AccruedInterest:  decimal.New(4000, 0),
		ConvertingAmount: decimal.New(54000, 0),
		ConversionPrice:  decimal.New(250, -2),
		Shares:           decimal.New(21600, 0),
	}
}

func (s *MailerTestSuite) TestShortID() {
	assert.Equal(s.T(), "3f2c9a1e", ShortID(s.conv.SecurityID))
	assert.Equal(s.T(), "abc", ShortID("abc"))
}

func (s *MailerTestSuite) TestNoteTemplate() {
	html, err := templates.ExecuteTemplate(layouts.Base(), partials.NoteConverted, dataOf(s.conv))
	require.Nil(s.T(), err)

	assert.Contains(s.T(), html, "$50,000")
	assert.Contains(s.T(), html, "$4,000")
	assert.Contains(s.T(), html, "$2.5")
	assert.Contains(s.T(), html, "21,600 Series A Preferred")
	assert.Contains(s.T(), html, "$54,000")
	assert.NotContains(s.T(), html, "{current_year}")
}

func (s *MailerTestSuite) TestSendDisabled() {
	// EMAILS_ENABLED is unset in tests so nothing leaves the process
	assert.Nil(s.T(), SendConversion(&models.ConvertibleSecurity{Kind: enum.Note}, s.conv))
	assert.Nil(s.T(), SendSafeConverted(s.conv))
	assert.NotNil(s.T(), SendConversion(&models.ConvertibleSecurity{Kind: "BOND"}, s.conv))
}
