package dbtest

import (
	"time"

	"github.com/alpacahq/gocaptable/models"
	"github.com/alpacahq/gocaptable/models/enum"
	"github.com/alpacahq/gocaptable/utils/date"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// CapTable returns an unsaved first version of a small seed stage cap
// table with 2,000,000 fully diluted shares:
//
//	founder-a  900,000 Common
//	founder-b  500,000 Common
//	seed-fund  400,000 Series Seed ($1.00, 1x non participating)
//	employee   200,000 options
func CapTable(startupID string) *models.CapTableSnapshot {
	seedRound := uuid.Must(uuid.NewV4()).String()
	one := decimal.New(1, 0)

	return &models.CapTableSnapshot{
		StartupID: startupID,
		Version:   1,
		AsOfDate:  date.New(2023, time.January, 1),
		ShareClasses: []models.ShareClass{
			{
				Name:                  "Common",
				Type:                  enum.Common,
				SharesAuthorized:      decimal.New(10000000, 0),
				SharesIssued:          decimal.New(1400000, 0),
				SharesOutstanding:     decimal.New(1400000, 0),
				LiquidationPreference: decimal.Zero,
				SeniorityRank:         100,
				VotesPerShare:         one,
			},
			{
				Name:                  "Series Seed",
				Type:                  enum.Preferred,
				SharesAuthorized:      decimal.New(400000, 0),
				SharesIssued:          decimal.New(400000, 0),
				SharesOutstanding:     decimal.New(400000, 0),
				PricePerShare:         &one,
				LiquidationPreference: one,
				SeniorityRank:         1,
				VotesPerShare:         one,
			},
		},
		Stakeholders: []models.Stakeholder{
			{
				HolderID: "founder-a",
				Name:     "Founder A",
				Type:     enum.Founder,
				Holdings: []models.Holding{{ShareClass: "Common", Shares: decimal.New(900000, 0)}},
			},
			{
				HolderID: "founder-b",
				Name:     "Founder B",
				Type:     enum.Founder,
				Holdings: []models.Holding{{ShareClass: "Common", Shares: decimal.New(500000, 0)}},
			},
			{
				HolderID:        "seed-fund",
				Name:            "Seed Fund",
				Type:            enum.Investor,
				TotalInvestment: decimal.New(400000, 0),
				Holdings:        []models.Holding{{ShareClass: "Series Seed", Shares: decimal.New(400000, 0)}},
			},
			{
				HolderID: "employee",
				Name:     "Employee",
				Type:     enum.Employee,
				Options:  decimal.New(200000, 0),
			},
		},
		Events: []models.CapTableEvent{
			{
				Type:         enum.EventRound,
				RoundID:      &seedRound,
				HolderID:     "seed-fund",
				ShareClass:   "Series Seed",
				SharesIssued: decimal.New(400000, 0),
				SharesBefore: decimal.New(1600000, 0),
				SharesAfter:  decimal.New(2000000, 0),
			},
		},
	}
}

// Safe returns an unsaved ACTIVE SAFE. valuationCap and discount may
// be nil.
func Safe(startupID string, principal int64, valuationCap, discount *decimal.Decimal) *models.ConvertibleSecurity {
	return &models.ConvertibleSecurity{
		InvestmentID:    uuid.Must(uuid.NewV4()).String(),
		StartupID:       startupID,
		InvestorID:      uuid.Must(uuid.NewV4()).String(),
		Kind:            enum.Safe,
		PrincipalAmount: decimal.New(principal, 0),
		IssuedDate:      date.New(2023, time.March, 1),
		Status:          enum.Active,
		AutoConversion:  true,
		Safe: &models.SafeTerms{
			ValuationCap: valuationCap,
			DiscountRate: discount,
		},
	}
}

// Note returns an unsaved ACTIVE simple interest note issued on
// 2023-01-01 and maturing two years later.
func Note(startupID string, principal int64, rate int64) *models.ConvertibleSecurity {
	return &models.ConvertibleSecurity{
		InvestmentID:    uuid.Must(uuid.NewV4()).String(),
		StartupID:       startupID,
		InvestorID:      uuid.Must(uuid.NewV4()).String(),
		Kind:            enum.Note,
		PrincipalAmount: decimal.New(principal, 0),
		IssuedDate:      date.New(2023, time.January, 1),
		Status:          enum.Active,
		AutoConversion:  true,
		Note: &models.NoteTerms{
			InterestRate: decimal.New(rate, 0),
			MaturityDate: date.New(2025, time.January, 1),
			Compounding:  enum.Simple,
		},
	}
}

// Round returns an unsaved CLOSED priced round raising raised at
// price per share.
func Round(startupID string, price decimal.Decimal, raised int64) *models.EquityRound {
	total := decimal.New(raised, 0)
	return &models.EquityRound{
		StartupID:         startupID,
		Name:              "Series A",
		ShareClassName:    "Series A Preferred",
		Status:            enum.RoundClosed,
		PricePerShare:     &price,
		PreMoneyValuation: price.Mul(decimal.New(2000000, 0)),
		TotalRaised:       &total,
		TargetAmount:      total,
	}
}
