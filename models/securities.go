package models

import (
	"time"

	"github.com/alpacahq/gocaptable/models/enum"
	"github.com/alpacahq/gocaptable/utils/date"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofrs/uuid"
	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Investment is owned by the investments collaborator and
// only read here.
type Investment struct {
	ID         string          `json:"id" gorm:"primary_key" sql:"type:uuid;"`
	CreatedAt  time.Time       `json:"created_at"`
	StartupID  string          `json:"startup_id" gorm:"not null;index" sql:"type:uuid;"`
	InvestorID string          `json:"investor_id" gorm:"not null;index" sql:"type:uuid;"`
	Amount     decimal.Decimal `json:"amount" gorm:"type:decimal;not null"`
}

func (i *Investment) BeforeCreate(scope *gorm.Scope) error {
	if i.ID == "" {
		i.ID = uuid.Must(uuid.NewV4()).String()
	}
	return scope.SetColumn("id", i.ID)
}

// ConvertibleSecurity is either a SAFE or a convertible note. The
// variant specific terms live in exactly one of Safe / Note.
type ConvertibleSecurity struct {
	ID                          string              `json:"id" gorm:"primary_key" sql:"type:uuid;"`
	CreatedAt                   time.Time           `json:"created_at"`
	UpdatedAt                   time.Time           `json:"updated_at"`
	InvestmentID                string              `json:"investment_id" gorm:"not null;index" sql:"type:uuid;"`
	StartupID                   string              `json:"startup_id" gorm:"not null;index" sql:"type:uuid;"`
	InvestorID                  string              `json:"investor_id" gorm:"not null" sql:"type:uuid;"`
	Kind                        enum.SecurityKind   `json:"kind" gorm:"type:varchar(4);not null"`
	PrincipalAmount             decimal.Decimal     `json:"principal_amount" gorm:"type:decimal;not null"`
	IssuedDate                  date.Date           `json:"issued_date" gorm:"not null" sql:"type:date"`
	Status                      enum.SecurityStatus `json:"status" gorm:"type:varchar(10);not null;index"`
	AutoConversion              bool                `json:"auto_conversion" gorm:"not null"`
	QualifiedFinancingThreshold *decimal.Decimal    `json:"qualified_financing_threshold" gorm:"type:decimal"`
	ConvertedAt                 *time.Time          `json:"converted_at"`
	Safe                        *SafeTerms          `json:"safe,omitempty" gorm:"ForeignKey:SecurityID"`
	Note                        *NoteTerms          `json:"note,omitempty" gorm:"ForeignKey:SecurityID"`
}

func (ConvertibleSecurity) TableName() string {
	return "convertible_securities"
}

func (s *ConvertibleSecurity) BeforeCreate(scope *gorm.Scope) error {
	if s.ID == "" {
		s.ID = uuid.Must(uuid.NewV4()).String()
	}
	if s.Status == "" {
		s.Status = enum.Active
		if err := scope.SetColumn("status", s.Status); err != nil {
			return err
		}
	}
	return scope.SetColumn("id", s.ID)
}

// SafeTerms are the conversion terms of a SAFE.
type SafeTerms struct {
	ID                uint             `json:"-" gorm:"primary_key"`
	SecurityID        string           `json:"-" gorm:"not null;unique_index" sql:"type:uuid;"`
	ValuationCap      *decimal.Decimal `json:"valuation_cap" gorm:"type:decimal"`
	DiscountRate      *decimal.Decimal `json:"discount_rate" gorm:"type:decimal"`
	MostFavoredNation bool             `json:"most_favored_nation"`
}

// NoteTerms are the debt and conversion terms of a convertible note.
type NoteTerms struct {
	ID              uint             `json:"-" gorm:"primary_key"`
	SecurityID      string           `json:"-" gorm:"not null;unique_index" sql:"type:uuid;"`
	InterestRate    decimal.Decimal  `json:"interest_rate" gorm:"type:decimal;not null"`
	MaturityDate    date.Date        `json:"maturity_date" gorm:"not null" sql:"type:date"`
	Compounding     enum.Compounding `json:"compounding" gorm:"type:varchar(8);not null"`
	AccruedInterest decimal.Decimal  `json:"accrued_interest" gorm:"type:decimal;not null"`
	SecurityType    string           `json:"security_type"`
	ValuationCap    *decimal.Decimal `json:"valuation_cap" gorm:"type:decimal"`
	DiscountRate    *decimal.Decimal `json:"discount_rate" gorm:"type:decimal"`
}

// Instrument is the closed set of convertible variants. Code that
// prices or accrues must switch over *SafeTerms and *NoteTerms.
type Instrument interface {
	Kind() enum.SecurityKind
	Cap() *decimal.Decimal
	Discount() *decimal.Decimal
	instrument()
}

func (t *SafeTerms) Kind() enum.SecurityKind    { return enum.Safe }
func (t *SafeTerms) Cap() *decimal.Decimal      { return t.ValuationCap }
func (t *SafeTerms) Discount() *decimal.Decimal { return t.DiscountRate }
func (t *SafeTerms) instrument()                {}

func (t *NoteTerms) Kind() enum.SecurityKind    { return enum.Note }
func (t *NoteTerms) Cap() *decimal.Decimal      { return t.ValuationCap }
func (t *NoteTerms) Discount() *decimal.Decimal { return t.DiscountRate }
func (t *NoteTerms) instrument()                {}

var ErrUnknownVariant = errors.New("security has no matching variant terms")

// Instrument returns the variant terms matching Kind.
func (s *ConvertibleSecurity) Instrument() (Instrument, error) {
	switch s.Kind {
	case enum.Safe:
		if s.Safe == nil || s.Note != nil {
			return nil, errors.Wrapf(ErrUnknownVariant, "safe %v", s.ID)
		}
		return s.Safe, nil
	case enum.Note:
		if s.Note == nil || s.Safe != nil {
			return nil, errors.Wrapf(ErrUnknownVariant, "note %v", s.ID)
		}
		return s.Note, nil
	default:
		return nil, errors.Wrapf(ErrUnknownVariant, "kind %q", s.Kind)
	}
}

// Active returns true while the security may still convert.
func (s *ConvertibleSecurity) Active() bool {
	return s.Status == enum.Active
}

// Matured returns true for notes past their maturity date.
func (s *ConvertibleSecurity) Matured(asOf date.Date) bool {
	return s.Kind == enum.Note && s.Note != nil && asOf.After(s.Note.MaturityDate)
}

func (s *ConvertibleSecurity) Validate() error {
	if err := validation.ValidateStruct(s,
		validation.Field(&s.InvestmentID, validation.Required),
		validation.Field(&s.StartupID, validation.Required),
		validation.Field(&s.InvestorID, validation.Required),
		validation.Field(&s.Kind, validation.Required, validation.In(enum.Safe, enum.Note)),
		validation.Field(&s.PrincipalAmount, validation.By(positive)),
		validation.Field(&s.QualifiedFinancingThreshold, validation.By(nonNegative)),
	); err != nil {
		return err
	}

	inst, err := s.Instrument()
	if err != nil {
		return err
	}

	switch t := inst.(type) {
	case *SafeTerms:
		return validation.ValidateStruct(t,
			validation.Field(&t.ValuationCap, validation.By(positive)),
			validation.Field(&t.DiscountRate, validation.By(percent)),
		)
	case *NoteTerms:
		return validation.ValidateStruct(t,
			validation.Field(&t.InterestRate, validation.By(nonNegative)),
			validation.Field(&t.Compounding, validation.Required, validation.In(enum.Simple, enum.Compound)),
			validation.Field(&t.ValuationCap, validation.By(positive)),
			validation.Field(&t.DiscountRate, validation.By(percent)),
		)
	default:
		return ErrUnknownVariant
	}
}
