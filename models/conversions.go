package models

import (
	"time"

	"github.com/alpacahq/gocaptable/models/enum"
	"github.com/gofrs/uuid"
	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

// Conversion is the audit record of a security converting into
// equity. A security converts at most once.
type Conversion struct {
	ID               string            `json:"id" csv:"id" gorm:"primary_key" sql:"type:uuid;"`
	CreatedAt        time.Time         `json:"created_at" csv:"created_at"`
	SecurityID       string            `json:"security_id" csv:"security_id" gorm:"not null;unique_index" sql:"type:uuid;"`
	RoundID          string            `json:"round_id" csv:"round_id" gorm:"not null;index" sql:"type:uuid;"`
	StartupID        string            `json:"startup_id" csv:"startup_id" gorm:"not null;index" sql:"type:uuid;"`
	InvestorID       string            `json:"investor_id" csv:"investor_id" gorm:"not null" sql:"type:uuid;"`
	SnapshotID       string            `json:"snapshot_id" csv:"snapshot_id" gorm:"not null" sql:"type:uuid;"`
	Kind             enum.SecurityKind `json:"kind" csv:"kind" gorm:"type:varchar(4);not null"`
	ShareClass       string            `json:"share_class" csv:"share_class"`
	Principal        decimal.Decimal   `json:"principal" csv:"principal" gorm:"type:decimal;not null"`
	AccruedInterest  decimal.Decimal   `json:"accrued_interest" csv:"accrued_interest" gorm:"type:decimal;not null"`
	ConvertingAmount decimal.Decimal   `json:"converting_amount" csv:"converting_amount" gorm:"type:decimal;not null"`
	RoundPrice       decimal.Decimal   `json:"round_price" csv:"round_price" gorm:"type:decimal;not null"`
	CapPrice         *decimal.Decimal  `json:"cap_price" csv:"cap_price" gorm:"type:decimal"`
	DiscountPrice    *decimal.Decimal  `json:"discount_price" csv:"discount_price" gorm:"type:decimal"`
	ConversionPrice  decimal.Decimal   `json:"conversion_price" csv:"conversion_price" gorm:"type:decimal;not null"`
	Shares           decimal.Decimal   `json:"shares" csv:"shares" gorm:"type:decimal;not null"`
	Residual         decimal.Decimal   `json:"residual" csv:"residual" gorm:"type:decimal;not null"`
}

func (c *Conversion) BeforeCreate(scope *gorm.Scope) error {
	if c.ID == "" {
		c.ID = uuid.Must(uuid.NewV4()).String()
	}
	return scope.SetColumn("id", c.ID)
}

// TotalAmount is the value the issued shares represent at the
// conversion price.
func (c *Conversion) TotalAmount() decimal.Decimal {
	return c.Shares.Mul(c.ConversionPrice)
}

// ConversionEvaluation tracks the orchestrator state of one
// (security, round) pair.
type ConversionEvaluation struct {
	ID              uint                 `json:"-" gorm:"primary_key"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
	SecurityID      string               `json:"security_id" gorm:"not null;unique_index:idx_evaluation_pair" sql:"type:uuid;"`
	RoundID         string               `json:"round_id" gorm:"not null;unique_index:idx_evaluation_pair" sql:"type:uuid;"`
	State           enum.EvaluationState `json:"state" gorm:"type:varchar(13);not null"`
	Reason          enum.QualifyReason   `json:"reason" gorm:"type:varchar(32)"`
	ConversionPrice *decimal.Decimal     `json:"conversion_price" gorm:"type:decimal"`
	ConversionID    *string              `json:"conversion_id" sql:"type:uuid;"`
}

// Settled returns true once the pair no longer needs the sweep.
func (e *ConversionEvaluation) Settled() bool {
	switch e.State {
	case enum.Disqualified, enum.Eligible, enum.EvalConverted:
		return true
	default:
		return false
	}
}
