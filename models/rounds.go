package models

import (
	"time"

	"github.com/alpacahq/gocaptable/models/enum"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofrs/uuid"
	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

type EquityRound struct {
	ID                 string           `json:"id" gorm:"primary_key" sql:"type:uuid;"`
	CreatedAt          time.Time        `json:"created_at" gorm:"index"`
	UpdatedAt          time.Time        `json:"updated_at"`
	StartupID          string           `json:"startup_id" gorm:"not null;index" sql:"type:uuid;"`
	Name               string           `json:"name"`
	ShareClassName     string           `json:"share_class_name"`
	Status             enum.RoundStatus `json:"status" gorm:"type:varchar(6);not null"`
	PricePerShare      *decimal.Decimal `json:"price_per_share" gorm:"type:decimal"`
	PreMoneyValuation  decimal.Decimal  `json:"pre_money_valuation" gorm:"type:decimal;not null"`
	PostMoneyValuation *decimal.Decimal `json:"post_money_valuation" gorm:"type:decimal"`
	TotalRaised        *decimal.Decimal `json:"total_raised" gorm:"type:decimal"`
	TargetAmount       decimal.Decimal  `json:"target_amount" gorm:"type:decimal;not null"`
}

func (r *EquityRound) BeforeCreate(scope *gorm.Scope) error {
	if r.ID == "" {
		r.ID = uuid.Must(uuid.NewV4()).String()
	}
	return scope.SetColumn("id", r.ID)
}

// Raised is the amount used for qualified financing checks,
// falling back to the target while the round is still raising.
func (r *EquityRound) Raised() decimal.Decimal {
	if r.TotalRaised != nil {
		return *r.TotalRaised
	}
	return r.TargetAmount
}

// Priced returns true if the round can trigger conversions.
func (r *EquityRound) Priced() bool {
	return r.PricePerShare != nil && r.PricePerShare.IsPositive()
}

// Valuation returns the post money valuation, or the pre money
// valuation when the former is unknown.
func (r *EquityRound) Valuation() decimal.Decimal {
	if r.PostMoneyValuation != nil && r.PostMoneyValuation.IsPositive() {
		return *r.PostMoneyValuation
	}
	return r.PreMoneyValuation
}

func (r *EquityRound) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.StartupID, validation.Required),
		validation.Field(&r.Status, validation.Required, validation.In(enum.RoundOpen, enum.RoundActive, enum.RoundClosed)),
		validation.Field(&r.PricePerShare, validation.By(positive)),
		validation.Field(&r.PreMoneyValuation, validation.By(nonNegative)),
		validation.Field(&r.PostMoneyValuation, validation.By(nonNegative)),
		validation.Field(&r.TotalRaised, validation.By(nonNegative)),
		validation.Field(&r.TargetAmount, validation.By(nonNegative)),
	)
}
