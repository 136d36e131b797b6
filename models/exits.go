package models

import (
	"time"

	"github.com/alpacahq/gocaptable/models/enum"
	"github.com/alpacahq/gocaptable/utils/date"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofrs/uuid"
	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

type ExitEvent struct {
	ID            string          `json:"id" yaml:"id" gorm:"primary_key" sql:"type:uuid;"`
	CreatedAt     time.Time       `json:"created_at" yaml:"-"`
	StartupID     string          `json:"startup_id" yaml:"startup_id" gorm:"not null;index" sql:"type:uuid;"`
	SnapshotID    string          `json:"snapshot_id" yaml:"snapshot_id" gorm:"not null" sql:"type:uuid;"`
	ExitProceeds  decimal.Decimal `json:"exit_proceeds" yaml:"exit_proceeds" gorm:"type:decimal;not null"`
	ExitType      enum.ExitType   `json:"exit_type" yaml:"exit_type" gorm:"type:varchar(11);not null"`
	ExitDate      date.Date       `json:"exit_date" yaml:"exit_date" gorm:"not null" sql:"type:date"`
	Distributions []Distribution  `json:"distributions,omitempty" yaml:"-" gorm:"ForeignKey:ExitEventID"`
}

func (e *ExitEvent) BeforeCreate(scope *gorm.Scope) error {
	if e.ID == "" {
		e.ID = uuid.Must(uuid.NewV4()).String()
	}
	return scope.SetColumn("id", e.ID)
}

func (e *ExitEvent) Validate() error {
	return validation.ValidateStruct(e,
		validation.Field(&e.StartupID, validation.Required),
		validation.Field(&e.ExitProceeds, validation.By(nonNegative)),
		validation.Field(&e.ExitType, validation.Required, validation.In(
			enum.Acquisition, enum.IPO, enum.Merger, enum.Liquidation)),
	)
}

// Distribution is one stakeholder's share of an exit. Amounts are
// fixed at creation; only Status moves afterwards.
type Distribution struct {
	ID              string                  `json:"id" csv:"id" gorm:"primary_key" sql:"type:uuid;"`
	CreatedAt       time.Time               `json:"created_at" csv:"-"`
	UpdatedAt       time.Time               `json:"updated_at" csv:"-"`
	ExitEventID     string                  `json:"exit_event_id" csv:"exit_event_id" gorm:"not null;unique_index:idx_distribution_holder" sql:"type:uuid;"`
	HolderID        string                  `json:"holder_id" csv:"holder_id" gorm:"not null;unique_index:idx_distribution_holder"`
	Name            string                  `json:"name" csv:"name"`
	Investment      decimal.Decimal         `json:"investment" csv:"investment" gorm:"type:decimal;not null"`
	Preference      decimal.Decimal         `json:"preference" csv:"preference" gorm:"type:decimal;not null"`
	Participation   decimal.Decimal         `json:"participation" csv:"participation" gorm:"type:decimal;not null"`
	Amount          decimal.Decimal         `json:"amount" csv:"amount" gorm:"type:decimal;not null"`
	ReturnMultiple  decimal.Decimal         `json:"return_multiple" csv:"return_multiple" gorm:"type:decimal;not null"`
	OwnershipAtExit decimal.Decimal         `json:"ownership_at_exit" csv:"ownership_at_exit" gorm:"type:decimal;not null"`
	Status          enum.DistributionStatus `json:"status" csv:"status" gorm:"type:varchar(10);not null"`
}

func (d *Distribution) BeforeCreate(scope *gorm.Scope) error {
	if d.ID == "" {
		d.ID = uuid.Must(uuid.NewV4()).String()
	}
	if d.Status == "" {
		d.Status = enum.DistributionPending
		if err := scope.SetColumn("status", d.Status); err != nil {
			return err
		}
	}
	return scope.SetColumn("id", d.ID)
}
