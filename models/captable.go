package models

import (
	"sort"
	"time"

	"github.com/alpacahq/gocaptable/models/enum"
	"github.com/alpacahq/gocaptable/utils/date"
	"github.com/gofrs/uuid"
	"github.com/jinzhu/copier"
	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

// CapTableSnapshot is an immutable, versioned view of a startup's
// equity. Changes always produce a new version via Clone.
type CapTableSnapshot struct {
	ID                 string          `json:"id" yaml:"-" gorm:"primary_key" sql:"type:uuid;"`
	CreatedAt          time.Time       `json:"created_at" yaml:"-"`
	StartupID          string          `json:"startup_id" yaml:"startup_id" gorm:"not null;unique_index:idx_cap_table_version" sql:"type:uuid;"`
	Version            uint            `json:"version" yaml:"version" gorm:"not null;unique_index:idx_cap_table_version"`
	AsOfDate           date.Date       `json:"as_of_date" yaml:"as_of_date" gorm:"not null" sql:"type:date"`
	FullyDilutedShares decimal.Decimal `json:"fully_diluted_shares" yaml:"fully_diluted_shares" gorm:"type:decimal;not null"`
	ShareClasses       []ShareClass    `json:"share_classes" yaml:"share_classes" gorm:"ForeignKey:SnapshotID"`
	Stakeholders       []Stakeholder   `json:"stakeholders" yaml:"stakeholders" gorm:"ForeignKey:SnapshotID"`
	Events             []CapTableEvent `json:"events" yaml:"events" gorm:"ForeignKey:SnapshotID"`
}

func (CapTableSnapshot) TableName() string {
	return "cap_table_snapshots"
}

func (s *CapTableSnapshot) BeforeCreate(scope *gorm.Scope) error {
	if s.ID == "" {
		s.ID = uuid.Must(uuid.NewV4()).String()
	}
	return scope.SetColumn("id", s.ID)
}

// Clone returns an unsaved copy of the snapshot with the version
// bumped. Nothing in the returned value aliases the receiver.
func (s *CapTableSnapshot) Clone() (*CapTableSnapshot, error) {
	next := &CapTableSnapshot{
		StartupID:          s.StartupID,
		Version:            s.Version + 1,
		AsOfDate:           s.AsOfDate,
		FullyDilutedShares: s.FullyDilutedShares,
	}

	if err := copier.Copy(&next.ShareClasses, &s.ShareClasses); err != nil {
		return nil, err
	}
	if err := copier.Copy(&next.Stakeholders, &s.Stakeholders); err != nil {
		return nil, err
	}
	if err := copier.Copy(&next.Events, &s.Events); err != nil {
		return nil, err
	}

	for i := range next.ShareClasses {
		c := &next.ShareClasses[i]
		c.ID = 0
		c.SnapshotID = ""
		c.PricePerShare = copyDecimal(c.PricePerShare)
		c.LiquidationMultiple = copyDecimal(c.LiquidationMultiple)
	}
	for i := range next.Stakeholders {
		sh := &next.Stakeholders[i]
		var holdings []Holding
		if err := copier.Copy(&holdings, &s.Stakeholders[i].Holdings); err != nil {
			return nil, err
		}
		for j := range holdings {
			holdings[j].ID = 0
			holdings[j].StakeholderID = 0
		}
		sh.Holdings = holdings
		sh.ID = 0
		sh.SnapshotID = ""
	}
	for i := range next.Events {
		e := &next.Events[i]
		e.ID = 0
		e.SnapshotID = ""
		e.RoundID = copyString(e.RoundID)
		e.ConversionID = copyString(e.ConversionID)
	}

	return next, nil
}

// copier copies struct elements shallowly, so pointer fields are
// re-pointed here.
func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// FullyDilutedBefore is the fully diluted share count as it stood
// before roundID issued anything. Events accumulate across versions,
// so the round's first event carries that count.
func (s *CapTableSnapshot) FullyDilutedBefore(roundID string) decimal.Decimal {
	for _, e := range s.Events {
		if e.RoundID != nil && *e.RoundID == roundID {
			return e.SharesBefore
		}
	}
	return s.FullyDilutedShares
}

// ShareClass returns the class with the given name, or nil.
func (s *CapTableSnapshot) ShareClass(name string) *ShareClass {
	for i := range s.ShareClasses {
		if s.ShareClasses[i].Name == name {
			return &s.ShareClasses[i]
		}
	}
	return nil
}

// Stakeholder returns the stakeholder with the given holder id, or nil.
func (s *CapTableSnapshot) Stakeholder(holderID string) *Stakeholder {
	for i := range s.Stakeholders {
		if s.Stakeholders[i].HolderID == holderID {
			return &s.Stakeholders[i]
		}
	}
	return nil
}

// ClassesBySeniority returns the preferred classes, most senior first.
// Ties keep their stored order.
func (s *CapTableSnapshot) ClassesBySeniority() []ShareClass {
	classes := []ShareClass{}
	for _, c := range s.ShareClasses {
		if c.Type == enum.Preferred {
			classes = append(classes, c)
		}
	}
	sort.SliceStable(classes, func(i, j int) bool {
		return classes[i].SeniorityRank < classes[j].SeniorityRank
	})
	return classes
}

type ShareClass struct {
	ID                    uint                `json:"-" yaml:"-" gorm:"primary_key"`
	SnapshotID            string              `json:"-" yaml:"-" gorm:"not null;index" sql:"type:uuid;"`
	Name                  string              `json:"name" yaml:"name" gorm:"not null"`
	Type                  enum.ShareClassType `json:"type" yaml:"type" gorm:"type:varchar(9);not null"`
	SharesAuthorized      decimal.Decimal     `json:"shares_authorized" yaml:"shares_authorized" gorm:"type:decimal;not null"`
	SharesIssued          decimal.Decimal     `json:"shares_issued" yaml:"shares_issued" gorm:"type:decimal;not null"`
	SharesOutstanding     decimal.Decimal     `json:"shares_outstanding" yaml:"shares_outstanding" gorm:"type:decimal;not null"`
	PricePerShare         *decimal.Decimal    `json:"price_per_share" yaml:"price_per_share" gorm:"type:decimal"`
	LiquidationPreference decimal.Decimal     `json:"liquidation_preference" yaml:"liquidation_preference" gorm:"type:decimal;not null"`
	LiquidationMultiple   *decimal.Decimal    `json:"liquidation_multiple" yaml:"liquidation_multiple" gorm:"type:decimal"`
	Participating         bool                `json:"participating" yaml:"participating"`
	SeniorityRank         int                 `json:"seniority_rank" yaml:"seniority_rank"`
	VotesPerShare         decimal.Decimal     `json:"votes_per_share" yaml:"votes_per_share" gorm:"type:decimal;not null"`
}

type Stakeholder struct {
	ID              uint                 `json:"-" yaml:"-" gorm:"primary_key"`
	SnapshotID      string               `json:"-" yaml:"-" gorm:"not null;index" sql:"type:uuid;"`
	HolderID        string               `json:"holder_id" yaml:"holder_id" gorm:"not null"`
	Name            string               `json:"name" yaml:"name"`
	Type            enum.StakeholderType `json:"type" yaml:"type" gorm:"type:varchar(10);not null"`
	Options         decimal.Decimal      `json:"options" yaml:"options" gorm:"type:decimal;not null"`
	Warrants        decimal.Decimal      `json:"warrants" yaml:"warrants" gorm:"type:decimal;not null"`
	TotalInvestment decimal.Decimal      `json:"total_investment" yaml:"total_investment" gorm:"type:decimal;not null"`
	Holdings        []Holding            `json:"holdings" yaml:"holdings" gorm:"ForeignKey:StakeholderID"`

	// derived from share counts, see captable.Recompute
	TotalShares           decimal.Decimal `json:"total_shares" yaml:"-" gorm:"-"`
	FullyDilutedOwnership decimal.Decimal `json:"fully_diluted_ownership" yaml:"-" gorm:"-"`
	CurrentOwnership      decimal.Decimal `json:"current_ownership" yaml:"-" gorm:"-"`
}

// SharesOf returns the stakeholder's share count in a class.
func (s *Stakeholder) SharesOf(class string) decimal.Decimal {
	total := decimal.Zero
	for _, h := range s.Holdings {
		if h.ShareClass == class {
			total = total.Add(h.Shares)
		}
	}
	return total
}

// HoldingsByClass returns share counts keyed by class name.
func (s *Stakeholder) HoldingsByClass() map[string]decimal.Decimal {
	m := map[string]decimal.Decimal{}
	for _, h := range s.Holdings {
		m[h.ShareClass] = m[h.ShareClass].Add(h.Shares)
	}
	return m
}

// AddShares credits shares in a class, merging into an existing holding.
func (s *Stakeholder) AddShares(class string, shares decimal.Decimal) {
	for i := range s.Holdings {
		if s.Holdings[i].ShareClass == class {
			s.Holdings[i].Shares = s.Holdings[i].Shares.Add(shares)
			return
		}
	}
	s.Holdings = append(s.Holdings, Holding{ShareClass: class, Shares: shares})
}

type Holding struct {
	ID            uint            `json:"-" yaml:"-" gorm:"primary_key"`
	StakeholderID uint            `json:"-" yaml:"-" gorm:"not null;index"`
	ShareClass    string          `json:"share_class" yaml:"share_class" gorm:"not null"`
	Shares        decimal.Decimal `json:"shares" yaml:"shares" gorm:"type:decimal;not null"`
}

// CapTableEvent is an audit entry. SharesBefore / SharesAfter are
// fully diluted share counts around the change.
type CapTableEvent struct {
	ID           uint                   `json:"-" yaml:"-" gorm:"primary_key"`
	SnapshotID   string                 `json:"-" yaml:"-" gorm:"not null;index" sql:"type:uuid;"`
	CreatedAt    time.Time              `json:"created_at" yaml:"-"`
	Type         enum.CapTableEventType `json:"type" yaml:"type" gorm:"type:varchar(10);not null"`
	RoundID      *string                `json:"round_id" yaml:"round_id,omitempty" sql:"type:uuid;"`
	ConversionID *string                `json:"conversion_id" yaml:"conversion_id,omitempty" sql:"type:uuid;"`
	HolderID     string                 `json:"holder_id" yaml:"holder_id"`
	ShareClass   string                 `json:"share_class" yaml:"share_class"`
	SharesIssued decimal.Decimal        `json:"shares_issued" yaml:"shares_issued" gorm:"type:decimal;not null"`
	SharesBefore decimal.Decimal        `json:"shares_before" yaml:"shares_before" gorm:"type:decimal;not null"`
	SharesAfter  decimal.Decimal        `json:"shares_after" yaml:"shares_after" gorm:"type:decimal;not null"`
}
