package migration

import (
	"github.com/alpacahq/gocaptable/models"
	"github.com/jinzhu/gorm"
	gormigrate "gopkg.in/gormigrate.v1"
)

// Migration contains all of the incremental migrations that the database
// requires to keep its schema and models up to date with current source code.
func Migration(db *gorm.DB) *gormigrate.Gormigrate {
	return gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		// initial migration
		{
			ID: "202401081200",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&models.Investment{},
					&models.ConvertibleSecurity{},
					&models.SafeTerms{},
					&models.NoteTerms{},
					&models.EquityRound{},
					&models.CapTableSnapshot{},
					&models.ShareClass{},
					&models.Stakeholder{},
					&models.Holding{},
					&models.CapTableEvent{},
				).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.DropTableIfExists(
					"cap_table_events",
					"holdings",
					"stakeholders",
					"share_classes",
					"cap_table_snapshots",
					"equity_rounds",
					"note_terms",
					"safe_terms",
					"convertible_securities",
					"investments",
				).Error
			},
		},
		{
			ID: "202402131530",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&models.Conversion{},
					&models.ConversionEvaluation{},
				).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.DropTableIfExists("conversion_evaluations", "conversions").Error
			},
		},
		{
			ID: "202403041015",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&models.ExitEvent{},
					&models.Distribution{},
				).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.DropTableIfExists("distributions", "exit_events").Error
			},
		},
		{
			ID: "202403181140",
			Migrate: func(tx *gorm.DB) error {
				return tx.Model(&models.CapTableEvent{}).AddIndex(
					"idx_cap_table_event_holder", "holder_id").Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Model(&models.CapTableEvent{}).RemoveIndex("idx_cap_table_event_holder").Error
			},
		},
		{
			// sqlite does not enforce varchar lengths and cannot alter columns
			ID: "202410180930",
			Migrate: func(tx *gorm.DB) error {
				if tx.Dialect().GetName() != "postgres" {
					return nil
				}
				return tx.Model(&models.ConversionEvaluation{}).ModifyColumn("reason", "varchar(32)").Error
			},
			Rollback: func(tx *gorm.DB) error {
				return nil
			},
		},
	})
}
