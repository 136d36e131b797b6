package main

import (
	"github.com/alpacahq/gocaptable/migration"
	"github.com/alpacahq/gocaptable/utils/db"
	"github.com/alpacahq/gocaptable/utils/initializer"
	"github.com/alpacahq/gocaptable/utils/log"
)

func main() {
	initializer.Initialize()

	if err := migration.Migration(db.DB()).Migrate(); err != nil {
		log.Fatal("database error", "action", "migration", "error", err)
	}
	db.DB().Close()
	log.Info("migration successful")
}
