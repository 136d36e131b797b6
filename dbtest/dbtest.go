package dbtest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alpacahq/gocaptable/migration"
	"github.com/alpacahq/gocaptable/utils/db"
	"github.com/alpacahq/gocaptable/utils/env"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/suite"
)

// Suite gives each test suite its own migrated sqlite database,
// installed as the db.DB() singleton for the suite's lifetime.
type Suite struct {
	suite.Suite
	DatabaseID *uuid.UUID
}

func (s *Suite) SetDatabaseID(id uuid.UUID) {
	if s.DatabaseID != nil {
		s.FailNowf("testing database ID already set", "database_id: %s", s.DatabaseID.String())
	}

	s.DatabaseID = &id
}

func (s *Suite) SetupDB() {
	id, err := setup()
	if err != nil {
		s.FailNow("failed to set up testing database", err.Error())
	}
	s.SetDatabaseID(id)
}

func (s *Suite) TeardownDB() {
	if s.DatabaseID == nil {
		return
	}
	if err := teardown(*s.DatabaseID); err != nil {
		s.Fail("failed to drop testing database", err.Error())
	}
	s.DatabaseID = nil
}

func path(id uuid.UUID) string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("gbtest_%s.db", id.String()))
}

func setup() (id uuid.UUID, err error) {
	env.RegisterDefault("LOG_DB", "false")

	id = uuid.Must(uuid.NewV4())

	d, err := db.NewDB(map[string]string{
		"DB_DIALECT": db.SQLite,
		"DB_PATH":    path(id),
	})
	if err != nil {
		return id, err
	}

	if err = migration.Migration(d).Migrate(); err != nil {
		d.Close()
		return id, err
	}

	db.Set(d)

	return id, nil
}

func teardown(id uuid.UUID) error {
	if err := db.DB().Close(); err != nil {
		return err
	}
	return os.Remove(path(id))
}
