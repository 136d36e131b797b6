package db

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alpacahq/gocaptable/utils/env"
	"github.com/alpacahq/gocaptable/utils/log"
	"github.com/jinzhu/gorm"
	"github.com/lib/pq"

	// dialects
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

var (
	db   *gorm.DB
	once sync.Once
	mu   sync.RWMutex
)

const (
	Postgres = "postgres"
	SQLite   = "sqlite3"
)

// DB is a singleton wrapper to the gorm database object.
func DB() *gorm.DB {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		if db != nil {
			return
		}
		var err error
		db, err = NewDB()
		if err != nil {
			log.Panic("database initialization failure", "error", err)
		}
	})

	mu.RLock()
	defer mu.RUnlock()
	return db
}

// Set replaces the singleton, used by test suites that own
// their database lifecycle.
func Set(d *gorm.DB) {
	once.Do(func() {})
	mu.Lock()
	defer mu.Unlock()
	db = d
}

/*
Optionally pass in a map of options, such as:

	[DB_DIALECT]sqlite3
	[DB_PATH]/tmp/captable.db
	[PGHOST]localhost

These will override the settings made via environment variables
*/
func NewDB(optionsList ...map[string]string) (dbT *gorm.DB, err error) {
	opts := map[string]string{}
	for _, key := range []string{
		"DB_DIALECT", "DB_PATH", "PGSSLMODE", "PGHOST", "PGUSER",
		"PGDATABASE", "PGPASSWORD", "LOG_DB", "DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS",
	} {
		opts[key] = env.GetVar(key)
	}

	if len(optionsList) != 0 {
		for key, val := range optionsList[0] {
			opts[key] = val
		}
	}

	switch opts["DB_DIALECT"] {
	case SQLite:
		dbT, err = gorm.Open(SQLite, opts["DB_PATH"])
		if err != nil {
			return nil, err
		}
		// sqlite serializes writers anyway
		dbT.DB().SetMaxOpenConns(1)
	default:
		sslmode := opts["PGSSLMODE"]
		if sslmode == "" {
			sslmode = "disable"
		}

		params := fmt.Sprintf(
			"host=%v user=%v dbname=%v sslmode=%v password=%v",
			opts["PGHOST"], opts["PGUSER"], opts["PGDATABASE"], sslmode, opts["PGPASSWORD"],
		)

		dbT, err = gorm.Open(Postgres, params)
		if err != nil {
			return nil, err
		}

		// default = 20 (Go's default is 0 == unlimited)
		dbT.DB().SetMaxOpenConns(20)
		if v := opts["DB_MAX_OPEN_CONNS"]; v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				log.Warn("parse error DB_MAX_OPEN_CONNS", "error", err)
			} else {
				dbT.DB().SetMaxOpenConns(n)
			}
		}

		if v := opts["DB_MAX_IDLE_CONNS"]; v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				log.Warn("parse error DB_MAX_IDLE_CONNS", "error", err)
			} else {
				dbT.DB().SetMaxIdleConns(n)
			}
		}

		// so it doesn't reuse stale connections
		dbT.DB().SetConnMaxLifetime(30 * time.Minute)
	}

	logDB, _ := strconv.ParseBool(opts["LOG_DB"])
	dbT.LogMode(logDB)

	return dbT, nil
}

// IsUniqueViolation returns true when the error was raised by a
// unique index, for both postgres (23505) and sqlite.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key value")
}

// IsSerializabilityError returns true if the supplied error
// is due to a serializability failure in the DB.
func IsSerializabilityError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "could not serialize access due to concurrent update")
}

// Serializable begins a transaction with isolation level set to
// SERIALIZABLE. SQLite transactions are already serializable.
func Serializable(d ...*gorm.DB) *gorm.DB {
	conn := DB()
	if len(d) > 0 {
		conn = d[0]
	}
	tx := conn.Begin()
	if conn.Dialect().GetName() == Postgres {
		tx = tx.Exec("SET TRANSACTION ISOLATION LEVEL SERIALIZABLE")
	}
	return tx
}

// Begin a transaction.
func Begin() *gorm.DB {
	return DB().Begin()
}
