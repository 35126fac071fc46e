// Package store is the persistence layer: GORM models with JSON-typed
// columns for authors/attributes/metadata/options/changed, idempotent schema
// setup, and UTC timestamp normalisation.
package store

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store wraps the underlying *gorm.DB and is the only component that touches
// SQL directly; every other package reaches the database through its methods.
type Store struct {
	DB     *gorm.DB
	logger *logrus.Logger
}

// Config selects the backing database. Driver is "sqlite" (DatabaseName is a
// file path) or "postgres" (DatabaseName is a DSN).
type Config struct {
	Driver       string
	DatabaseName string
}

// Open establishes the database connection, runs AutoMigrate for every row
// type, and probes for recursive CTE support. The required SQL features are
// JSON field extraction, JSON array iteration, and recursive CTEs; the
// Search Engine depends on the latter, so Open refuses to start
// when the probe fails rather than letting that component fail later.
func Open(cfg Config, logger *logrus.Logger) (*Store, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "sqlite":
		dialector = sqlite.Open(cfg.DatabaseName)
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseName)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	if err := db.AutoMigrate(
		&LogbookRow{},
		&LogbookChangeRow{},
		&EntryRow{},
		&EntryChangeRow{},
		&EntryLockRow{},
		&AttachmentRow{},
	); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	s := &Store{DB: db, logger: logger}
	if err := s.probeRecursiveCTE(); err != nil {
		return nil, err
	}
	return s, nil
}

// probeRecursiveCTE runs a trivial recursive CTE to confirm the backend
// supports it; if it does not, the Store refuses to start.
func (s *Store) probeRecursiveCTE() error {
	var n int
	row := s.DB.Raw(`
		WITH RECURSIVE cnt(x) AS (
			SELECT 1
			UNION ALL
			SELECT x + 1 FROM cnt WHERE x < 3
		)
		SELECT count(*) FROM cnt
	`).Row()
	if err := row.Scan(&n); err != nil {
		return fmt.Errorf("store: backend lacks required recursive CTE support: %w", err)
	}
	if n != 3 {
		return fmt.Errorf("store: recursive CTE probe returned unexpected count %d", n)
	}
	return nil
}

// Transaction runs fn inside a single database transaction: one transaction
// per write operation.
func (s *Store) Transaction(fn func(tx *gorm.DB) error) error {
	return s.DB.Transaction(fn)
}
