package database

import (
	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/orcvnrln/papersim/internal/journal"
	"github.com/orcvnrln/papersim/internal/types"
)

// InMemoryDSN keeps the audit journal session-scoped; nothing survives
// a restart unless a file path is supplied instead.
const InMemoryDSN = "file::memory:?cache=shared"

// Database wraps the gorm connection used by the journal.
type Database struct {
	DB *gorm.DB
}

// NewDatabase opens the sqlite database at dsn and migrates the
// journal schema. An empty dsn selects the in-memory store.
func NewDatabase(dsn string) (*Database, error) {
	if dsn == "" {
		dsn = InMemoryDSN
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&types.Order{},
		&types.Trade{},
		&journal.EquitySnapshot{},
	); err != nil {
		return nil, err
	}

	log.Debug().Str("dsn", dsn).Msg("database initialized")
	return &Database{DB: db}, nil
}
