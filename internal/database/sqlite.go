package database

import (
	"fmt"

	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/flightline-labs/discstash/internal/identity"
	"github.com/flightline-labs/discstash/internal/inventory"
	"github.com/flightline-labs/discstash/internal/marketplace"
	"github.com/flightline-labs/discstash/internal/messaging"
	"github.com/flightline-labs/discstash/internal/profiles"
)

// OpenSQLite establishes a SQLite connection and performs schema migrations.
func OpenSQLite(path string, logger *zap.Logger) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&identity.Identity{},
		&profiles.Profile{},
		&inventory.DiscManufacturer{},
		&inventory.DiscModel{},
		&inventory.StorageLocation{},
		&inventory.UserDisc{},
		&marketplace.Listing{},
		&messaging.Conversation{},
		&messaging.Message{},
		&migrationRecord{},
	)
	if err != nil {
		return nil, err
	}

	if err := applyMigrations(db, logger); err != nil {
		return nil, err
	}

	if err := seedCatalog(db, logger); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("database initialized", zap.String("path", path))
	}

	return db, nil
}
