package database

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	migrationNormalizeAccountEmails = "2026-06-02_normalize_account_emails"
	migrationBackfillListingUpdates = "2026-07-19_backfill_listing_updated_at"
)

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationNormalizeAccountEmails, apply: normalizeAccountEmails},
		{name: migrationBackfillListingUpdates, apply: backfillListingUpdatedAt},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// Accounts created before email normalization was enforced may carry
// mixed-case or padded addresses.
func normalizeAccountEmails(db *gorm.DB) error {
	statements := []string{
		"UPDATE identities SET email = LOWER(TRIM(email)) WHERE email <> LOWER(TRIM(email));",
		"UPDATE profiles SET email = LOWER(TRIM(email)) WHERE email <> LOWER(TRIM(email));",
	}
	for _, statement := range statements {
		if err := db.Exec(statement).Error; err != nil {
			return err
		}
	}
	return nil
}

func backfillListingUpdatedAt(db *gorm.DB) error {
	return db.Exec("UPDATE marketplace_listings SET updated_at = created_at WHERE updated_at IS NULL OR updated_at < created_at;").Error
}
