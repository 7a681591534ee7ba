package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/flightline-labs/discstash/internal/inventory"
)

// seedCatalog inserts the baseline disc catalog. Existing rows are left
// untouched so operators can extend the catalog by hand.
func seedCatalog(db *gorm.DB, logger *zap.Logger) error {
	manufacturers := []inventory.DiscManufacturer{
		{ID: "mfr-innova", Name: "Innova"},
		{ID: "mfr-discraft", Name: "Discraft"},
		{ID: "mfr-dynamic-discs", Name: "Dynamic Discs"},
		{ID: "mfr-latitude-64", Name: "Latitude 64"},
		{ID: "mfr-mvp", Name: "MVP"},
		{ID: "mfr-discmania", Name: "Discmania"},
	}
	models := []inventory.DiscModel{
		{ID: "model-destroyer", ManufacturerID: "mfr-innova", Name: "Destroyer", Type: "distance", Speed: 12, Glide: 5, Turn: -1, Fade: 3},
		{ID: "model-wraith", ManufacturerID: "mfr-innova", Name: "Wraith", Type: "distance", Speed: 11, Glide: 5, Turn: -1, Fade: 3},
		{ID: "model-teebird", ManufacturerID: "mfr-innova", Name: "TeeBird", Type: "fairway", Speed: 7, Glide: 5, Turn: 0, Fade: 2},
		{ID: "model-aviar", ManufacturerID: "mfr-innova", Name: "Aviar", Type: "putter", Speed: 2, Glide: 3, Turn: 0, Fade: 1},
		{ID: "model-buzzz", ManufacturerID: "mfr-discraft", Name: "Buzzz", Type: "midrange", Speed: 5, Glide: 4, Turn: -1, Fade: 1},
		{ID: "model-zone", ManufacturerID: "mfr-discraft", Name: "Zone", Type: "putter", Speed: 4, Glide: 3, Turn: 0, Fade: 3},
		{ID: "model-force", ManufacturerID: "mfr-discraft", Name: "Force", Type: "distance", Speed: 12, Glide: 5, Turn: 0, Fade: 3},
		{ID: "model-judge", ManufacturerID: "mfr-dynamic-discs", Name: "Judge", Type: "putter", Speed: 2, Glide: 4, Turn: 0, Fade: 1},
		{ID: "model-trespass", ManufacturerID: "mfr-dynamic-discs", Name: "Trespass", Type: "distance", Speed: 12, Glide: 5, Turn: -1, Fade: 3},
		{ID: "model-river", ManufacturerID: "mfr-latitude-64", Name: "River", Type: "fairway", Speed: 7, Glide: 7, Turn: -1, Fade: 1},
		{ID: "model-hex", ManufacturerID: "mfr-mvp", Name: "Hex", Type: "midrange", Speed: 5, Glide: 5, Turn: -1, Fade: 1},
		{ID: "model-fd", ManufacturerID: "mfr-discmania", Name: "FD", Type: "fairway", Speed: 7, Glide: 6, Turn: -1, Fade: 1},
	}

	for _, manufacturer := range manufacturers {
		err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&manufacturer).Error
		if err != nil {
			return err
		}
	}
	for _, model := range models {
		err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&model).Error
		if err != nil {
			return err
		}
	}

	if logger != nil {
		logger.Debug("catalog seeded",
			zap.Int("manufacturers", len(manufacturers)),
			zap.Int("models", len(models)))
	}
	return nil
}
