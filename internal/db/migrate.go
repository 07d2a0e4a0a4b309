package db

import (
	"aviatorpro/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.OutcomeRow{},
		&models.Signal{},
		&models.SystemSetting{},
	)
}
