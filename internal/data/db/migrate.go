package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/dubmyyt/internal/domain"
)

// AutoMigrateAll creates the tables this service reads and writes. In a hosted
// Supabase project they already exist and migration is switched off.
func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&types.VideoRecord{},
		&types.ActivityLog{},
		&types.UserAnalytics{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	return AutoMigrateAll(s.db)
}
