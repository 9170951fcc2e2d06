package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/aula-go-api/internal/models"
)

// Migrate creates or updates the school tables. Courses go first so the
// student and diary foreign keys resolve.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Course{},
		&models.Student{},
		&models.DiaryEntry{},
		&models.Observation{},
		&models.AgendaEvent{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
