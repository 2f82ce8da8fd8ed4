package repository

import (
	"fmt"

	"gorm.io/gorm"

	"tasktracker/internal/models"
)

// CreateTableIfNotExists creates or updates the users and tasks tables.
func CreateTableIfNotExists(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Task{}); err != nil {
		return fmt.Errorf("migrate tables: %w", err)
	}
	return nil
}

// DeleteAllTable drops both tables, tasks first for the foreign key.
func DeleteAllTable(db *gorm.DB) error {
	if err := db.Migrator().DropTable(&models.Task{}, &models.User{}); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	return nil
}
