// Package persistence stores resources and collections with GORM.
package persistence

import (
	"fmt"

	"github.com/techvault/skoop/internal/database"
)

// AutoMigrate creates or updates the tables for every model.
func AutoMigrate(db database.Database) error {
	if err := db.GORM().AutoMigrate(&TagModel{}, &ResourceModel{}, &CollectionModel{}, &CollectionResourceModel{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
