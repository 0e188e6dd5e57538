package database

import (
	"github.com/Clean-PRO/backend/models"
	"github.com/Clean-PRO/backend/utils"
	"gorm.io/gorm"
)

// indexStatements are applied after AutoMigrate. Every statement must be
// idempotent.
var indexStatements = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_ratings_user_order ON ratings (user_id, order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_cleaner_date ON orders (cleaner_id, cleaning_date)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_status_created ON payments (status, created_at)`,
}

// Migrate creates or updates all tables and their secondary indexes.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return err
	}
	utils.InfoLogger.Println("AutoMigrate completed.")

	// MySQL has no IF NOT EXISTS for indexes.
	if db.Dialector.Name() == "mysql" {
		return nil
	}

	for _, stmt := range indexStatements {
		if err := db.Exec(stmt).Error; err != nil {
			utils.ErrorLogger.Printf("Error executing index statement: %v\nStatement: %s", err, stmt)
			continue
		}
	}
	utils.InfoLogger.Printf("Verified %d secondary indexes", len(indexStatements))
	return nil
}
