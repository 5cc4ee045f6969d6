package database

import (
	"gorm.io/gorm"

	"github.com/platefeed/backend/internal/models"
)

// RunMigrations brings the schema up to date. Uniqueness constraints live in
// the model tags, so the storage layer enforces them regardless of what the
// application validates.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Subscription{},
		&models.Ingredient{},
		&models.Tag{},
		&models.Recipe{},
		&models.RecipeIngredient{},
		&models.Favorite{},
		&models.CartEntry{},
	)
}
