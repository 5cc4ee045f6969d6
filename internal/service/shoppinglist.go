package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platefeed/backend/internal/logger"
)

// ShoppingListService computes the union of ingredient quantities across all
// recipes in a user's cart. Pure read, no caching; the result reflects cart
// and recipe state at call time.
type ShoppingListService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewShoppingListService(db *gorm.DB, log *logger.Logger) *ShoppingListService {
	return &ShoppingListService{db: db, log: log}
}

// Build groups ingredient lines of the user's cart recipes by
// (name, measurement unit), sums the amounts and orders by name.
func (s *ShoppingListService) Build(ctx context.Context, userID uuid.UUID) ([]ShoppingListItem, error) {
	var items []ShoppingListItem
	err := s.db.WithContext(ctx).
		Table("recipe_ingredients").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS total_amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("recipe_ingredients.recipe_id IN (?)",
			s.db.Table("cart_entries").Select("recipe_id").Where("user_id = ?", userID)).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []ShoppingListItem{}
	}
	return items, nil
}

// Render formats a shopping list as the plain-text download body.
func (s *ShoppingListService) Render(items []ShoppingListItem) string {
	var b strings.Builder
	b.WriteString("Shopping list:\n\n")
	for _, item := range items {
		fmt.Fprintf(&b, "%s - %d %s\n", item.Name, item.TotalAmount, item.MeasurementUnit)
	}
	return b.String()
}
