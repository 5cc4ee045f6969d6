package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/platefeed/backend/internal/models"
)

// Read projections. These are the only shapes handlers return to clients;
// write inputs are separate types chosen at the call site.

type IngredientLineView struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	MeasurementUnit string    `json:"measurement_unit"`
	Amount          int       `json:"amount"`
}

type AuthorView struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsSubscribed bool      `json:"is_subscribed"`
}

type RecipeView struct {
	ID          uuid.UUID            `json:"id"`
	Author      AuthorView           `json:"author"`
	Name        string               `json:"name"`
	ImageURL    string               `json:"image"`
	Text        string               `json:"text"`
	CookingTime int                  `json:"cooking_time"`
	Tags        []models.Tag         `json:"tags"`
	Ingredients []IngredientLineView `json:"ingredients"`
	IsFavorited bool                 `json:"is_favorited"`
	IsInCart    bool                 `json:"is_in_shopping_cart"`
	CreatedAt   time.Time            `json:"created_at"`
}

// RecipeShort is the compact projection returned by bookmark operations and
// embedded in subscription views.
type RecipeShort struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	ImageURL    string    `json:"image"`
	CookingTime int       `json:"cooking_time"`
}

type ShoppingListItem struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	TotalAmount     int    `json:"total_amount"`
}

type SubscriptionView struct {
	AuthorView
	Recipes      []RecipeShort `json:"recipes"`
	RecipesCount int64         `json:"recipes_count"`
}
