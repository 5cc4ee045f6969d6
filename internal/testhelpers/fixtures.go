package testhelpers

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/platefeed/backend/internal/models"
)

var fixtureSeq int

func nextSeq() int {
	fixtureSeq++
	return fixtureSeq
}

// CreateUser inserts a user with unique email/username.
func CreateUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	n := nextSeq()
	user := &models.User{
		Email:        fmt.Sprintf("user%d-%s@example.com", n, uuid.New().String()[:8]),
		Username:     fmt.Sprintf("user%d_%s", n, uuid.New().String()[:8]),
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "not-a-real-hash",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func CreateIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()
	ingredient := &models.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, db.Create(ingredient).Error)
	return ingredient
}

func CreateTag(t *testing.T, db *gorm.DB, name string) *models.Tag {
	t.Helper()
	n := nextSeq()
	tag := &models.Tag{
		Name:  name,
		Slug:  fmt.Sprintf("%s-%d", name, n),
		Color: fmt.Sprintf("#%06x", 0x100000+n),
	}
	require.NoError(t, db.Create(tag).Error)
	return tag
}

// CreateRecipe inserts a recipe with one tag and one ingredient line.
func CreateRecipe(t *testing.T, db *gorm.DB, author *models.User) *models.Recipe {
	t.Helper()
	n := nextSeq()
	tag := CreateTag(t, db, fmt.Sprintf("tag%d", n))
	ingredient := CreateIngredient(t, db, fmt.Sprintf("ingredient%d", n), "g")

	recipe := &models.Recipe{
		AuthorID:    author.ID,
		Name:        fmt.Sprintf("Recipe %d", n),
		Text:        "Mix and cook.",
		CookingTime: 10,
	}
	require.NoError(t, db.Create(recipe).Error)
	require.NoError(t, db.Model(recipe).Association("Tags").Replace(&[]models.Tag{*tag}))
	require.NoError(t, db.Create(&models.RecipeIngredient{
		RecipeID:     recipe.ID,
		IngredientID: ingredient.ID,
		Amount:       100,
	}).Error)
	return recipe
}
