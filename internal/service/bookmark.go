package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platefeed/backend/internal/logger"
	"github.com/platefeed/backend/internal/models"
)

// BookmarkKind selects which bucket a bookmark operation targets. Favorites
// and the shopping cart share one code path; the kind tag is the only
// difference.
type BookmarkKind string

const (
	KindFavorite BookmarkKind = "favorite"
	KindCart     BookmarkKind = "shopping_cart"
)

type BookmarkService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBookmarkService(db *gorm.DB, log *logger.Logger) *BookmarkService {
	return &BookmarkService{db: db, log: log}
}

// Add bookmarks a recipe for the user and returns its short projection.
// A missing recipe is ErrNotFound; a repeated add is ErrDuplicateBookmark.
func (s *BookmarkService) Add(ctx context.Context, kind BookmarkKind, userID, recipeID uuid.UUID) (*RecipeShort, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(kind.model()).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if err := ValidateUniqueBookmark(kind, count > 0); err != nil {
		return nil, err
	}

	var row interface{}
	if kind == KindCart {
		row = &models.CartEntry{UserID: userID, RecipeID: recipeID}
	} else {
		row = &models.Favorite{UserID: userID, RecipeID: recipeID}
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}

	s.log.Info("bookmark added", "kind", string(kind), "user_id", userID, "recipe_id", recipeID)
	return &RecipeShort{
		ID:          recipe.ID,
		Name:        recipe.Name,
		ImageURL:    recipe.ImageURL,
		CookingTime: recipe.CookingTime,
	}, nil
}

// Remove deletes the bookmark row. ErrNotFound if no such row exists.
func (s *BookmarkService) Remove(ctx context.Context, kind BookmarkKind, userID, recipeID uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(kind.model())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	s.log.Info("bookmark removed", "kind", string(kind), "user_id", userID, "recipe_id", recipeID)
	return nil
}

func (k BookmarkKind) model() interface{} {
	if k == KindCart {
		return &models.CartEntry{}
	}
	return &models.Favorite{}
}
