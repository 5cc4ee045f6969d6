package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platefeed/backend/internal/logger"
	"github.com/platefeed/backend/internal/models"
)

// RecipeService persists recipes together with their tag set and ingredient
// lines as one unit. Create and Update run in a single transaction; on any
// validation failure nothing is written.
type RecipeService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecipeService(db *gorm.DB, log *logger.Logger) *RecipeService {
	return &RecipeService{db: db, log: log}
}

// RecipeInput carries the writable fields of a recipe. Tags and Ingredients
// are complete replacements, never partial patches.
type RecipeInput struct {
	Name        string
	ImageURL    string
	Text        string
	CookingTime int
	TagIDs      []uuid.UUID
	Ingredients []IngredientLineInput
}

// RecipeFilter narrows List results. Nil pointer fields are ignored.
type RecipeFilter struct {
	TagSlugs    []string
	AuthorID    *uuid.UUID
	FavoritedBy *uuid.UUID
	InCartOf    *uuid.UUID
}

func (s *RecipeService) Create(ctx context.Context, authorID uuid.UUID, input RecipeInput) (*RecipeView, error) {
	if input.CookingTime < 1 {
		return nil, fieldError("cooking_time", ErrInvalidAmount)
	}

	var recipeID uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := resolveTags(tx, input.TagIDs)
		if err != nil {
			return err
		}
		lines, err := resolveLines(tx, input.Ingredients)
		if err != nil {
			return err
		}

		recipe := &models.Recipe{
			AuthorID:    authorID,
			Name:        input.Name,
			ImageURL:    input.ImageURL,
			Text:        input.Text,
			CookingTime: input.CookingTime,
		}
		if err := tx.Create(recipe).Error; err != nil {
			return err
		}
		if err := tx.Model(recipe).Association("Tags").Replace(&tags); err != nil {
			return err
		}
		if err := insertLines(tx, recipe.ID, lines); err != nil {
			return err
		}
		recipeID = recipe.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("recipe created", "recipe_id", recipeID, "author_id", authorID)
	return s.Get(ctx, recipeID, &authorID)
}

// Update replaces the recipe's scalar fields, tag set and ingredient lines.
// The caller's identity is checked here: only the author or an admin may
// update, and both collections must be supplied in full.
func (s *RecipeService) Update(ctx context.Context, actor *models.User, recipeID uuid.UUID, input RecipeInput) (*RecipeView, error) {
	if input.CookingTime < 1 {
		return nil, fieldError("cooking_time", ErrInvalidAmount)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.First(&recipe, "id = ?", recipeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if recipe.AuthorID != actor.ID && !actor.IsAdmin {
			return ErrForbidden
		}

		tags, err := resolveTags(tx, input.TagIDs)
		if err != nil {
			return err
		}
		lines, err := resolveLines(tx, input.Ingredients)
		if err != nil {
			return err
		}

		// Author is immutable; scalar fields are replaced.
		updates := map[string]interface{}{
			"name":         input.Name,
			"text":         input.Text,
			"cooking_time": input.CookingTime,
		}
		if input.ImageURL != "" {
			updates["image_url"] = input.ImageURL
		}
		if err := tx.Model(&recipe).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Model(&recipe).Association("Tags").Replace(&tags); err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		return insertLines(tx, recipe.ID, lines)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("recipe updated", "recipe_id", recipeID, "actor_id", actor.ID)
	return s.Get(ctx, recipeID, &actor.ID)
}

// Delete removes the recipe and cascades its ingredient lines, favorites and
// cart entries in the same transaction.
func (s *RecipeService) Delete(ctx context.Context, actor *models.User, recipeID uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.First(&recipe, "id = ?", recipeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if recipe.AuthorID != actor.ID && !actor.IsAdmin {
			return ErrForbidden
		}

		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.CartEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&recipe).Error
	})
	if err != nil {
		return err
	}

	s.log.Info("recipe deleted", "recipe_id", recipeID, "actor_id", actor.ID)
	return nil
}

// Get returns the read projection of a recipe for the given viewer. A nil
// viewer sees is_favorited and is_in_shopping_cart as false without any
// lookup.
func (s *RecipeService) Get(ctx context.Context, recipeID uuid.UUID, viewerID *uuid.UUID) (*RecipeView, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Preload("Author").
		First(&recipe, "id = ?", recipeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	views, err := s.buildViews(ctx, []models.Recipe{recipe}, viewerID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// List returns filtered recipes, newest first. Pagination is the caller's
// concern.
func (s *RecipeService) List(ctx context.Context, filter RecipeFilter, viewerID *uuid.UUID) ([]RecipeView, error) {
	query := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Preload("Author").
		Order("recipes.created_at DESC")

	if len(filter.TagSlugs) > 0 {
		query = query.Distinct("recipes.*").
			Joins("JOIN recipe_tags ON recipe_tags.recipe_id = recipes.id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
	}
	if filter.AuthorID != nil {
		query = query.Where("recipes.author_id = ?", *filter.AuthorID)
	}
	if filter.FavoritedBy != nil {
		query = query.Where("recipes.id IN (?)",
			s.db.Table("favorites").Select("recipe_id").Where("user_id = ?", *filter.FavoritedBy))
	}
	if filter.InCartOf != nil {
		query = query.Where("recipes.id IN (?)",
			s.db.Table("cart_entries").Select("recipe_id").Where("user_id = ?", *filter.InCartOf))
	}

	var recipes []models.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		return nil, err
	}
	return s.buildViews(ctx, recipes, viewerID)
}

func (s *RecipeService) buildViews(ctx context.Context, recipes []models.Recipe, viewerID *uuid.UUID) ([]RecipeView, error) {
	views := make([]RecipeView, 0, len(recipes))
	if len(recipes) == 0 {
		return views, nil
	}

	favorited := make(map[uuid.UUID]struct{})
	inCart := make(map[uuid.UUID]struct{})
	subscribed := make(map[uuid.UUID]struct{})
	if viewerID != nil {
		recipeIDs := make([]uuid.UUID, len(recipes))
		authorIDs := make([]uuid.UUID, 0, len(recipes))
		seenAuthors := make(map[uuid.UUID]struct{})
		for i, r := range recipes {
			recipeIDs[i] = r.ID
			if _, ok := seenAuthors[r.AuthorID]; !ok {
				seenAuthors[r.AuthorID] = struct{}{}
				authorIDs = append(authorIDs, r.AuthorID)
			}
		}

		var favs []models.Favorite
		if err := s.db.WithContext(ctx).
			Where("user_id = ? AND recipe_id IN ?", *viewerID, recipeIDs).
			Find(&favs).Error; err != nil {
			return nil, err
		}
		for _, f := range favs {
			favorited[f.RecipeID] = struct{}{}
		}

		var entries []models.CartEntry
		if err := s.db.WithContext(ctx).
			Where("user_id = ? AND recipe_id IN ?", *viewerID, recipeIDs).
			Find(&entries).Error; err != nil {
			return nil, err
		}
		for _, e := range entries {
			inCart[e.RecipeID] = struct{}{}
		}

		var subs []models.Subscription
		if err := s.db.WithContext(ctx).
			Where("subscriber_id = ? AND author_id IN ?", *viewerID, authorIDs).
			Find(&subs).Error; err != nil {
			return nil, err
		}
		for _, sub := range subs {
			subscribed[sub.AuthorID] = struct{}{}
		}
	}

	for _, r := range recipes {
		lines := make([]IngredientLineView, 0, len(r.Ingredients))
		for _, l := range r.Ingredients {
			lines = append(lines, IngredientLineView{
				ID:              l.IngredientID,
				Name:            l.Ingredient.Name,
				MeasurementUnit: l.Ingredient.MeasurementUnit,
				Amount:          l.Amount,
			})
		}
		tags := r.Tags
		if tags == nil {
			tags = []models.Tag{}
		}
		_, fav := favorited[r.ID]
		_, cart := inCart[r.ID]
		_, sub := subscribed[r.AuthorID]
		views = append(views, RecipeView{
			ID: r.ID,
			Author: AuthorView{
				ID:           r.Author.ID,
				Email:        r.Author.Email,
				Username:     r.Author.Username,
				FirstName:    r.Author.FirstName,
				LastName:     r.Author.LastName,
				IsSubscribed: sub,
			},
			Name:        r.Name,
			ImageURL:    r.ImageURL,
			Text:        r.Text,
			CookingTime: r.CookingTime,
			Tags:        tags,
			Ingredients: lines,
			IsFavorited: fav,
			IsInCart:    cart,
			CreatedAt:   r.CreatedAt,
		})
	}
	return views, nil
}

// resolveTags validates the submitted tag set and loads the rows.
func resolveTags(tx *gorm.DB, tagIDs []uuid.UUID) ([]models.Tag, error) {
	if err := ValidateTags(tagIDs); err != nil {
		return nil, err
	}
	var tags []models.Tag
	if err := tx.Where("id IN ?", tagIDs).Find(&tags).Error; err != nil {
		return nil, err
	}
	if len(tags) != len(tagIDs) {
		return nil, fieldError("tags", ErrUnknownTag)
	}
	return tags, nil
}

// resolveLines fetches the referenced ingredients and validates the line set
// against them.
func resolveLines(tx *gorm.DB, lines []IngredientLineInput) ([]IngredientLineInput, error) {
	if len(lines) == 0 {
		return nil, fieldError("ingredients", ErrEmptyCollection)
	}
	ids := make([]uuid.UUID, len(lines))
	for i, l := range lines {
		ids[i] = l.IngredientID
	}
	var ingredients []models.Ingredient
	if err := tx.Where("id IN ?", ids).Find(&ingredients).Error; err != nil {
		return nil, err
	}
	catalog := make(map[uuid.UUID]models.Ingredient, len(ingredients))
	for _, ing := range ingredients {
		catalog[ing.ID] = ing
	}
	return ValidateIngredientLines(lines, catalog)
}

func insertLines(tx *gorm.DB, recipeID uuid.UUID, lines []IngredientLineInput) error {
	rows := make([]models.RecipeIngredient, len(lines))
	for i, l := range lines {
		rows[i] = models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: l.IngredientID,
			Amount:       l.Amount,
		}
	}
	return tx.Create(&rows).Error
}
