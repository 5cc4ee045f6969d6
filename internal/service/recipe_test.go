package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platefeed/backend/internal/logger"
	"github.com/platefeed/backend/internal/models"
	"github.com/platefeed/backend/internal/service"
	"github.com/platefeed/backend/internal/testhelpers"
)

func TestRecipeService_Create(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewRecipeService(db, logger.NewNop())
	ctx := context.Background()

	author := testhelpers.CreateUser(t, db)
	breakfast := testhelpers.CreateTag(t, db, "breakfast")
	dinner := testhelpers.CreateTag(t, db, "dinner")
	flour := testhelpers.CreateIngredient(t, db, "flour", "g")
	milk := testhelpers.CreateIngredient(t, db, "milk", "ml")

	input := service.RecipeInput{
		Name:        "Pancakes",
		ImageURL:    "https://example.com/pancakes.png",
		Text:        "Whisk and fry.",
		CookingTime: 20,
		TagIDs:      []uuid.UUID{breakfast.ID, dinner.ID},
		Ingredients: []service.IngredientLineInput{
			{IngredientID: flour.ID, Amount: 200},
			{IngredientID: milk.ID, Amount: 300},
		},
	}

	view, err := svc.Create(ctx, author.ID, input)
	require.NoError(t, err)

	assert.Equal(t, "Pancakes", view.Name)
	assert.Equal(t, 20, view.CookingTime)
	assert.Equal(t, author.ID, view.Author.ID)
	assert.False(t, view.Author.IsSubscribed)

	tagIDs := make([]uuid.UUID, 0, len(view.Tags))
	for _, tag := range view.Tags {
		tagIDs = append(tagIDs, tag.ID)
	}
	assert.ElementsMatch(t, []uuid.UUID{breakfast.ID, dinner.ID}, tagIDs)

	amounts := make(map[uuid.UUID]int, len(view.Ingredients))
	for _, line := range view.Ingredients {
		amounts[line.ID] = line.Amount
	}
	assert.Equal(t, map[uuid.UUID]int{flour.ID: 200, milk.ID: 300}, amounts)

	// Author's own fresh recipe is not yet favorited or in the cart.
	assert.False(t, view.IsFavorited)
	assert.False(t, view.IsInCart)
}

func TestRecipeService_Create_Validation(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewRecipeService(db, logger.NewNop())
	ctx := context.Background()

	author := testhelpers.CreateUser(t, db)
	tag := testhelpers.CreateTag(t, db, "lunch")
	flour := testhelpers.CreateIngredient(t, db, "flour", "g")

	valid := service.RecipeInput{
		Name:        "Bread",
		Text:        "Bake it.",
		CookingTime: 60,
		TagIDs:      []uuid.UUID{tag.ID},
		Ingredients: []service.IngredientLineInput{{IngredientID: flour.ID, Amount: 500}},
	}

	tests := []struct {
		name    string
		mutate  func(in *service.RecipeInput)
		wantErr error
	}{
		{
			name:    "cooking time below one",
			mutate:  func(in *service.RecipeInput) { in.CookingTime = 0 },
			wantErr: service.ErrInvalidAmount,
		},
		{
			name:    "no tags",
			mutate:  func(in *service.RecipeInput) { in.TagIDs = nil },
			wantErr: service.ErrEmptyCollection,
		},
		{
			name:    "duplicate tags",
			mutate:  func(in *service.RecipeInput) { in.TagIDs = []uuid.UUID{tag.ID, tag.ID} },
			wantErr: service.ErrDuplicateItem,
		},
		{
			name:    "unknown tag",
			mutate:  func(in *service.RecipeInput) { in.TagIDs = []uuid.UUID{uuid.New()} },
			wantErr: service.ErrUnknownTag,
		},
		{
			name:    "no ingredients",
			mutate:  func(in *service.RecipeInput) { in.Ingredients = nil },
			wantErr: service.ErrEmptyCollection,
		},
		{
			name: "unknown ingredient",
			mutate: func(in *service.RecipeInput) {
				in.Ingredients = []service.IngredientLineInput{{IngredientID: uuid.New(), Amount: 10}}
			},
			wantErr: service.ErrUnknownIngredient,
		},
		{
			name: "zero amount",
			mutate: func(in *service.RecipeInput) {
				in.Ingredients = []service.IngredientLineInput{{IngredientID: flour.ID, Amount: 0}}
			},
			wantErr: service.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := valid
			tt.mutate(&input)

			_, err := svc.Create(ctx, author.ID, input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// Nothing was written by the failed attempts.
	var count int64
	require.NoError(t, db.Model(&models.Recipe{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRecipeService_Update(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewRecipeService(db, logger.NewNop())
	ctx := context.Background()

	author := testhelpers.CreateUser(t, db)
	recipe := testhelpers.CreateRecipe(t, db, author)

	newTag := testhelpers.CreateTag(t, db, "dessert")
	sugar := testhelpers.CreateIngredient(t, db, "sugar", "g")
	butter := testhelpers.CreateIngredient(t, db, "butter", "g")

	view, err := svc.Update(ctx, author, recipe.ID, service.RecipeInput{
		Name:        "Shortbread",
		Text:        "Cream, mix, bake.",
		CookingTime: 45,
		TagIDs:      []uuid.UUID{newTag.ID},
		Ingredients: []service.IngredientLineInput{
			{IngredientID: sugar.ID, Amount: 100},
			{IngredientID: butter.ID, Amount: 250},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Shortbread", view.Name)
	assert.Equal(t, 45, view.CookingTime)

	// Both collections were replaced wholesale.
	require.Len(t, view.Tags, 1)
	assert.Equal(t, newTag.ID, view.Tags[0].ID)
	require.Len(t, view.Ingredients, 2)

	var lineCount int64
	require.NoError(t, db.Model(&models.RecipeIngredient{}).
		Where("recipe_id = ?", recipe.ID).Count(&lineCount).Error)
	assert.EqualValues(t, 2, lineCount)
}

func TestRecipeService_Update_Authorization(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewRecipeService(db, logger.NewNop())
	ctx := context.Background()

	author := testhelpers.CreateUser(t, db)
	stranger := testhelpers.CreateUser(t, db)
	admin := testhelpers.CreateUser(t, db)
	admin.IsAdmin = true
	require.NoError(t, db.Model(admin).Update("is_admin", true).Error)

	recipe := testhelpers.CreateRecipe(t, db, author)
	tag := testhelpers.CreateTag(t, db, "snack")
	salt := testhelpers.CreateIngredient(t, db, "salt", "g")

	input := service.RecipeInput{
		Name:        "Renamed",
		Text:        "Changed.",
		CookingTime: 5,
		TagIDs:      []uuid.UUID{tag.ID},
		Ingredients: []service.IngredientLineInput{{IngredientID: salt.ID, Amount: 1}},
	}

	_, err := svc.Update(ctx, stranger, recipe.ID, input)
	assert.ErrorIs(t, err, service.ErrForbidden)

	// The forbidden attempt changed nothing.
	var unchanged models.Recipe
	require.NoError(t, db.First(&unchanged, "id = ?", recipe.ID).Error)
	assert.Equal(t, recipe.Name, unchanged.Name)

	// Admins may edit any recipe; authorship does not change.
	view, err := svc.Update(ctx, admin, recipe.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", view.Name)
	assert.Equal(t, author.ID, view.Author.ID)

	_, err = svc.Update(ctx, author, uuid.New(), input)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestRecipeService_Delete(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewRecipeService(db, logger.NewNop())
	ctx := context.Background()

	author := testhelpers.CreateUser(t, db)
	fan := testhelpers.CreateUser(t, db)
	recipe := testhelpers.CreateRecipe(t, db, author)

	require.NoError(t, db.Create(&models.Favorite{UserID: fan.ID, RecipeID: recipe.ID}).Error)
	require.NoError(t, db.Create(&models.CartEntry{UserID: fan.ID, RecipeID: recipe.ID}).Error)

	_, err := svc.Get(ctx, recipe.ID, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, fan, recipe.ID), service.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, author, recipe.ID))

	_, err = svc.Get(ctx, recipe.ID, nil)
	assert.ErrorIs(t, err, service.ErrNotFound)

	// Dependent rows went with it.
	for _, model := range []interface{}{
		&models.RecipeIngredient{}, &models.Favorite{}, &models.CartEntry{},
	} {
		var count int64
		require.NoError(t, db.Model(model).Where("recipe_id = ?", recipe.ID).Count(&count).Error)
		assert.Zero(t, count)
	}

	assert.ErrorIs(t, svc.Delete(ctx, author, recipe.ID), service.ErrNotFound)
}

func TestRecipeService_ViewerFlags(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewRecipeService(db, logger.NewNop())
	ctx := context.Background()

	author := testhelpers.CreateUser(t, db)
	viewer := testhelpers.CreateUser(t, db)
	recipe := testhelpers.CreateRecipe(t, db, author)

	require.NoError(t, db.Create(&models.Favorite{UserID: viewer.ID, RecipeID: recipe.ID}).Error)
	require.NoError(t, db.Create(&models.Subscription{SubscriberID: viewer.ID, AuthorID: author.ID}).Error)

	view, err := svc.Get(ctx, recipe.ID, &viewer.ID)
	require.NoError(t, err)
	assert.True(t, view.IsFavorited)
	assert.False(t, view.IsInCart)
	assert.True(t, view.Author.IsSubscribed)

	// Anonymous viewers always see the flags as false.
	anon, err := svc.Get(ctx, recipe.ID, nil)
	require.NoError(t, err)
	assert.False(t, anon.IsFavorited)
	assert.False(t, anon.IsInCart)
	assert.False(t, anon.Author.IsSubscribed)
}

func TestRecipeService_List(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewRecipeService(db, logger.NewNop())
	ctx := context.Background()

	alice := testhelpers.CreateUser(t, db)
	bob := testhelpers.CreateUser(t, db)
	viewer := testhelpers.CreateUser(t, db)

	aliceRecipe := testhelpers.CreateRecipe(t, db, alice)
	bobRecipe := testhelpers.CreateRecipe(t, db, bob)

	require.NoError(t, db.Create(&models.Favorite{UserID: viewer.ID, RecipeID: aliceRecipe.ID}).Error)
	require.NoError(t, db.Create(&models.CartEntry{UserID: viewer.ID, RecipeID: bobRecipe.ID}).Error)

	all, err := svc.List(ctx, service.RecipeFilter{}, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byAuthor, err := svc.List(ctx, service.RecipeFilter{AuthorID: &alice.ID}, nil)
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)
	assert.Equal(t, aliceRecipe.ID, byAuthor[0].ID)

	favorites, err := svc.List(ctx, service.RecipeFilter{FavoritedBy: &viewer.ID}, &viewer.ID)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, aliceRecipe.ID, favorites[0].ID)
	assert.True(t, favorites[0].IsFavorited)

	cart, err := svc.List(ctx, service.RecipeFilter{InCartOf: &viewer.ID}, &viewer.ID)
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Equal(t, bobRecipe.ID, cart[0].ID)
	assert.True(t, cart[0].IsInCart)
}

func TestRecipeService_List_TagFilter(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewRecipeService(db, logger.NewNop())
	ctx := context.Background()

	author := testhelpers.CreateUser(t, db)
	tagged := testhelpers.CreateRecipe(t, db, author)
	testhelpers.CreateRecipe(t, db, author)

	var tags []models.Tag
	require.NoError(t, db.Model(tagged).Association("Tags").Find(&tags))
	require.Len(t, tags, 1)

	views, err := svc.List(ctx, service.RecipeFilter{TagSlugs: []string{tags[0].Slug}}, nil)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, tagged.ID, views[0].ID)

	none, err := svc.List(ctx, service.RecipeFilter{TagSlugs: []string{"no-such-slug"}}, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}
