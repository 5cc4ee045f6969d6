package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/platefeed/backend/internal/api"
	"github.com/platefeed/backend/internal/logger"
	"github.com/platefeed/backend/internal/models"
	"github.com/platefeed/backend/internal/router"
	"github.com/platefeed/backend/internal/service"
	"github.com/platefeed/backend/internal/testhelpers"
)

type testEnv struct {
	engine *gin.Engine
	db     *gorm.DB
	auth   *service.AuthService
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testhelpers.SetupTestDatabase(t)
	log := logger.NewNop()

	authService := service.NewAuthService(db, nil, "test-secret", log)
	recipeService := service.NewRecipeService(db, log)
	bookmarkService := service.NewBookmarkService(db, log)
	shoppingService := service.NewShoppingListService(db, log)
	subscriptionService := service.NewSubscriptionService(db, log)
	tagService := service.NewTagService(db)
	ingredientService := service.NewIngredientService(db)

	engine := router.SetupRouter(
		api.NewAuthHandler(authService),
		api.NewUserHandler(db, subscriptionService),
		api.NewCatalogHandler(tagService, ingredientService),
		api.NewRecipeHandler(recipeService, bookmarkService, shoppingService, nil),
		authService,
	)
	return &testEnv{engine: engine, db: db, auth: authService}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

// registerAndLogin creates an account through the API and returns its token.
func (e *testEnv) registerAndLogin(t *testing.T, email, username string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":      email,
		"username":   username,
		"first_name": "Test",
		"last_name":  "User",
		"password":   "super-secret-password",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    email,
		"password": "super-secret-password",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestAuthEndpoints(t *testing.T) {
	env := setupEnv(t)

	token := env.registerAndLogin(t, "chef@example.com", "chef")

	rec := env.do(t, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me service.AuthorView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "chef@example.com", me.Email)

	// Missing token on a protected route.
	rec = env.do(t, http.MethodGet, "/api/v1/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong password.
	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "chef@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Short password fails binding.
	rec = env.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":      "short@example.com",
		"username":   "short",
		"first_name": "Test",
		"last_name":  "User",
		"password":   "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecipeEndpoints(t *testing.T) {
	env := setupEnv(t)

	token := env.registerAndLogin(t, "author@example.com", "author")

	tag := testhelpers.CreateTag(t, env.db, "breakfast")
	flour := testhelpers.CreateIngredient(t, env.db, "flour", "g")
	milk := testhelpers.CreateIngredient(t, env.db, "milk", "ml")

	body := gin.H{
		"name":         "Pancakes",
		"image":        "https://example.com/pancakes.png",
		"text":         "Whisk and fry.",
		"cooking_time": 20,
		"tags":         []uuid.UUID{tag.ID},
		"ingredients": []gin.H{
			{"id": flour.ID, "amount": 200},
			{"id": milk.ID, "amount": 300},
		},
	}

	// Anonymous creation is rejected.
	rec := env.do(t, http.MethodPost, "/api/v1/recipes", "", body)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/recipes", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created service.RecipeView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Pancakes", created.Name)
	require.Len(t, created.Ingredients, 2)

	// Anonymous read works and shows the flags as false.
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/recipes/%s", created.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched service.RecipeView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.False(t, fetched.IsFavorited)
	assert.False(t, fetched.IsInCart)

	// List envelope carries total count and paged results.
	rec = env.do(t, http.MethodGet, "/api/v1/recipes", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listing struct {
		Count   int                  `json:"count"`
		Results []service.RecipeView `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	assert.Equal(t, 1, listing.Count)
	require.Len(t, listing.Results, 1)

	// Unknown recipe id.
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/recipes/%s", uuid.New()), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Validation failure surfaces the field.
	invalid := gin.H{
		"name":         "Broken",
		"text":         "No ingredients.",
		"cooking_time": 5,
		"tags":         []uuid.UUID{tag.ID},
		"ingredients":  []gin.H{},
	}
	rec = env.do(t, http.MethodPost, "/api/v1/recipes", token, invalid)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "ingredients")
}

func TestRecipeEndpoints_UpdateDelete(t *testing.T) {
	env := setupEnv(t)

	authorToken := env.registerAndLogin(t, "author@example.com", "author")
	strangerToken := env.registerAndLogin(t, "stranger@example.com", "stranger")

	var author models.User
	require.NoError(t, env.db.First(&author, "username = ?", "author").Error)
	recipe := testhelpers.CreateRecipe(t, env.db, &author)

	tag := testhelpers.CreateTag(t, env.db, "dinner")
	salt := testhelpers.CreateIngredient(t, env.db, "salt", "g")
	body := gin.H{
		"name":         "Renamed",
		"text":         "Changed.",
		"cooking_time": 15,
		"tags":         []uuid.UUID{tag.ID},
		"ingredients":  []gin.H{{"id": salt.ID, "amount": 5}},
	}

	path := fmt.Sprintf("/api/v1/recipes/%s", recipe.ID)

	rec := env.do(t, http.MethodPatch, path, strangerToken, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPatch, path, authorToken, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated service.RecipeView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Renamed", updated.Name)

	rec = env.do(t, http.MethodDelete, path, strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodDelete, path, authorToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, path, authorToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookmarkEndpoints(t *testing.T) {
	env := setupEnv(t)

	token := env.registerAndLogin(t, "fan@example.com", "fan")
	author := testhelpers.CreateUser(t, env.db)
	recipe := testhelpers.CreateRecipe(t, env.db, author)

	for _, action := range []string{"favorite", "shopping_cart"} {
		t.Run(action, func(t *testing.T) {
			path := fmt.Sprintf("/api/v1/recipes/%s/%s", recipe.ID, action)

			rec := env.do(t, http.MethodPost, path, token, nil)
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			var short service.RecipeShort
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &short))
			assert.Equal(t, recipe.ID, short.ID)

			rec = env.do(t, http.MethodPost, path, token, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			rec = env.do(t, http.MethodDelete, path, token, nil)
			assert.Equal(t, http.StatusNoContent, rec.Code)

			rec = env.do(t, http.MethodDelete, path, token, nil)
			assert.Equal(t, http.StatusNotFound, rec.Code)
		})
	}
}

func TestShoppingCartDownload(t *testing.T) {
	env := setupEnv(t)

	token := env.registerAndLogin(t, "shopper@example.com", "shopper")
	author := testhelpers.CreateUser(t, env.db)
	recipe := testhelpers.CreateRecipe(t, env.db, author)

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/recipes/%s/shopping_cart", recipe.ID), token, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/recipes/download_shopping_cart", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "shopping_list.txt")
	assert.Contains(t, rec.Body.String(), "Shopping list:")

	rec = env.do(t, http.MethodGet, "/api/v1/recipes/download_shopping_cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubscriptionEndpoints(t *testing.T) {
	env := setupEnv(t)

	token := env.registerAndLogin(t, "follower@example.com", "follower")
	author := testhelpers.CreateUser(t, env.db)
	testhelpers.CreateRecipe(t, env.db, author)

	path := fmt.Sprintf("/api/v1/users/%s/subscribe", author.ID)

	rec := env.do(t, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var view service.SubscriptionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.True(t, view.IsSubscribed)
	assert.EqualValues(t, 1, view.RecipesCount)

	rec = env.do(t, http.MethodPost, path, token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/users/subscriptions?recipes_limit=1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listing struct {
		Count   int                        `json:"count"`
		Results []service.SubscriptionView `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	assert.Equal(t, 1, listing.Count)
	require.Len(t, listing.Results, 1)
	assert.Len(t, listing.Results[0].Recipes, 1)

	rec = env.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCatalogEndpoints(t *testing.T) {
	env := setupEnv(t)

	testhelpers.CreateTag(t, env.db, "breakfast")
	testhelpers.CreateIngredient(t, env.db, "flour", "g")
	testhelpers.CreateIngredient(t, env.db, "sea salt", "g")

	rec := env.do(t, http.MethodGet, "/api/v1/tags", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var tags []models.Tag
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tags))
	assert.Len(t, tags, 1)

	rec = env.do(t, http.MethodGet, "/api/v1/ingredients?name=salt", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var ingredients []models.Ingredient
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ingredients))
	require.Len(t, ingredients, 1)
	assert.Equal(t, "sea salt", ingredients[0].Name)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/tags/%s", uuid.New()), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/tags/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
