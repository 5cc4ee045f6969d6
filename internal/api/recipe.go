package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/platefeed/backend/internal/middleware"
	"github.com/platefeed/backend/internal/models"
	"github.com/platefeed/backend/internal/service"
)

type RecipeHandler struct {
	recipes   *service.RecipeService
	bookmarks *service.BookmarkService
	shopping  *service.ShoppingListService
	images    *service.ImageService
}

func NewRecipeHandler(
	recipes *service.RecipeService,
	bookmarks *service.BookmarkService,
	shopping *service.ShoppingListService,
	images *service.ImageService,
) *RecipeHandler {
	return &RecipeHandler{
		recipes:   recipes,
		bookmarks: bookmarks,
		shopping:  shopping,
		images:    images,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup, validator middleware.TokenValidator) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("", middleware.AuthOptional(validator), h.ListRecipes)
		recipes.GET("/download_shopping_cart", middleware.AuthRequired(validator), h.DownloadShoppingCart)
		recipes.GET("/:id", middleware.AuthOptional(validator), h.GetRecipe)
		recipes.POST("", middleware.AuthRequired(validator), h.CreateRecipe)
		recipes.PATCH("/:id", middleware.AuthRequired(validator), h.UpdateRecipe)
		recipes.DELETE("/:id", middleware.AuthRequired(validator), h.DeleteRecipe)
		recipes.POST("/:id/favorite", middleware.AuthRequired(validator), h.AddFavorite)
		recipes.DELETE("/:id/favorite", middleware.AuthRequired(validator), h.RemoveFavorite)
		recipes.POST("/:id/shopping_cart", middleware.AuthRequired(validator), h.AddToCart)
		recipes.DELETE("/:id/shopping_cart", middleware.AuthRequired(validator), h.RemoveFromCart)
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	viewer := viewerID(c)

	filter := service.RecipeFilter{
		TagSlugs: c.QueryArray("tags"),
	}
	if author := c.Query("author"); author != "" {
		authorID, err := uuid.Parse(author)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid author id"})
			return
		}
		filter.AuthorID = &authorID
	}
	if viewer != nil {
		if c.Query("is_favorited") == "1" {
			filter.FavoritedBy = viewer
		}
		if c.Query("is_in_shopping_cart") == "1" {
			filter.InCartOf = viewer
		}
	}

	views, err := h.recipes.List(c.Request.Context(), filter, viewer)
	if err != nil {
		respondError(c, err)
		return
	}

	page, limit := pageParams(c)
	c.JSON(http.StatusOK, gin.H{
		"count":   len(views),
		"results": paginate(views, page, limit),
	})
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	view, err := h.recipes.Get(c.Request.Context(), recipeID, viewerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req WriteRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	viewer := viewerID(c)
	if viewer == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	input, err := h.recipeInput(c, req)
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := h.recipes.Create(c.Request.Context(), *viewer, *input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	var req WriteRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := actingUser(c)
	if actor == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	input, err := h.recipeInput(c, req)
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := h.recipes.Update(c.Request.Context(), actor, recipeID, *input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	actor := actingUser(c)
	if actor == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	if err := h.recipes.Delete(c.Request.Context(), actor, recipeID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	viewer := viewerID(c)
	if viewer == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	items, err := h.shopping.Build(c.Request.Context(), *viewer)
	if err != nil {
		respondError(c, err)
		return
	}

	body := h.shopping.Render(items)
	c.Header("Content-Disposition", "attachment; filename=shopping_list.txt")
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(body))
}

func (h *RecipeHandler) AddFavorite(c *gin.Context) {
	h.addBookmark(c, service.KindFavorite)
}

func (h *RecipeHandler) RemoveFavorite(c *gin.Context) {
	h.removeBookmark(c, service.KindFavorite)
}

func (h *RecipeHandler) AddToCart(c *gin.Context) {
	h.addBookmark(c, service.KindCart)
}

func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	h.removeBookmark(c, service.KindCart)
}

func (h *RecipeHandler) addBookmark(c *gin.Context, kind service.BookmarkKind) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}
	viewer := viewerID(c)
	if viewer == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	short, err := h.bookmarks.Add(c.Request.Context(), kind, *viewer, recipeID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, short)
}

func (h *RecipeHandler) removeBookmark(c *gin.Context, kind service.BookmarkKind) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}
	viewer := viewerID(c)
	if viewer == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	if err := h.bookmarks.Remove(c.Request.Context(), kind, *viewer, recipeID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// recipeInput converts the request body to a service input, uploading the
// image payload when one was submitted and an image service is configured.
func (h *RecipeHandler) recipeInput(c *gin.Context, req WriteRecipeRequest) (*service.RecipeInput, error) {
	imageURL := req.Image
	if h.images != nil && strings.HasPrefix(req.Image, "data:") {
		uploaded, err := h.images.UploadRecipeImage(c.Request.Context(), req.Image)
		if err != nil {
			return nil, err
		}
		imageURL = uploaded
	}

	lines := make([]service.IngredientLineInput, len(req.Ingredients))
	for i, l := range req.Ingredients {
		lines[i] = service.IngredientLineInput{IngredientID: l.ID, Amount: l.Amount}
	}

	return &service.RecipeInput{
		Name:        req.Name,
		ImageURL:    imageURL,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		TagIDs:      req.Tags,
		Ingredients: lines,
	}, nil
}

// actingUser builds the principal the recipe service authorizes against.
func actingUser(c *gin.Context) *models.User {
	viewer := viewerID(c)
	if viewer == nil {
		return nil
	}
	return &models.User{ID: *viewer, IsAdmin: isAdmin(c)}
}
