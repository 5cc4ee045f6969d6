package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platefeed/backend/internal/middleware"
	"github.com/platefeed/backend/internal/models"
	"github.com/platefeed/backend/internal/service"
)

type UserHandler struct {
	db            *gorm.DB
	subscriptions *service.SubscriptionService
}

func NewUserHandler(db *gorm.DB, subscriptions *service.SubscriptionService) *UserHandler {
	return &UserHandler{db: db, subscriptions: subscriptions}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup, validator middleware.TokenValidator) {
	users := router.Group("/users")
	{
		users.GET("", middleware.AuthOptional(validator), h.ListUsers)
		users.GET("/me", middleware.AuthRequired(validator), h.Me)
		users.GET("/subscriptions", middleware.AuthRequired(validator), h.ListSubscriptions)
		users.GET("/:id", middleware.AuthOptional(validator), h.GetUser)
		users.POST("/:id/subscribe", middleware.AuthRequired(validator), h.Subscribe)
		users.DELETE("/:id/subscribe", middleware.AuthRequired(validator), h.Unsubscribe)
	}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	var users []models.User
	if err := h.db.WithContext(c.Request.Context()).Order("created_at").Find(&users).Error; err != nil {
		respondError(c, err)
		return
	}

	views := make([]service.AuthorView, 0, len(users))
	subscribed := h.subscribedSet(c)
	for _, u := range users {
		_, sub := subscribed[u.ID]
		views = append(views, authorView(&u, sub))
	}

	page, limit := pageParams(c)
	c.JSON(http.StatusOK, gin.H{
		"count":   len(views),
		"results": paginate(views, page, limit),
	})
}

func (h *UserHandler) Me(c *gin.Context) {
	viewer := viewerID(c)
	if viewer == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, "id = ?", *viewer).Error; err != nil {
		respondError(c, service.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, authorView(&user, false))
}

func (h *UserHandler) GetUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, "id = ?", userID).Error; err != nil {
		respondError(c, service.ErrNotFound)
		return
	}

	subscribed := false
	if viewer := viewerID(c); viewer != nil {
		var count int64
		h.db.WithContext(c.Request.Context()).Model(&models.Subscription{}).
			Where("subscriber_id = ? AND author_id = ?", *viewer, user.ID).
			Count(&count)
		subscribed = count > 0
	}

	c.JSON(http.StatusOK, authorView(&user, subscribed))
}

func (h *UserHandler) ListSubscriptions(c *gin.Context) {
	viewer := viewerID(c)
	if viewer == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	views, err := h.subscriptions.List(c.Request.Context(), *viewer, recipesLimit(c))
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

func (h *UserHandler) Subscribe(c *gin.Context) {
	authorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	viewer := viewerID(c)
	if viewer == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	view, err := h.subscriptions.Subscribe(c.Request.Context(), *viewer, authorID, recipesLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	authorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	viewer := viewerID(c)
	if viewer == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	if err := h.subscriptions.Unsubscribe(c.Request.Context(), *viewer, authorID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// subscribedSet returns the author ids the viewer follows, empty for
// anonymous viewers.
func (h *UserHandler) subscribedSet(c *gin.Context) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{})
	viewer := viewerID(c)
	if viewer == nil {
		return set
	}
	var subs []models.Subscription
	if err := h.db.WithContext(c.Request.Context()).
		Where("subscriber_id = ?", *viewer).
		Find(&subs).Error; err != nil {
		return set
	}
	for _, s := range subs {
		set[s.AuthorID] = struct{}{}
	}
	return set
}

func recipesLimit(c *gin.Context) int {
	limit, _ := strconv.Atoi(c.Query("recipes_limit"))
	if limit < 0 {
		limit = 0
	}
	return limit
}

func authorView(u *models.User, subscribed bool) service.AuthorView {
	return service.AuthorView{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}
