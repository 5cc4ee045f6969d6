package server

import (
	"context"
	"net/http"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/platefeed/backend/config"
	"github.com/platefeed/backend/internal/api"
	"github.com/platefeed/backend/internal/logger"
	"github.com/platefeed/backend/internal/router"
	"github.com/platefeed/backend/internal/service"
)

// Server wires services and handlers together and owns the HTTP listener.
type Server struct {
	http *http.Server
	log  *logger.Logger
}

// New creates a new server instance. s3Config may be nil, in which case
// recipes keep whatever image reference the client submitted.
func New(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, s3Config *config.S3Config, log *logger.Logger) *Server {
	authService := service.NewAuthService(db, redisClient, cfg.JWTSecret, log)
	recipeService := service.NewRecipeService(db, log)
	bookmarkService := service.NewBookmarkService(db, log)
	shoppingService := service.NewShoppingListService(db, log)
	subscriptionService := service.NewSubscriptionService(db, log)
	tagService := service.NewTagService(db)
	ingredientService := service.NewIngredientService(db)

	var imageService *service.ImageService
	if s3Config != nil {
		imageService = service.NewImageService(s3Config, log)
	}

	engine := router.SetupRouter(
		api.NewAuthHandler(authService),
		api.NewUserHandler(db, subscriptionService),
		api.NewCatalogHandler(tagService, ingredientService),
		api.NewRecipeHandler(recipeService, bookmarkService, shoppingService, imageService),
		authService,
	)

	return &Server{
		http: &http.Server{
			Addr:    cfg.ServerHost + ":" + cfg.ServerPort,
			Handler: engine,
		},
		log: log,
	}
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
