package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/foodgram/backend/config"
	"github.com/foodgram/backend/internal/api"
	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/router"
	"github.com/foodgram/backend/internal/service"
)

// Server wires the services and handlers together and owns the HTTP
// lifecycle.
type Server struct {
	engine *gin.Engine
	http   *http.Server
}

// New constructs the full application. redisClient and images may be nil;
// rate limiting and short-link caching are then disabled and data-URI
// uploads rejected.
func New(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, images service.ImageUploader) *Server {
	authService := service.NewAuthService(db, cfg.JWTSecret)
	recipeService := service.NewRecipeService(db, redisClient)
	relationService := service.NewRelationService(db)
	shoppingService := service.NewShoppingListService(db)
	ingredientService := service.NewIngredientService(db)

	var limiter *middleware.RateLimiter
	if redisClient != nil {
		limiter = middleware.NewRecipeWriteRateLimiter(redisClient)
	}

	engine := router.SetupRouter(
		api.NewUserHandler(authService, relationService, images),
		api.NewRecipeHandler(recipeService, relationService, images, authService, limiter),
		api.NewIngredientHandler(ingredientService),
		api.NewShoppingListHandler(shoppingService, authService),
	)

	return &Server{
		engine: engine,
		http: &http.Server{
			Addr:    cfg.ServerHost + ":" + cfg.ServerPort,
			Handler: engine,
		},
	}
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
