package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/foodgram/backend/internal/api"
)

// SetupRouter configures the application routes
func SetupRouter(
	userHandler *api.UserHandler,
	recipeHandler *api.RecipeHandler,
	ingredientHandler *api.IngredientHandler,
	shoppingListHandler *api.ShoppingListHandler,
) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://frontend:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Accept", "Origin"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}))

	v1 := router.Group("/api/v1")
	userHandler.RegisterRoutes(v1)
	recipeHandler.RegisterRoutes(v1)
	ingredientHandler.RegisterRoutes(v1)
	shoppingListHandler.RegisterRoutes(v1)

	// Compact recipe references live at the root, outside the API prefix.
	recipeHandler.RegisterShortLinkRoute(router)

	return router
}
