package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/types"
)

type RecipeHandler struct {
	recipes   *service.RecipeService
	relations *service.RelationService
	images    service.ImageUploader
	validator middleware.TokenValidator
	limiter   *middleware.RateLimiter
}

func NewRecipeHandler(recipes *service.RecipeService, relations *service.RelationService, images service.ImageUploader, validator middleware.TokenValidator, limiter *middleware.RateLimiter) *RecipeHandler {
	return &RecipeHandler{
		recipes:   recipes,
		relations: relations,
		images:    images,
		validator: validator,
		limiter:   limiter,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	recipes.GET("", middleware.OptionalAuthMiddleware(h.validator), h.ListRecipes)
	recipes.GET("/:id", middleware.OptionalAuthMiddleware(h.validator), h.GetRecipe)

	writes := recipes.Group("", middleware.AuthMiddleware(h.validator))
	if h.limiter != nil {
		writes.Use(h.limiter.RateLimitMiddleware())
	}
	writes.POST("", h.CreateRecipe)
	writes.PUT("/:id", h.PutRecipe)
	writes.PATCH("/:id", h.PatchRecipe)
	writes.DELETE("/:id", h.DeleteRecipe)

	toggles := recipes.Group("", middleware.AuthMiddleware(h.validator))
	toggles.POST("/:id/favorite", h.FavoriteRecipe)
	toggles.DELETE("/:id/favorite", h.UnfavoriteRecipe)
	toggles.POST("/:id/shopping_cart", h.AddToCart)
	toggles.DELETE("/:id/shopping_cart", h.RemoveFromCart)
}

// RegisterShortLinkRoute exposes short-link resolution at the server root.
func (h *RecipeHandler) RegisterShortLinkRoute(router gin.IRouter) {
	router.GET("/s/:token", h.ResolveShortLink)
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	filter := service.RecipeFilter{
		Search:           c.Query("name"),
		IsFavorited:      c.Query("is_favorited") == "1",
		IsInShoppingCart: c.Query("is_in_shopping_cart") == "1",
	}
	if author := c.Query("author"); author != "" {
		id, err := uuid.Parse(author)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid author id"})
			return
		}
		filter.AuthorID = &id
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "0")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil {
		filter.Offset = offset
	}

	views, err := h.recipes.ListRecipes(c.Request.Context(), viewerID(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": views, "count": len(views)})
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	view, err := h.recipes.GetRecipe(c.Request.Context(), recipeID, viewerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	imageURL := req.Image
	if req.Image != "" {
		resolved, err := resolveImage(c.Request.Context(), h.images, req.Image, "recipes")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		imageURL = resolved
	}

	input := service.CreateRecipeInput{
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		ImageURL:    imageURL,
		Ingredients: toIngredientAmounts(req.Ingredients),
	}

	view, err := h.recipes.CreateRecipe(c.Request.Context(), userID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// PutRecipe is full replacement: a missing ingredient list is an error.
func (h *RecipeHandler) PutRecipe(c *gin.Context) {
	h.updateRecipe(c, true)
}

// PatchRecipe is partial update: absent fields stay unchanged.
func (h *RecipeHandler) PatchRecipe(c *gin.Context) {
	h.updateRecipe(c, false)
}

func (h *RecipeHandler) updateRecipe(c *gin.Context, requireIngredients bool) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	var req UpdateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	input := service.UpdateRecipeInput{
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
	}
	if req.Image != nil {
		resolved, err := resolveImage(c.Request.Context(), h.images, *req.Image, "recipes")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		input.ImageURL = &resolved
	}
	if req.Ingredients != nil {
		input.Ingredients = toIngredientAmounts(req.Ingredients)
	}

	view, err := h.recipes.UpdateRecipe(c.Request.Context(), recipeID, userID, input, requireIngredients)
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
	userID, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	if err := h.recipes.DeleteRecipe(c.Request.Context(), recipeID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) ResolveShortLink(c *gin.Context) {
	recipeID, err := h.recipes.GetRecipeByShortLink(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/api/v1/recipes/"+recipeID.String())
}

func (h *RecipeHandler) FavoriteRecipe(c *gin.Context) {
	h.addRelation(c, h.relations.AddFavorite)
}

func (h *RecipeHandler) UnfavoriteRecipe(c *gin.Context) {
	h.removeRelation(c, h.relations.RemoveFavorite)
}

func (h *RecipeHandler) AddToCart(c *gin.Context) {
	h.addRelation(c, h.relations.AddToCart)
}

func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	h.removeRelation(c, h.relations.RemoveFromCart)
}

func (h *RecipeHandler) addRelation(c *gin.Context, add func(ctx context.Context, userID, recipeID uuid.UUID) (*types.RecipeSummary, error)) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	summary, err := add(c.Request.Context(), userID, recipeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, summary)
}

func (h *RecipeHandler) removeRelation(c *gin.Context, remove func(ctx context.Context, userID, recipeID uuid.UUID) error) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	if err := remove(c.Request.Context(), userID, recipeID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func toIngredientAmounts(reqs []RecipeIngredientRequest) []service.IngredientAmount {
	out := make([]service.IngredientAmount, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, service.IngredientAmount{IngredientID: r.ID, Amount: r.Amount})
	}
	return out
}
