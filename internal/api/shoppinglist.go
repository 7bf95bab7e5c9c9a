package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/service"
)

type ShoppingListHandler struct {
	shopping  *service.ShoppingListService
	validator middleware.TokenValidator
}

func NewShoppingListHandler(shopping *service.ShoppingListService, validator middleware.TokenValidator) *ShoppingListHandler {
	return &ShoppingListHandler{shopping: shopping, validator: validator}
}

func (h *ShoppingListHandler) RegisterRoutes(router *gin.RouterGroup) {
	list := router.Group("/shopping-list", middleware.AuthMiddleware(h.validator))
	list.GET("", h.List)
	list.GET("/download", h.Download)
}

func (h *ShoppingListHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	items, err := h.shopping.Compute(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Download renders the aggregated list as a plain-text attachment, one line
// per ingredient group. An empty cart downloads an empty document.
func (h *ShoppingListHandler) Download(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	document, err := h.shopping.Download(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="shopping_list.txt"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(document))
}
