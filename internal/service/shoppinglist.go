package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/types"
)

// ShoppingListService aggregates the ingredient quantities of every recipe
// in a user's shopping cart into one deduplicated list.
type ShoppingListService struct {
	db *gorm.DB
}

func NewShoppingListService(db *gorm.DB) *ShoppingListService {
	return &ShoppingListService{db: db}
}

// Compute groups associations across the cart's recipes by (ingredient
// name, measurement unit) and sums the amounts within each group. Results
// are ordered by name so repeated calls over the same data agree. An empty
// cart yields an empty slice, not an error.
func (s *ShoppingListService) Compute(ctx context.Context, userID uuid.UUID) ([]types.ShoppingListItem, error) {
	var items []types.ShoppingListItem
	err := s.db.WithContext(ctx).
		Table("recipe_ingredients").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN shopping_cart_entries ON shopping_cart_entries.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_cart_entries.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []types.ShoppingListItem{}
	}
	return items, nil
}

// Render produces the flat text document, one line per aggregated group.
func (s *ShoppingListService) Render(items []types.ShoppingListItem) string {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "%s (%s) — %d\n", item.Name, item.MeasurementUnit, item.Amount)
	}
	return b.String()
}

// Download computes and renders the shopping list in one call.
func (s *ShoppingListService) Download(ctx context.Context, userID uuid.UUID) (string, error) {
	items, err := s.Compute(ctx, userID)
	if err != nil {
		return "", err
	}
	return s.Render(items), nil
}
