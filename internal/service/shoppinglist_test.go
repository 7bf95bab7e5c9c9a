package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodgram/backend/internal/types"
)

func TestShoppingListAggregation(t *testing.T) {
	db := newTestDB(t)
	recipes := NewRecipeService(db, nil)
	relations := NewRelationService(db)
	lists := NewShoppingListService(db)
	author := createTestUser(t, db, "alice")
	user := createTestUser(t, db, "bob")
	flour := createTestIngredient(t, db, "flour", "g")
	milk := createTestIngredient(t, db, "milk", "ml")
	ctx := context.Background()

	pancakes := mustCreateRecipe(t, recipes, author.ID, "pancakes", []IngredientAmount{
		{IngredientID: flour.ID, Amount: 200},
		{IngredientID: milk.ID, Amount: 500},
	})
	bread := mustCreateRecipe(t, recipes, author.ID, "bread", []IngredientAmount{
		{IngredientID: flour.ID, Amount: 300},
	})
	_, err := relations.AddToCart(ctx, user.ID, pancakes.ID)
	require.NoError(t, err)
	_, err = relations.AddToCart(ctx, user.ID, bread.ID)
	require.NoError(t, err)

	items, err := lists.Compute(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []types.ShoppingListItem{
		{Name: "flour", MeasurementUnit: "g", Amount: 500},
		{Name: "milk", MeasurementUnit: "ml", Amount: 500},
	}, items)
}

func TestShoppingListOnlyCountsOwnCart(t *testing.T) {
	db := newTestDB(t)
	recipes := NewRecipeService(db, nil)
	relations := NewRelationService(db)
	lists := NewShoppingListService(db)
	author := createTestUser(t, db, "alice")
	user := createTestUser(t, db, "bob")
	other := createTestUser(t, db, "carol")
	flour := createTestIngredient(t, db, "flour", "g")
	ctx := context.Background()

	inCart := mustCreateRecipe(t, recipes, author.ID, "bread", []IngredientAmount{
		{IngredientID: flour.ID, Amount: 300},
	})
	elsewhere := mustCreateRecipe(t, recipes, author.ID, "buns", []IngredientAmount{
		{IngredientID: flour.ID, Amount: 999},
	})
	_, err := relations.AddToCart(ctx, user.ID, inCart.ID)
	require.NoError(t, err)
	_, err = relations.AddToCart(ctx, other.ID, elsewhere.ID)
	require.NoError(t, err)

	items, err := lists.Compute(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 300, items[0].Amount)
}

func TestShoppingListEmptyCart(t *testing.T) {
	db := newTestDB(t)
	lists := NewShoppingListService(db)
	user := createTestUser(t, db, "bob")

	items, err := lists.Compute(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	doc, err := lists.Download(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "", doc)
}

func TestShoppingListRenderFormat(t *testing.T) {
	lists := NewShoppingListService(nil)
	doc := lists.Render([]types.ShoppingListItem{
		{Name: "flour", MeasurementUnit: "g", Amount: 500},
		{Name: "milk", MeasurementUnit: "ml", Amount: 200},
	})
	assert.Equal(t, "flour (g) — 500\nmilk (ml) — 200\n", doc)
}
