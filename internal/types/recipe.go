package types

import (
	"time"

	"github.com/google/uuid"
)

// UserView is the public representation of a user. IsSubscribed is computed
// relative to the requesting viewer, never to the user itself.
type UserView struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	AvatarURL    string    `json:"avatar_url"`
	IsSubscribed bool      `json:"is_subscribed"`
}

type RecipeIngredientView struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	MeasurementUnit string    `json:"measurement_unit"`
	Amount          int       `json:"amount"`
}

// RecipeView is the fully hydrated recipe returned by reads and writes.
// IsFavorited and IsInShoppingCart are computed relative to the viewer.
type RecipeView struct {
	ID               uuid.UUID              `json:"id"`
	Name             string                 `json:"name"`
	ImageURL         string                 `json:"image_url"`
	Text             string                 `json:"text"`
	CookingTime      int                    `json:"cooking_time"`
	ShortLink        string                 `json:"short_link"`
	CreatedAt        time.Time              `json:"created_at"`
	Author           UserView               `json:"author"`
	Ingredients      []RecipeIngredientView `json:"ingredients"`
	IsFavorited      bool                   `json:"is_favorited"`
	IsInShoppingCart bool                   `json:"is_in_shopping_cart"`
}

// RecipeSummary is the compact recipe shape returned by favorite and
// shopping-cart toggles.
type RecipeSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	ImageURL    string    `json:"image_url"`
	CookingTime int       `json:"cooking_time"`
}

// SubscriptionView describes a followed user together with a slice of their
// recipes (up to a caller-supplied limit) and the total recipe count.
type SubscriptionView struct {
	UserView
	Recipes      []RecipeSummary `json:"recipes"`
	RecipesCount int64           `json:"recipes_count"`
}

// ShoppingListItem is one aggregated line of a shopping list: quantities of
// the same (name, unit) pair summed across all recipes in the cart.
type ShoppingListItem struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}
