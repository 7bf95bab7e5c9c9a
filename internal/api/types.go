package api

import "github.com/google/uuid"

// RecipeIngredientRequest is one (ingredient reference, amount) pair in a
// recipe write.
type RecipeIngredientRequest struct {
	ID uuid.UUID `json:"id" binding:"required"`
	// Amount bounds are validated in the service layer so range violations
	// surface with field-level detail.
	Amount int `json:"amount"`
}

// CreateRecipeRequest represents the request body for creating a recipe.
// Image is either a base64 data URI or an already-hosted URL.
type CreateRecipeRequest struct {
	Name        string                    `json:"name" binding:"required"`
	Text        string                    `json:"text" binding:"required"`
	CookingTime int                       `json:"cooking_time"`
	Image       string                    `json:"image"`
	Ingredients []RecipeIngredientRequest `json:"ingredients" binding:"required"`
}

// UpdateRecipeRequest carries partial fields; absent fields stay unchanged.
// A nil Ingredients slice means the set was not supplied, which PUT rejects.
type UpdateRecipeRequest struct {
	Name        *string                   `json:"name"`
	Text        *string                   `json:"text"`
	CookingTime *int                      `json:"cooking_time"`
	Image       *string                   `json:"image"`
	Ingredients []RecipeIngredientRequest `json:"ingredients"`
}

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Username  string `json:"username" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateAvatarRequest struct {
	Avatar string `json:"avatar" binding:"required"`
}
