package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/types"
)

const (
	// Quantity bounds shared by ingredient amounts and cooking time.
	minAmount = 1
	maxAmount = 32000

	shortLinkLength   = 22
	shortLinkAttempts = 5
	shortLinkCacheTTL = 24 * time.Hour
)

// IngredientAmount is one (ingredient reference, quantity) pair submitted
// with a recipe write.
type IngredientAmount struct {
	IngredientID uuid.UUID
	Amount       int
}

type CreateRecipeInput struct {
	Name        string
	Text        string
	CookingTime int
	ImageURL    string
	Ingredients []IngredientAmount
}

// UpdateRecipeInput carries partial fields: nil pointers are left unchanged.
// A nil Ingredients slice means the ingredient set was not supplied.
type UpdateRecipeInput struct {
	Name        *string
	Text        *string
	CookingTime *int
	ImageURL    *string
	Ingredients []IngredientAmount
}

// RecipeFilter narrows ListRecipes. The viewer-relative filters are ignored
// when no viewer is present.
type RecipeFilter struct {
	AuthorID         *uuid.UUID
	IsFavorited      bool
	IsInShoppingCart bool
	Search           string
	Limit            int
	Offset           int
}

// RecipeService orchestrates recipe writes together with their full
// ingredient list as one atomic unit, and serves viewer-relative reads.
type RecipeService struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewRecipeService creates a new RecipeService instance. The redis client is
// optional; without it short-link resolution simply skips the cache.
func NewRecipeService(db *gorm.DB, redisClient *redis.Client) *RecipeService {
	return &RecipeService{db: db, redis: redisClient}
}

// CreateRecipe validates the full input before any row is written, then
// persists the recipe and its associations in one transaction.
func (s *RecipeService) CreateRecipe(ctx context.Context, authorID uuid.UUID, in CreateRecipeInput) (*types.RecipeView, error) {
	if err := validateCookingTime(in.CookingTime); err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        in.Name,
		Text:        in.Text,
		ImageURL:    in.ImageURL,
		CookingTime: in.CookingTime,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := validateIngredients(tx, in.Ingredients); err != nil {
			return err
		}

		shortLink, err := generateShortLink(tx)
		if err != nil {
			return err
		}
		recipe.ShortLink = shortLink

		if err := tx.Create(&recipe).Error; err != nil {
			return err
		}
		return createAssociations(tx, recipe.ID, in.Ingredients)
	})
	if err != nil {
		return nil, err
	}

	return s.GetRecipe(ctx, recipe.ID, &authorID)
}

// UpdateRecipe applies partial scalar updates and replaces the ingredient
// set. The replacement is computed as a diff (delete removed, adjust changed
// amounts, insert added) so concurrent readers only ever observe a full set;
// validation completes before the first mutation.
func (s *RecipeService) UpdateRecipe(ctx context.Context, recipeID, callerID uuid.UUID, in UpdateRecipeInput, requireIngredients bool) (*types.RecipeView, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if recipe.AuthorID != callerID {
		return nil, ErrForbidden
	}
	if requireIngredients && in.Ingredients == nil {
		return nil, ErrIngredientsRequired
	}
	if in.CookingTime != nil {
		if err := validateCookingTime(*in.CookingTime); err != nil {
			return nil, err
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.Ingredients != nil {
			if err := validateIngredients(tx, in.Ingredients); err != nil {
				return err
			}
		}

		updates := map[string]interface{}{}
		if in.Name != nil {
			updates["name"] = *in.Name
		}
		if in.Text != nil {
			updates["text"] = *in.Text
		}
		if in.CookingTime != nil {
			updates["cooking_time"] = *in.CookingTime
		}
		if in.ImageURL != nil {
			updates["image_url"] = *in.ImageURL
		}
		if len(updates) > 0 {
			if err := tx.Model(&models.Recipe{}).Where("id = ?", recipeID).Updates(updates).Error; err != nil {
				return err
			}
		}

		if in.Ingredients != nil {
			return replaceAssociations(tx, recipeID, in.Ingredients)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetRecipe(ctx, recipeID, &callerID)
}

// DeleteRecipe removes a recipe together with its associations and any
// favorite or cart rows pointing at it. Author-only.
func (s *RecipeService) DeleteRecipe(ctx context.Context, recipeID, callerID uuid.UUID) error {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if recipe.AuthorID != callerID {
		return ErrForbidden
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.ShoppingCartEntry{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Recipe{}, "id = ?", recipeID).Error
	})
}

// GetRecipe returns the hydrated recipe. Viewer-relative flags are false
// when viewer is nil (unauthenticated read).
func (s *RecipeService) GetRecipe(ctx context.Context, recipeID uuid.UUID, viewer *uuid.UUID) (*types.RecipeView, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Ingredients.Ingredient").
		First(&recipe, "id = ?", recipeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.buildView(ctx, &recipe, viewer)
}

// GetRecipeByShortLink resolves a short-link token to its recipe ID, going
// through the redis cache when available.
func (s *RecipeService) GetRecipeByShortLink(ctx context.Context, token string) (uuid.UUID, error) {
	cacheKey := "short_link:" + token

	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			if id, err := uuid.Parse(cached); err == nil {
				return id, nil
			}
		}
	}

	var recipe models.Recipe
	if err := s.db.WithContext(ctx).Select("id").First(&recipe, "short_link = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, ErrNotFound
		}
		return uuid.Nil, err
	}

	if s.redis != nil {
		s.redis.Set(ctx, cacheKey, recipe.ID.String(), shortLinkCacheTTL)
	}
	return recipe.ID, nil
}

// ListRecipes returns hydrated views matching the filter, newest first.
func (s *RecipeService) ListRecipes(ctx context.Context, viewer *uuid.UUID, f RecipeFilter) ([]*types.RecipeView, error) {
	query := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Preload("Author").
		Preload("Ingredients.Ingredient").
		Order("recipes.created_at DESC")

	if f.AuthorID != nil {
		query = query.Where("recipes.author_id = ?", *f.AuthorID)
	}
	if f.Search != "" {
		query = query.Where("LOWER(recipes.name) LIKE ?", "%"+strings.ToLower(f.Search)+"%")
	}
	if viewer != nil && f.IsFavorited {
		query = query.Joins("JOIN favorites ON favorites.recipe_id = recipes.id AND favorites.user_id = ?", *viewer)
	}
	if viewer != nil && f.IsInShoppingCart {
		query = query.Joins("JOIN shopping_cart_entries ON shopping_cart_entries.recipe_id = recipes.id AND shopping_cart_entries.user_id = ?", *viewer)
	}
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}
	if f.Offset > 0 {
		query = query.Offset(f.Offset)
	}

	var recipes []models.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		return nil, err
	}

	views := make([]*types.RecipeView, 0, len(recipes))
	for i := range recipes {
		view, err := s.buildView(ctx, &recipes[i], viewer)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *RecipeService) buildView(ctx context.Context, recipe *models.Recipe, viewer *uuid.UUID) (*types.RecipeView, error) {
	view := &types.RecipeView{
		ID:          recipe.ID,
		Name:        recipe.Name,
		ImageURL:    recipe.ImageURL,
		Text:        recipe.Text,
		CookingTime: recipe.CookingTime,
		ShortLink:   recipe.ShortLink,
		CreatedAt:   recipe.CreatedAt,
		Author: types.UserView{
			ID:        recipe.Author.ID,
			Email:     recipe.Author.Email,
			Username:  recipe.Author.Username,
			FirstName: recipe.Author.FirstName,
			LastName:  recipe.Author.LastName,
			AvatarURL: recipe.Author.AvatarURL,
		},
		Ingredients: make([]types.RecipeIngredientView, 0, len(recipe.Ingredients)),
	}

	for _, ri := range recipe.Ingredients {
		view.Ingredients = append(view.Ingredients, types.RecipeIngredientView{
			ID:              ri.IngredientID,
			Name:            ri.Ingredient.Name,
			MeasurementUnit: ri.Ingredient.MeasurementUnit,
			Amount:          ri.Amount,
		})
	}

	if viewer == nil {
		return view, nil
	}

	db := s.db.WithContext(ctx)
	var n int64
	if err := db.Model(&models.Favorite{}).
		Where("user_id = ? AND recipe_id = ?", *viewer, recipe.ID).Count(&n).Error; err != nil {
		return nil, err
	}
	view.IsFavorited = n > 0

	if err := db.Model(&models.ShoppingCartEntry{}).
		Where("user_id = ? AND recipe_id = ?", *viewer, recipe.ID).Count(&n).Error; err != nil {
		return nil, err
	}
	view.IsInShoppingCart = n > 0

	if *viewer != recipe.AuthorID {
		if err := db.Model(&models.Follow{}).
			Where("user_id = ? AND following_id = ?", *viewer, recipe.AuthorID).Count(&n).Error; err != nil {
			return nil, err
		}
		view.Author.IsSubscribed = n > 0
	}

	return view, nil
}

func validateCookingTime(minutes int) error {
	if minutes < minAmount || minutes > maxAmount {
		return validationErrorf("cooking_time", "must be between %d and %d", minAmount, maxAmount)
	}
	return nil
}

// validateIngredients checks a candidate association list against the
// catalog: non-empty, no repeated references, amounts in range, every
// referenced ingredient known. It mutates nothing.
func validateIngredients(tx *gorm.DB, list []IngredientAmount) error {
	if len(list) == 0 {
		return validationErrorf("ingredients", "ingredient list must not be empty")
	}

	seen := make(map[uuid.UUID]struct{}, len(list))
	ids := make([]uuid.UUID, 0, len(list))
	for _, item := range list {
		if _, dup := seen[item.IngredientID]; dup {
			return validationErrorf("ingredients", "duplicate ingredient %s", item.IngredientID)
		}
		seen[item.IngredientID] = struct{}{}
		if item.Amount < minAmount || item.Amount > maxAmount {
			return validationErrorf("amount", "must be between %d and %d", minAmount, maxAmount)
		}
		ids = append(ids, item.IngredientID)
	}

	var known []models.Ingredient
	if err := tx.Where("id IN ?", ids).Find(&known).Error; err != nil {
		return err
	}
	if len(known) != len(ids) {
		existing := make(map[uuid.UUID]struct{}, len(known))
		for _, ing := range known {
			existing[ing.ID] = struct{}{}
		}
		for _, id := range ids {
			if _, ok := existing[id]; !ok {
				return validationErrorf("ingredients", "unknown ingredient %s", id)
			}
		}
	}
	return nil
}

func createAssociations(tx *gorm.DB, recipeID uuid.UUID, list []IngredientAmount) error {
	rows := make([]models.RecipeIngredient, 0, len(list))
	for _, item := range list {
		rows = append(rows, models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: item.IngredientID,
			Amount:       item.Amount,
		})
	}
	return tx.Create(&rows).Error
}

// replaceAssociations reconciles the stored association set with the desired
// one. Net observable state matches a whole-set replacement.
func replaceAssociations(tx *gorm.DB, recipeID uuid.UUID, desired []IngredientAmount) error {
	var existing []models.RecipeIngredient
	if err := tx.Where("recipe_id = ?", recipeID).Find(&existing).Error; err != nil {
		return err
	}

	current := make(map[uuid.UUID]models.RecipeIngredient, len(existing))
	for _, row := range existing {
		current[row.IngredientID] = row
	}
	wanted := make(map[uuid.UUID]int, len(desired))
	for _, item := range desired {
		wanted[item.IngredientID] = item.Amount
	}

	for ingredientID, row := range current {
		if _, keep := wanted[ingredientID]; !keep {
			if err := tx.Delete(&models.RecipeIngredient{}, "id = ?", row.ID).Error; err != nil {
				return err
			}
		}
	}
	for _, item := range desired {
		row, exists := current[item.IngredientID]
		switch {
		case !exists:
			add := models.RecipeIngredient{
				RecipeID:     recipeID,
				IngredientID: item.IngredientID,
				Amount:       item.Amount,
			}
			if err := tx.Create(&add).Error; err != nil {
				return err
			}
		case row.Amount != item.Amount:
			if err := tx.Model(&models.RecipeIngredient{}).
				Where("id = ?", row.ID).Update("amount", item.Amount).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// generateShortLink allocates a fresh opaque token, regenerating on the rare
// collision up to a bounded number of attempts.
func generateShortLink(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < shortLinkAttempts; attempt++ {
		token := shortuuid.New()
		if len(token) > shortLinkLength {
			token = token[:shortLinkLength]
		}

		var n int64
		if err := tx.Model(&models.Recipe{}).Where("short_link = ?", token).Count(&n).Error; err != nil {
			return "", err
		}
		if n == 0 {
			return token, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrShortLinkExhausted, shortLinkAttempts)
}
