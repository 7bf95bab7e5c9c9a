package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/types"
)

// RelationService is the membership ledger behind favorites, shopping-cart
// entries and follows. Each relation is a boolean per (actor, target) pair:
// adding an existing pair and removing a missing one are both rejected
// explicitly rather than treated as no-ops, so client bugs surface.
type RelationService struct {
	db *gorm.DB
}

func NewRelationService(db *gorm.DB) *RelationService {
	return &RelationService{db: db}
}

func (s *RelationService) AddFavorite(ctx context.Context, userID, recipeID uuid.UUID) (*types.RecipeSummary, error) {
	recipe, err := s.findRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	row := models.Favorite{UserID: userID, RecipeID: recipeID}
	if err := s.addMembership(ctx, &models.Favorite{}, &row); err != nil {
		return nil, err
	}
	return recipeSummary(recipe), nil
}

func (s *RelationService) RemoveFavorite(ctx context.Context, userID, recipeID uuid.UUID) error {
	return s.removeMembership(ctx, &models.Favorite{UserID: userID, RecipeID: recipeID})
}

func (s *RelationService) AddToCart(ctx context.Context, userID, recipeID uuid.UUID) (*types.RecipeSummary, error) {
	recipe, err := s.findRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	row := models.ShoppingCartEntry{UserID: userID, RecipeID: recipeID}
	if err := s.addMembership(ctx, &models.ShoppingCartEntry{}, &row); err != nil {
		return nil, err
	}
	return recipeSummary(recipe), nil
}

func (s *RelationService) RemoveFromCart(ctx context.Context, userID, recipeID uuid.UUID) error {
	return s.removeMembership(ctx, &models.ShoppingCartEntry{UserID: userID, RecipeID: recipeID})
}

// Follow subscribes userID to targetID and returns the subscription view.
// Self-follows are rejected before any storage access.
func (s *RelationService) Follow(ctx context.Context, userID, targetID uuid.UUID, recipesLimit int) (*types.SubscriptionView, error) {
	if userID == targetID {
		return nil, ErrSelfFollow
	}

	var target models.User
	if err := s.db.WithContext(ctx).First(&target, "id = ?", targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	row := models.Follow{UserID: userID, FollowingID: targetID}
	if err := s.addMembership(ctx, &models.Follow{}, &row); err != nil {
		return nil, err
	}
	return s.subscriptionView(ctx, &target, recipesLimit)
}

func (s *RelationService) Unfollow(ctx context.Context, userID, targetID uuid.UUID) error {
	if userID == targetID {
		return ErrSelfFollow
	}
	return s.removeMembership(ctx, &models.Follow{UserID: userID, FollowingID: targetID})
}

// ListSubscriptions pages through the users the given user follows, oldest
// subscription first, each with up to recipesLimit of their recipes.
func (s *RelationService) ListSubscriptions(ctx context.Context, userID uuid.UUID, recipesLimit, limit, offset int) ([]*types.SubscriptionView, error) {
	query := s.db.WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN follows ON follows.following_id = users.id").
		Where("follows.user_id = ?", userID).
		Order("follows.created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var followed []models.User
	if err := query.Find(&followed).Error; err != nil {
		return nil, err
	}

	views := make([]*types.SubscriptionView, 0, len(followed))
	for i := range followed {
		view, err := s.subscriptionView(ctx, &followed[i], recipesLimit)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// addMembership creates the pair row unless it already exists. The unique
// index on the pair backs this check against racing duplicate adds.
func (s *RelationService) addMembership(ctx context.Context, model, row interface{}) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(model).Where(row).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrAlreadyExists
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (s *RelationService) removeMembership(ctx context.Context, row interface{}) error {
	res := s.db.WithContext(ctx).Where(row).Delete(row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RelationService) findRecipe(ctx context.Context, recipeID uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

func (s *RelationService) subscriptionView(ctx context.Context, user *models.User, recipesLimit int) (*types.SubscriptionView, error) {
	view := &types.SubscriptionView{
		UserView: types.UserView{
			ID:           user.ID,
			Email:        user.Email,
			Username:     user.Username,
			FirstName:    user.FirstName,
			LastName:     user.LastName,
			AvatarURL:    user.AvatarURL,
			IsSubscribed: true,
		},
		Recipes: []types.RecipeSummary{},
	}

	query := s.db.WithContext(ctx).
		Where("author_id = ?", user.ID).
		Order("created_at DESC")
	if recipesLimit > 0 {
		query = query.Limit(recipesLimit)
	}
	var recipes []models.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		return nil, err
	}
	for i := range recipes {
		view.Recipes = append(view.Recipes, *recipeSummary(&recipes[i]))
	}

	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Where("author_id = ?", user.ID).Count(&view.RecipesCount).Error; err != nil {
		return nil, err
	}
	return view, nil
}

func recipeSummary(recipe *models.Recipe) *types.RecipeSummary {
	return &types.RecipeSummary{
		ID:          recipe.ID,
		Name:        recipe.Name,
		ImageURL:    recipe.ImageURL,
		CookingTime: recipe.CookingTime,
	}
}
