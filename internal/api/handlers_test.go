package api_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/foodgram/backend/internal/api"
	"github.com/foodgram/backend/internal/database"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/router"
	"github.com/foodgram/backend/internal/service"
)

type stubUploader struct{}

func (stubUploader) Upload(ctx context.Context, data []byte, key string) (string, error) {
	return "https://media.test/" + key, nil
}

type testEnv struct {
	engine *gin.Engine
	db     *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	auth := service.NewAuthService(db, "test-secret")
	recipes := service.NewRecipeService(db, nil)
	relations := service.NewRelationService(db)
	ingredients := service.NewIngredientService(db)
	shopping := service.NewShoppingListService(db)
	uploader := stubUploader{}

	engine := router.SetupRouter(
		api.NewUserHandler(auth, relations, uploader),
		api.NewRecipeHandler(recipes, relations, uploader, auth, nil),
		api.NewIngredientHandler(ingredients),
		api.NewShoppingListHandler(shopping, auth),
	)
	return &testEnv{engine: engine, db: db}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *testEnv) register(t *testing.T, username string) (uuid.UUID, string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":    username + "@example.com",
		"username": username,
		"password": "s3cret",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID uuid.UUID `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.User.ID, resp.Token
}

func (e *testEnv) seedIngredient(t *testing.T, name, unit string) uuid.UUID {
	t.Helper()
	ingredient := models.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, e.db.Create(&ingredient).Error)
	return ingredient.ID
}

func recipeBody(name string, items ...gin.H) gin.H {
	return gin.H{
		"name":         name,
		"text":         "step one, step two",
		"cooking_time": 30,
		"ingredients":  items,
	}
}

func TestRegisterLoginAndProfile(t *testing.T) {
	env := newTestEnv(t)
	userID, token := env.register(t, "alice")

	w := env.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "s3cret",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profile struct {
		ID       uuid.UUID `json:"id"`
		Username string    `json:"username"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, userID, profile.ID)
	assert.Equal(t, "alice", profile.Username)

	w = env.do(t, http.MethodGet, "/api/v1/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")

	w := env.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateRecipeEndpoint(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.register(t, "alice")
	flourID := env.seedIngredient(t, "flour", "g")

	image := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("pngbytes"))
	body := recipeBody("pancakes", gin.H{"id": flourID, "amount": 200})
	body["image"] = image

	w := env.do(t, http.MethodPost, "/api/v1/recipes", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var view struct {
		ID          uuid.UUID `json:"id"`
		ImageURL    string    `json:"image_url"`
		ShortLink   string    `json:"short_link"`
		Ingredients []struct {
			Name   string `json:"name"`
			Amount int    `json:"amount"`
		} `json:"ingredients"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Contains(t, view.ImageURL, "https://media.test/recipes/")
	assert.Len(t, view.ShortLink, 22)
	require.Len(t, view.Ingredients, 1)
	assert.Equal(t, "flour", view.Ingredients[0].Name)
	assert.Equal(t, 200, view.Ingredients[0].Amount)

	// the recipe is publicly readable without a token
	w = env.do(t, http.MethodGet, "/api/v1/recipes/"+view.ID.String(), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateRecipeRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	flourID := env.seedIngredient(t, "flour", "g")

	w := env.do(t, http.MethodPost, "/api/v1/recipes", "",
		recipeBody("pancakes", gin.H{"id": flourID, "amount": 200}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateRecipeValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.register(t, "alice")
	flourID := env.seedIngredient(t, "flour", "g")

	// duplicate ingredient reference
	w := env.do(t, http.MethodPost, "/api/v1/recipes", token,
		recipeBody("pancakes",
			gin.H{"id": flourID, "amount": 100},
			gin.H{"id": flourID, "amount": 200}))
	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp struct {
		Field string `json:"field"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ingredients", resp.Field)

	// amount out of range
	w = env.do(t, http.MethodPost, "/api/v1/recipes", token,
		recipeBody("pancakes", gin.H{"id": flourID, "amount": 32001}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// unknown ingredient
	w = env.do(t, http.MethodPost, "/api/v1/recipes", token,
		recipeBody("pancakes", gin.H{"id": uuid.New(), "amount": 10}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func createRecipe(t *testing.T, env *testEnv, token string, body gin.H) uuid.UUID {
	t.Helper()
	w := env.do(t, http.MethodPost, "/api/v1/recipes", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var view struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	return view.ID
}

func TestPutRecipeRequiresIngredients(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.register(t, "alice")
	flourID := env.seedIngredient(t, "flour", "g")
	recipeID := createRecipe(t, env, token, recipeBody("pancakes", gin.H{"id": flourID, "amount": 200}))

	w := env.do(t, http.MethodPut, "/api/v1/recipes/"+recipeID.String(), token,
		gin.H{"name": "crepes"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// PATCH allows partial updates
	w = env.do(t, http.MethodPatch, "/api/v1/recipes/"+recipeID.String(), token,
		gin.H{"name": "crepes"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateRecipeForbiddenForNonAuthor(t *testing.T) {
	env := newTestEnv(t)
	_, aliceToken := env.register(t, "alice")
	_, bobToken := env.register(t, "bob")
	flourID := env.seedIngredient(t, "flour", "g")
	recipeID := createRecipe(t, env, aliceToken, recipeBody("pancakes", gin.H{"id": flourID, "amount": 200}))

	w := env.do(t, http.MethodPatch, "/api/v1/recipes/"+recipeID.String(), bobToken,
		gin.H{"name": "stolen"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodDelete, "/api/v1/recipes/"+recipeID.String(), bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestFavoriteEndpointToggle(t *testing.T) {
	env := newTestEnv(t)
	_, aliceToken := env.register(t, "alice")
	_, bobToken := env.register(t, "bob")
	flourID := env.seedIngredient(t, "flour", "g")
	recipeID := createRecipe(t, env, aliceToken, recipeBody("pancakes", gin.H{"id": flourID, "amount": 200}))
	path := "/api/v1/recipes/" + recipeID.String() + "/favorite"

	w := env.do(t, http.MethodPost, path, bobToken, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, path, bobToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodDelete, path, bobToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodDelete, path, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubscribeEndpoint(t *testing.T) {
	env := newTestEnv(t)
	aliceID, aliceToken := env.register(t, "alice")
	bobID, bobToken := env.register(t, "bob")

	w := env.do(t, http.MethodPost, "/api/v1/users/"+aliceID.String()+"/subscribe", bobToken, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/users/"+bobID.String()+"/subscribe", bobToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/subscriptions", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)

	w = env.do(t, http.MethodGet, "/api/v1/subscriptions", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)
}

func TestShoppingListDownload(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.register(t, "alice")
	flourID := env.seedIngredient(t, "flour", "g")
	milkID := env.seedIngredient(t, "milk", "ml")

	pancakes := createRecipe(t, env, token, recipeBody("pancakes",
		gin.H{"id": flourID, "amount": 200},
		gin.H{"id": milkID, "amount": 500}))
	bread := createRecipe(t, env, token, recipeBody("bread",
		gin.H{"id": flourID, "amount": 300}))

	for _, id := range []uuid.UUID{pancakes, bread} {
		w := env.do(t, http.MethodPost, "/api/v1/recipes/"+id.String()+"/shopping_cart", token, nil)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := env.do(t, http.MethodGet, "/api/v1/shopping-list/download", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "shopping_list.txt")
	assert.Equal(t, "flour (g) — 500\nmilk (ml) — 500\n", w.Body.String())
}

func TestShortLinkRedirect(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.register(t, "alice")
	flourID := env.seedIngredient(t, "flour", "g")

	w := env.do(t, http.MethodPost, "/api/v1/recipes", token,
		recipeBody("pancakes", gin.H{"id": flourID, "amount": 200}))
	require.Equal(t, http.StatusCreated, w.Code)
	var view struct {
		ID        uuid.UUID `json:"id"`
		ShortLink string    `json:"short_link"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))

	w = env.do(t, http.MethodGet, "/s/"+view.ShortLink, "", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/api/v1/recipes/"+view.ID.String(), w.Header().Get("Location"))

	w = env.do(t, http.MethodGet, "/s/unknown-token", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIngredientEndpoints(t *testing.T) {
	env := newTestEnv(t)
	flourID := env.seedIngredient(t, "flour", "g")
	env.seedIngredient(t, "milk", "ml")

	w := env.do(t, http.MethodGet, "/api/v1/ingredients?name=fl", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Ingredient
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "flour", list[0].Name)

	w = env.do(t, http.MethodGet, "/api/v1/ingredients/"+flourID.String(), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/ingredients/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
