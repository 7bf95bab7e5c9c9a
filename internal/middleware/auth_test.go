package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/foodgram/backend/internal/types"
)

type stubValidator struct {
	claims *types.TokenClaims
	err    error
}

func (s *stubValidator) ValidateToken(token string) (*types.TokenClaims, error) {
	return s.claims, s.err
}

func runWithAuth(t *testing.T, handler gin.HandlerFunc, header string) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	engine := gin.New()

	var captured *gin.Context
	engine.GET("/protected", handler, func(c *gin.Context) {
		captured = c
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	engine.ServeHTTP(w, req)
	return w, captured
}

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.New()
	valid := &stubValidator{claims: &types.TokenClaims{UserID: userID, Username: "alice"}}
	invalid := &stubValidator{err: errors.New("bad token")}

	w, c := runWithAuth(t, AuthMiddleware(valid), "Bearer token")
	assert.Equal(t, http.StatusOK, w.Code)
	got, _ := c.Get("user_id")
	assert.Equal(t, userID, got)

	w, _ = runWithAuth(t, AuthMiddleware(valid), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = runWithAuth(t, AuthMiddleware(valid), "NotBearer token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = runWithAuth(t, AuthMiddleware(invalid), "Bearer token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalAuthMiddleware(t *testing.T) {
	userID := uuid.New()
	valid := &stubValidator{claims: &types.TokenClaims{UserID: userID, Username: "alice"}}
	invalid := &stubValidator{err: errors.New("bad token")}

	w, c := runWithAuth(t, OptionalAuthMiddleware(valid), "Bearer token")
	assert.Equal(t, http.StatusOK, w.Code)
	got, _ := c.Get("user_id")
	assert.Equal(t, userID, got)

	// missing or invalid tokens never block the request
	w, c = runWithAuth(t, OptionalAuthMiddleware(valid), "")
	assert.Equal(t, http.StatusOK, w.Code)
	_, exists := c.Get("user_id")
	assert.False(t, exists)

	w, c = runWithAuth(t, OptionalAuthMiddleware(invalid), "Bearer token")
	assert.Equal(t, http.StatusOK, w.Code)
	_, exists = c.Get("user_id")
	assert.False(t, exists)
}
