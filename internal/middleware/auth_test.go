package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"resume-smart-go/internal/apperror"
	"resume-smart-go/internal/model"
	"resume-smart-go/internal/service"
	"resume-smart-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUsers struct {
	service.UserService
	revoked map[string]bool
}

func (s *stubUsers) IsTokenRevoked(ctx context.Context, tokenString string) (bool, error) {
	return s.revoked[tokenString], nil
}

func (s *stubUsers) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	if userID != "u1" {
		return nil, apperror.NotFound("user not found")
	}
	return &model.User{UserID: "u1", Username: "ada"}, nil
}

func newAuthRouter(jwt *token.JWTManager, users *stubUsers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(jwt, users), func(c *gin.Context) {
		user := c.MustGet(ContextUserKey).(*model.User)
		c.String(http.StatusOK, user.UserID)
	})
	return r
}

func call(r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	jwt := token.NewJWTManager("test-secret", 1, 1)
	users := &stubUsers{revoked: map[string]bool{}}
	r := newAuthRouter(jwt, users)

	access, err := jwt.GenerateToken("u1", "ada")
	require.NoError(t, err)
	refresh, err := jwt.GenerateRefreshToken("u1", "ada")
	require.NoError(t, err)
	ghost, err := jwt.GenerateToken("ghost", "ghost")
	require.NoError(t, err)

	w := call(r, "Bearer "+access)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, call(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, access).Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, "Bearer not-a-jwt").Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, "Bearer "+refresh).Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, "Bearer "+ghost).Code)

	users.revoked[access] = true
	assert.Equal(t, http.StatusUnauthorized, call(r, "Bearer "+access).Code)
}
