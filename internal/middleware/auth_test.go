// internal/middleware/auth_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/dealboard/dealboard-backend/internal/models"
	"github.com/dealboard/dealboard-backend/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append(mw, func(c *gin.Context) {
		userType, _ := c.Get("user_type")
		c.JSON(http.StatusOK, gin.H{"user_type": userType})
	})
	r.GET("/protected", handlers...)
	return r
}

func requestWithToken(t *testing.T, r *gin.Engine, userType models.UserType) *httptest.ResponseRecorder {
	t.Helper()

	token, err := utils.GenerateJWT(uuid.New(), "tester", string(userType), 1)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	r := protectedRouter(AuthRequired())

	t.Run("missing header is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Basic abc123")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token passes", func(t *testing.T) {
		w := requestWithToken(t, r, models.UserTypeShopper)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), string(models.UserTypeShopper))
	})
}

func TestContributorRequired(t *testing.T) {
	r := protectedRouter(AuthRequired(), ContributorRequired())

	t.Run("shopper is forbidden", func(t *testing.T) {
		w := requestWithToken(t, r, models.UserTypeShopper)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("contributor passes", func(t *testing.T) {
		w := requestWithToken(t, r, models.UserTypeContributor)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("admin passes", func(t *testing.T) {
		w := requestWithToken(t, r, models.UserTypeAdmin)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAdminRequired(t *testing.T) {
	r := protectedRouter(AuthRequired(), AdminRequired())

	t.Run("contributor is forbidden", func(t *testing.T) {
		w := requestWithToken(t, r, models.UserTypeContributor)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin passes", func(t *testing.T) {
		w := requestWithToken(t, r, models.UserTypeAdmin)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestOptionalAuth(t *testing.T) {
	r := protectedRouter(OptionalAuth())

	t.Run("anonymous request still passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("valid token sets identity", func(t *testing.T) {
		w := requestWithToken(t, r, models.UserTypeContributor)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), string(models.UserTypeContributor))
	})
}
