package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crosspost/infrastructure/utils"
	"crosspost/interfaces/middleware"
)

func newAuthedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("api")
	api.Use(middleware.Auth())
	api.GET("/jobs", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"service": ctx.GetString("service")})
	})
	return router
}

func TestAuth_ValidServiceToken(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")
	token, err := utils.GenerateToken(map[string]interface{}{
		"sub":   "ops-cli",
		"scope": "scheduler",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}, "test-secret")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	newAuthedRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ops-cli")
}

func TestAuth_MissingHeader(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	newAuthedRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_ExpiredToken(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")
	token, err := utils.GenerateToken(map[string]interface{}{
		"sub": "ops-cli",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}, "test-secret")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	newAuthedRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Timing is everything")
}

func TestAuth_WrongKey(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")
	token, err := utils.GenerateToken(map[string]interface{}{
		"sub": "ops-cli",
		"exp": time.Now().Add(time.Hour).Unix(),
	}, "other-secret")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	newAuthedRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
