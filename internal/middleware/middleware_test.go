package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-proxy-api/internal/models"
	"github.com/noah-isme/sma-proxy-api/internal/service"
	appErrors "github.com/noah-isme/sma-proxy-api/pkg/errors"
)

type tokenValidatorStub struct {
	claims *models.JWTClaims
}

func (s tokenValidatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, nil
}

func newProtectedRouter(role models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(JWT(tokenValidatorStub{claims: &models.JWTClaims{UserID: "u1", Role: role}}))
	router.GET("/proxies", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/proxies/commit", RequireRoles(models.RoleAdmin, models.RoleSuperAdmin), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	return router
}

func serve(router *gin.Engine, method, path, auth string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	router.ServeHTTP(rec, req)
	return rec
}

func TestJWTMiddleware(t *testing.T) {
	router := newProtectedRouter(models.RoleTeacher)

	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/proxies", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/proxies", "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/proxies", "Bearer bad").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/proxies", "Bearer good").Code)
}

func TestRBACMiddleware(t *testing.T) {
	teacher := newProtectedRouter(models.RoleTeacher)
	assert.Equal(t, http.StatusForbidden, serve(teacher, http.MethodPost, "/proxies/commit", "Bearer good").Code)

	admin := newProtectedRouter(models.RoleAdmin)
	assert.Equal(t, http.StatusCreated, serve(admin, http.MethodPost, "/proxies/commit", "Bearer good").Code)

	gin.SetMode(gin.TestMode)
	anonymous := gin.New()
	anonymous.GET("/x", RBAC(string(models.RoleAdmin)), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusUnauthorized, serve(anonymous, http.MethodGet, "/x", "").Code)
}

func TestMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	router := gin.New()
	router.Use(Metrics(metrics))
	router.GET("/proxies/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, serve(router, http.MethodGet, "/proxies/abc", "").Code)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `path="/proxies/:id"`)
}
