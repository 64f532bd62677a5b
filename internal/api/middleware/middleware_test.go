package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatewayAuth_SetsOperatorAndRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	var operator, role string
	var hasRole bool
	router.GET("/who", GatewayAuth(), func(c *gin.Context) {
		operator, _ = GetUserIDFromGateway(c)
		role, hasRole = GetUserRoleFromGateway(c)
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set("X-User-ID", "stage-left")
	req.Header.Set("X-User-Role", "engineer")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "stage-left", operator)
	assert.True(t, hasRole)
	assert.Equal(t, "engineer", role)
}

func TestGatewayAuth_MissingUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/who", GatewayAuth(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/who", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetUserRoleFromGateway_NoAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := GetUserRoleFromGateway(c)
	assert.False(t, ok)
}
