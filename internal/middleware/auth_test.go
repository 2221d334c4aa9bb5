package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journal-assist-go/internal/model"
	"journal-assist-go/pkg/token"
)

func protectedRouter(manager *token.JWTManager, permission string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	group := r.Group("/", AuthMiddleware(manager))
	if permission != "" {
		group.Use(RequirePermission(permission))
	}
	group.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func perform(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	manager := token.NewJWTManager("test-secret", 2, 7)
	r := protectedRouter(manager, "")

	// 缺少授权头
	assert.Equal(t, http.StatusUnauthorized, perform(r, "").Code)

	// 格式错误
	assert.Equal(t, http.StatusUnauthorized, perform(r, "Token abc").Code)

	// 非法 token
	assert.Equal(t, http.StatusUnauthorized, perform(r, "Bearer not-a-jwt").Code)

	// 合法 token
	tokenString, err := manager.GenerateToken(1, "alice", model.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, perform(r, "Bearer "+tokenString).Code)
}

func TestRequirePermission(t *testing.T) {
	manager := token.NewJWTManager("test-secret", 2, 7)
	r := protectedRouter(manager, model.PermissionUpload)

	adminToken, err := manager.GenerateToken(1, "admin", model.RoleAdmin)
	require.NoError(t, err)
	userToken, err := manager.GenerateToken(2, "bob", model.RoleUser)
	require.NoError(t, err)
	analyticsToken, err := manager.GenerateToken(3, "ana", model.RoleAnalytics)
	require.NoError(t, err)

	// 只有携带 upload 权限的角色可以通过
	assert.Equal(t, http.StatusOK, perform(r, "Bearer "+adminToken).Code)
	assert.Equal(t, http.StatusForbidden, perform(r, "Bearer "+userToken).Code)
	assert.Equal(t, http.StatusForbidden, perform(r, "Bearer "+analyticsToken).Code)
}
