package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journal-assist-go/internal/model"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	manager := NewJWTManager("test-secret", 2, 7)

	tokenString, err := manager.GenerateToken(42, "alice", model.RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := manager.VerifyToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, model.RoleAdmin, claims.Role)
}

func TestTokenCarriesRolePermissions(t *testing.T) {
	manager := NewJWTManager("test-secret", 2, 7)

	cases := []struct {
		role  string
		perms []string
	}{
		{model.RoleAdmin, []string{model.PermissionUpload, model.PermissionAnalytics, model.PermissionPopular}},
		{model.RoleAnalytics, []string{model.PermissionAnalytics, model.PermissionPopular}},
		{model.RoleUser, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.role, func(t *testing.T) {
			tokenString, err := manager.GenerateToken(1, "bob", tc.role)
			require.NoError(t, err)

			claims, err := manager.VerifyToken(tokenString)
			require.NoError(t, err)
			assert.ElementsMatch(t, tc.perms, claims.Permissions)
		})
	}
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	manager := NewJWTManager("test-secret", 2, 7)
	other := NewJWTManager("another-secret", 2, 7)

	tokenString, err := manager.GenerateToken(1, "alice", model.RoleUser)
	require.NoError(t, err)

	_, err = other.VerifyToken(tokenString)
	assert.Error(t, err)
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	manager := NewJWTManager("test-secret", 2, 7)

	// 直接用负的有效期签发一个已经过期的 token
	tokenString, err := manager.generate(1, "alice", model.RoleUser, -time.Minute)
	require.NoError(t, err)

	_, err = manager.VerifyToken(tokenString)
	assert.Error(t, err)
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	manager := NewJWTManager("test-secret", 2, 7)

	_, err := manager.VerifyToken("not-a-jwt")
	assert.Error(t, err)
}

func TestRefreshTokenOutlivesAccessToken(t *testing.T) {
	manager := NewJWTManager("test-secret", 2, 7)
	assert.Equal(t, 2*time.Hour, manager.AccessTokenDuration())

	refresh, err := manager.GenerateRefreshToken(1, "alice", model.RoleUser)
	require.NoError(t, err)

	claims, err := manager.VerifyToken(refresh)
	require.NoError(t, err)
	assert.Greater(t, time.Until(claims.ExpiresAt.Time), manager.AccessTokenDuration())
}
