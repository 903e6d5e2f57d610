package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	t.Parallel()
	a := NewAuthenticator("secret", time.Hour)

	token, err := a.GenerateJWT("INS_1", RoleInstructor)
	require.NoError(t, err)

	claims, err := a.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "INS_1", claims.UserID)
	assert.Equal(t, RoleInstructor, claims.Role)
}

func TestValidateJWT_Rejects(t *testing.T) {
	t.Parallel()
	a := NewAuthenticator("secret", time.Hour)
	other, err := NewAuthenticator("other", time.Hour).GenerateJWT("u", RoleAdmin)
	require.NoError(t, err)
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID:           "u",
		Role:             RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": other,
		"expired":      expired,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := a.ValidateJWT(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
