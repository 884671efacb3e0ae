package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	a := New("secret")

	token, err := a.GenerateAccessToken("user-1")
	require.NoError(t, err)

	var claims AccessTokenClaims
	require.NoError(t, a.ValidateToken(token, &claims))
	assert.Equal(t, "user-1", claims.UserID)
	assert.True(t, claims.IsAccessToken)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := New("secret").GenerateAccessToken("user-1")
	require.NoError(t, err)

	var claims AccessTokenClaims
	assert.Error(t, New("other").ValidateToken(token, &claims))
}

func TestValidateTokenExpired(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessTokenClaims{
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(-time.Hour).Unix()},
		IsAccessToken:  true,
		UserID:         "user-1",
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	var claims AccessTokenClaims
	assert.Error(t, New("secret").ValidateToken(signed, &claims))
}
