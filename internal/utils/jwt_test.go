package utils_test

import (
	"testing"
	"time"

	"credexa/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := utils.GenerateJWT(42, "test-secret")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := utils.ParseJWT(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "credexa", claims.Issuer)
}

func TestJWTForeignIssuer(t *testing.T) {
	// A token signed with our secret but minted by another service fails
	// issuer validation
	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, utils.Claims{
		UserID: 42,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "somebody-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	token, err := foreign.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = utils.ParseJWT(token, "test-secret")
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
}

func TestJWTWrongSecret(t *testing.T) {
	token, err := utils.GenerateJWT(42, "test-secret")
	require.NoError(t, err)

	_, err = utils.ParseJWT(token, "other-secret")
	assert.Error(t, err)
}

func TestJWTGarbageToken(t *testing.T) {
	_, err := utils.ParseJWT("not.a.token", "test-secret")
	assert.Error(t, err)
}
