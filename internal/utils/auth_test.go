package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass", 4)

	assert.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)
	assert.True(t, VerifyPassword(hash, "s3cret-pass"))
	assert.False(t, VerifyPassword(hash, "wrong"))
}

func TestGeneratePassword(t *testing.T) {
	a, err := GeneratePassword(12)
	assert.NoError(t, err)
	assert.Len(t, a, 12)

	b, err := GeneratePassword(12)
	assert.NoError(t, err)
	assert.NotEqual(t, a, b)

	// no ambiguous characters
	for _, r := range a + b {
		assert.NotContains(t, "0O1lI", string(r))
	}
}

func TestNewAccessTokenClaims(t *testing.T) {
	org := uint64(3)
	tok, err := NewAccessToken("secret", 7, "CLIENT", &org, 15)
	assert.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), tok.Exp, 5*time.Second)

	parsed, err := jwt.Parse(tok.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	assert.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(7), claims["sub"])
	assert.Equal(t, "CLIENT", claims["role"])
	assert.Equal(t, float64(3), claims["org"])
}

func TestNewAccessTokenWithoutOrg(t *testing.T) {
	tok, err := NewAccessToken("secret", 7, "ADMIN", nil, 15)
	assert.NoError(t, err)

	parsed, err := jwt.Parse(tok.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	assert.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	_, hasOrg := claims["org"]
	assert.False(t, hasOrg)
}

func TestRefreshTokenHashStability(t *testing.T) {
	rt, err := NewRefreshToken(7)
	assert.NoError(t, err)
	assert.Len(t, rt.Raw, 96)

	assert.Equal(t, HashRefreshRaw(rt.Raw), HashRefreshRaw(rt.Raw))
	assert.NotEqual(t, rt.Raw, HashRefreshRaw(rt.Raw))
}
