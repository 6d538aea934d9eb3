package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify(t *testing.T) {
	m := NewManager("secret", "afuchat-identity")

	token, err := m.Generate(Claims{UserID: "u1", Email: "ada@example.com"}, time.Hour)
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Identity())
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "afuchat-identity", claims.Issuer)
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := NewManager("secret", "test")

	token, err := m.Generate(Claims{UserID: "u1"}, -time.Minute)
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewManager("secret", "test").Generate(Claims{UserID: "u1"}, time.Hour)
	require.NoError(t, err)

	_, err = NewManager("other", "test").Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsMissingExpiry(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "u1"}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewManager("secret", "test").Verify(token)
	assert.Error(t, err)
}

func TestIdentityFallsBackToSubject(t *testing.T) {
	m := NewManager("secret", "test")

	token, err := m.Generate(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "sub-1"}}, time.Hour)
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "sub-1", claims.Identity())
}
