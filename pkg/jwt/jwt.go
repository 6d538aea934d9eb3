package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the identity payload issued by the identity provider.
type Claims struct {
	UserID          string `json:"user_id"`
	Email           string `json:"email,omitempty"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
	jwt.RegisteredClaims
}

// Identity returns the user id, falling back to the subject claim.
func (c *Claims) Identity() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// Manager verifies HS256 tokens. Generate exists for tooling and tests;
// production tokens come from the identity provider.
type Manager struct {
	secretKey string
	issuer    string
}

func NewManager(secretKey, issuer string) *Manager {
	return &Manager{
		secretKey: secretKey,
		issuer:    issuer,
	}
}

func (m *Manager) Generate(claims Claims, expiry time.Duration) (string, error) {
	now := time.Now()

	claims.Issuer = m.issuer
	if claims.Subject == "" {
		claims.Subject = claims.UserID
	}
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(expiry))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(m.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// Verify parses and validates a JWT token and returns the Claims if valid.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(m.secretKey), nil
	}, jwt.WithExpirationRequired())

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	if claims.Identity() == "" {
		return nil, errors.New("token has no subject")
	}

	return claims, nil
}
