package middleware

import (
	"context"

	"afusocial/pkg/jwt"
)

// ContextKey type for context keys
type ContextKey string

const (
	UserIDKey ContextKey = "user_id"
	ClaimsKey ContextKey = "claims"
)

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID returns the authenticated user id or "".
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

func WithClaims(ctx context.Context, claims *jwt.Claims) context.Context {
	ctx = context.WithValue(ctx, ClaimsKey, claims)
	return WithUserID(ctx, claims.Identity())
}

func GetClaims(ctx context.Context) *jwt.Claims {
	claims, _ := ctx.Value(ClaimsKey).(*jwt.Claims)
	return claims
}
