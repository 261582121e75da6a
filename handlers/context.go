package handlers

import (
	"context"

	"reelbase/models"
	"reelbase/services/auth"
)

type contextKey string

const claimsKey contextKey = "authClaims"

// WithClaims stores verified token claims on the request context.
func WithClaims(ctx context.Context, claims auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFrom returns the verified claims stored by the auth middleware.
func ClaimsFrom(ctx context.Context) (auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(auth.Claims)
	return claims, ok
}

// IsAdmin reports whether the request was made by an admin.
func IsAdmin(ctx context.Context) bool {
	claims, ok := ClaimsFrom(ctx)
	return ok && claims.Role == string(models.RoleAdmin)
}
