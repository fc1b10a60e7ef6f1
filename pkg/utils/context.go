package utils

import (
	"context"

	"gym-backoffice/pkg/token"
)

type contextKey string

const (
	ClaimsKey contextKey = "claims"
	TokenKey  contextKey = "token"
)

// SetClaimsContext attaches verified token claims and the raw bearer token for downstream handlers.
func SetClaimsContext(ctx context.Context, claims *token.Claims, raw string) context.Context {
	ctx = context.WithValue(ctx, ClaimsKey, claims)
	ctx = context.WithValue(ctx, TokenKey, raw)
	return ctx
}

func GetClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*token.Claims)
	if !ok || claims == nil {
		return nil, false
	}
	return claims, true
}

func GetIdentityIDFromContext(ctx context.Context) (int64, bool) {
	claims, ok := GetClaimsFromContext(ctx)
	if !ok {
		return 0, false
	}
	return claims.IdentityID, true
}

func GetRoleFromContext(ctx context.Context) (string, bool) {
	claims, ok := GetClaimsFromContext(ctx)
	if !ok {
		return "", false
	}
	return claims.Role, true
}

// GetTokenFromContext returns the raw bearer token admitted by the auth middleware
func GetTokenFromContext(ctx context.Context) (string, bool) {
	tokenVal := ctx.Value(TokenKey)
	if tokenVal == nil {
		return "", false
	}

	raw, ok := tokenVal.(string)
	return raw, ok
}
