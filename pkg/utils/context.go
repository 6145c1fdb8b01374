package utils

import (
	"context"
)

type contextKey string

const (
	// TokenKey holds the caller's opaque Authorization value. The scanner
	// never inspects it; it is only forwarded to the booking backend.
	TokenKey contextKey = "token"
)

func SetTokenContext(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, TokenKey, token)
}

func GetTokenFromContext(ctx context.Context) (string, bool) {
	tokenVal := ctx.Value(TokenKey)
	if tokenVal == nil {
		return "", false
	}

	token, ok := tokenVal.(string)
	return token, ok
}
