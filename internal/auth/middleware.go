package auth

import (
	"context"
	"strings"
)

// Define a custom type for context keys
type contextKey string

const (
	// ClaimsContextKey is the key used to store verified token claims in the context
	ClaimsContextKey contextKey = "claims"
)

type AuthMiddleware struct {
	tokens *TokenManager
}

func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
	}
}

// AuthenticationMiddleware verifies the token carried in an Authorization
// header value. An empty header leaves the request anonymous; a token that
// fails verification is an error.
func (m *AuthMiddleware) AuthenticationMiddleware(ctx context.Context, authorization string) (context.Context, error) {
	token := extractToken(authorization)
	if token == "" {
		return ctx, nil
	}

	claims, err := m.tokens.Verify(token)
	if err != nil {
		return ctx, err
	}

	return WithClaims(ctx, claims), nil
}

func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsContextKey, claims)
}

// ClaimsFromContext returns the claims of the authenticated caller.
func ClaimsFromContext(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	if !ok || claims == nil {
		return nil, ErrNotAuthenticated
	}
	return claims, nil
}

// extractToken accepts both a bare token and "Bearer <token>".
func extractToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}
