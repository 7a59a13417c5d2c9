package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/iho/gowallet/internal/infrastructure/auth"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// AccountContextKey is the context key for the authenticated account's claims
	AccountContextKey ContextKey = "account"
)

// TokenVerifier checks bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// AuthRecorder counts authentication outcomes.
type AuthRecorder interface {
	AuthAttempt(status string)
}

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware(verifier TokenVerifier, rec AuthRecorder) func(http.Handler) http.Handler {
	record := func(status string) {
		if rec != nil {
			rec.AuthAttempt(status)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				record("missing")
				writeMessage(w, http.StatusUnauthorized, "Unauthenticated.")
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				record("invalid")
				writeMessage(w, http.StatusUnauthorized, "Unauthenticated.")
				return
			}

			record("ok")
			ctx := context.WithValue(r.Context(), AccountContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// ClaimsFromContext returns the claims set by AuthMiddleware.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(AccountContextKey).(*auth.Claims)
	return claims, ok
}

// AccountIDFromContext returns the authenticated account id.
func AccountIDFromContext(ctx context.Context) (int64, bool) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return 0, false
	}
	return claims.AccountID, true
}

// WithClaims stores claims the way AuthMiddleware does. Used by handler tests.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, AccountContextKey, claims)
}
