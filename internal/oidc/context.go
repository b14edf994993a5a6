package oidc

import (
	"context"
	"net/http"
	"strings"

	"github.com/ovaphlow/pitchfork/service-puja/pkg/utilities"
)

type ctxKey struct{}

// WithUserID stores the authenticated user id in ctx.
func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// UserIDFrom returns the authenticated user id, if any.
func UserIDFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKey{}).(int64)
	return id, ok && id > 0
}

// AccessTokenParser is satisfied by *OIDCService.
type AccessTokenParser interface {
	ParseAccessToken(token string) (int64, error)
}

// RequireAuth rejects requests without a valid bearer access token.
func RequireAuth(p AccessTokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(strings.ToLower(auth), "bearer ") {
				utilities.WriteError(w, http.StatusUnauthorized, "missing_token")
				return
			}
			id, err := p.ParseAccessToken(strings.TrimSpace(auth[len("bearer "):]))
			if err != nil {
				utilities.WriteError(w, http.StatusUnauthorized, "invalid_token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
		})
	}
}

// OptionalAuth attaches the user id when a valid bearer token is present and
// otherwise passes the request through untouched.
func OptionalAuth(p AccessTokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
				if id, err := p.ParseAccessToken(strings.TrimSpace(auth[len("bearer "):])); err == nil {
					r = r.WithContext(WithUserID(r.Context(), id))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
