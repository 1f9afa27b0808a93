package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/zentra/emojimatch/internal/utils"
	"github.com/zentra/emojimatch/pkg/auth"
)

type contextKey string

const claimsKey contextKey = "claims"

// Principal is the authenticated caller attached to a request context
type Principal struct {
	UserID   uuid.UUID
	Username string
	Role     string
}

// BearerToken pulls the token from an "Authorization: Bearer ..." header
func BearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// ParsePrincipal validates a raw token and converts its claims
func ParsePrincipal(token, secret string) (Principal, error) {
	claims, err := auth.ValidateAccessToken(token, secret)
	if err != nil {
		return Principal{}, err
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Principal{}, auth.ErrInvalidToken
	}
	return Principal{UserID: userID, Username: claims.Username, Role: claims.Role}, nil
}

// AuthMiddleware validates JWT tokens and adds the caller to context
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				utils.RespondError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			token, ok := BearerToken(r)
			if !ok {
				utils.RespondError(w, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}

			principal, err := ParsePrincipal(token, secret)
			if err != nil {
				if err == auth.ErrExpiredToken {
					utils.RespondError(w, http.StatusUnauthorized, "Token expired")
				} else {
					utils.RespondError(w, http.StatusUnauthorized, "Invalid token")
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// OptionalAuth attaches the caller when a valid bearer token is present and
// passes anonymous or badly authenticated requests through unchanged. Routes
// that need a caller still enforce it with AuthMiddleware.
func OptionalAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := BearerToken(r); ok {
				if principal, err := ParsePrincipal(token, secret); err == nil {
					r = r.WithContext(WithPrincipal(r.Context(), principal))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole rejects authenticated callers without the given role.
// Must run after AuthMiddleware.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := GetPrincipal(r.Context())
			if !ok {
				utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if principal.Role != role {
				utils.RespondError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, claimsKey, p)
}

// GetPrincipal extracts the caller from context
func GetPrincipal(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(claimsKey).(Principal)
	return p, ok
}
