/*
middleware.go - Bearer-token authentication

PURPOSE:
  Stamps every request with an actor identity for the audit trail and
  restricts the admin surface to the admin role. Tokens are HS256 JWTs;
  the subject claim becomes the actor recorded on closures, folios and
  override log entries.

DEV MODE:
  With an empty secret the auth layer is disabled: the actor falls back
  to the X-Operator header or "front-desk". Handy for local demos,
  never for production.

SEE ALSO:
  - handlers.go: actorFrom() consumers
  - config/config.go: JWT_SECRET
*/
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	actorKey contextKey = "actor"
	roleKey  contextKey = "role"
)

// RoleAdmin is the role claim required for the admin surface.
const RoleAdmin = "admin"

// authClaims is the expected token payload.
type authClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Auth validates the Bearer token and stores actor and role on the
// request context. An empty secret disables validation entirely.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r.WithContext(
					context.WithValue(r.Context(), actorKey, devActor(r))))
				return
			}

			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "Missing bearer token", nil)
				return
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			claims := &authClaims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				writeError(w, http.StatusUnauthorized, "Invalid token", err)
				return
			}

			ctx := context.WithValue(r.Context(), actorKey, claims.Subject)
			ctx = context.WithValue(ctx, roleKey, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose token lacks the given role.
// A no-op when auth is disabled.
func RequireRole(secret, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}
			if got, _ := r.Context().Value(roleKey).(string); got != role {
				writeError(w, http.StatusForbidden, "Requires "+role+" role", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// actorFrom returns the authenticated actor for the audit trail.
func actorFrom(r *http.Request) string {
	if actor, _ := r.Context().Value(actorKey).(string); actor != "" {
		return actor
	}
	return devActor(r)
}

func devActor(r *http.Request) string {
	if op := r.Header.Get("X-Operator"); op != "" {
		return op
	}
	return "front-desk"
}
