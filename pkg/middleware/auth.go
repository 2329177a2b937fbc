package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/Navau/teslo-shop-nest/pkg/errors"
)

type contextKeyType string

const principalKey contextKeyType = "principal"

// Principal is the authenticated identity resolved by the Auth middleware and
// injected into the request context for downstream handlers and guards.
type Principal struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	FullName string   `json:"fullName"`
	Roles    []string `json:"roles"`
}

// HasRole reports whether the principal carries the given role label.
func (p *Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// TokenVerifier resolves a bearer token into a Principal. Implementations are
// expected to re-check the credential store on every call, so revoked or
// deactivated users are rejected even while their token is still
// cryptographically valid.
type TokenVerifier func(ctx context.Context, token string) (*Principal, error)

// Auth middleware extracts the bearer token from the Authorization header,
// resolves it through the given verifier, and injects the Principal into the
// request context. Every failure terminates the request with 401.
func Auth(verify TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, "no credentials provided")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeAuthError(w, "no credentials provided")
				return
			}

			principal, err := verify(r.Context(), parts[1])
			if err != nil {
				var appErr *apperrors.AppError
				if errors.As(err, &appErr) && appErr.Status == http.StatusUnauthorized {
					writeAuthError(w, appErr.Message)
					return
				}
				writeAuthError(w, "token not valid")
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles is the authorization guard. It must be mounted after Auth: a
// missing principal at this stage is a pipeline-ordering bug and is answered
// with 400 rather than an auth failure. An empty role list allows any
// authenticated principal; otherwise the principal needs at least one of the
// listed roles.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := PrincipalFromContext(r.Context())
			if principal == nil {
				writeJSONError(w, http.StatusBadRequest, "BAD_REQUEST", "user not found in request")
				return
			}

			if len(roles) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			for _, role := range roles {
				if principal.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeJSONError(w, http.StatusForbidden, "FORBIDDEN",
				fmt.Sprintf("user %s needs a valid role: [%s]", principal.FullName, strings.Join(roles, ", ")))
		})
	}
}

// PrincipalFromContext extracts the authenticated principal from the request
// context, or nil if the Auth middleware did not run.
func PrincipalFromContext(ctx context.Context) *Principal {
	if p, ok := ctx.Value(principalKey).(*Principal); ok {
		return p
	}
	return nil
}

// WithPrincipal returns a context carrying the given principal. Exposed for
// tests and non-HTTP call sites.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// UserIDFromContext returns the authenticated principal's id, or "".
func UserIDFromContext(ctx context.Context) string {
	if p := PrincipalFromContext(ctx); p != nil {
		return p.ID
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, message string) {
	writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    code,
		"message": message,
	})
}
