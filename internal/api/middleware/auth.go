package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/GeigerTiger55/messagely/internal/apperr"
	"github.com/GeigerTiger55/messagely/internal/token"
)

type contextKey string

const callerContextKey contextKey = "caller"

// Authenticator resolves the caller's identity from a bearer token before
// route-specific logic runs.
type Authenticator struct {
	tokens *token.Service
}

// NewAuthenticator creates an Authenticator around the token service.
func NewAuthenticator(tokens *token.Service) *Authenticator {
	return &Authenticator{tokens: tokens}
}

// Authenticate runs on every request. Tokens travel in the standard
// "Authorization: Bearer <token>" header; that is the one canonical
// transport for this deployment. No header means the request proceeds
// anonymously so unauthenticated routes stay reachable. A present but
// invalid token is always fatal, never downgraded to anonymous.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			unauthorized(w, "malformed authorization header")
			return
		}

		username, err := a.tokens.Verify(raw)
		if err != nil {
			unauthorized(w, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), callerContextKey, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects requests with no resolved caller identity.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CallerFromContext(r.Context()) == "" {
			unauthorized(w, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser rejects requests whose caller identity differs from the
// {username} URL parameter. Implies RequireAuth. The ownership check runs
// before any existence check, so a stranger probing another user's routes
// always sees 401, never 404.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := CallerFromContext(r.Context())
		if caller == "" || caller != chi.URLParam(r, "username") {
			unauthorized(w, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CallerFromContext retrieves the authenticated username from the request
// context, or "" for anonymous requests.
func CallerFromContext(ctx context.Context) string {
	caller, _ := ctx.Value(callerContextKey).(string)
	return caller
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]*apperr.Error{
		"error": apperr.Unauthorized(message),
	})
}
