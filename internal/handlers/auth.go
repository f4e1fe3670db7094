package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/luxeshopapp/luxeshop/internal/auth"
)

type principalContextKey struct{}

func withPrincipal(ctx context.Context, principal *auth.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

func principalFromContext(ctx context.Context) *auth.Principal {
	principal, _ := ctx.Value(principalContextKey{}).(*auth.Principal)
	return principal
}

// RequireAuth verifies the bearer token and stores the principal in context.
func (h *Handlers) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			h.writeErrorMessage(w, r, http.StatusUnauthorized, "authentication required")
			return
		}

		principal, err := h.tokens.Verify(token)
		if err != nil {
			h.loggerFromContext(r.Context()).Warn("rejected invalid token", "error", err)
			h.writeErrorMessage(w, r, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), principal)))
	})
}

// RequireAdmin gates admin routes on the token's admin claim. It must run
// after RequireAuth.
func (h *Handlers) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := principalFromContext(r.Context())
		if principal == nil {
			h.writeErrorMessage(w, r, http.StatusUnauthorized, "authentication required")
			return
		}
		if !principal.Admin {
			h.writeErrorMessage(w, r, http.StatusForbidden, "admin access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
