package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/iscander13/back/pkg/auth"
	"github.com/iscander13/back/pkg/contextkeys"
	"github.com/iscander13/back/pkg/observability"
)

// AuthMiddleware runs on every request: it extracts the bearer token,
// resolves it to a principal and installs that principal into the
// request context. Requests without a token continue anonymously; route
// wiring decides which endpoints then require a principal.
type AuthMiddleware struct {
	resolver *auth.Resolver
	metrics  *observability.Metrics
}

// NewAuthMiddleware creates a new authentication middleware. metrics may
// be nil.
func NewAuthMiddleware(resolver *auth.Resolver, metrics *observability.Metrics) *AuthMiddleware {
	return &AuthMiddleware{
		resolver: resolver,
		metrics:  metrics,
	}
}

// Handler wraps an HTTP handler with token resolution.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Format: "Bearer <token>"
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			next.ServeHTTP(w, r)
			return
		}

		// A principal installed by an earlier stage wins; never overwrite.
		if GetPrincipal(r) != nil {
			next.ServeHTTP(w, r)
			return
		}

		principal, err := m.resolver.Resolve(r.Context(), parts[1])
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				m.countResolution("expired")
				unauthorizedResponse(w, "Token expired")
				return
			}
			m.countResolution("rejected")
			unauthorizedResponse(w, "Invalid token")
			return
		}
		if principal == nil {
			m.countResolution("anonymous")
			next.ServeHTTP(w, r)
			return
		}

		m.countResolution("authenticated")
		ctx := contextkeys.WithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) countResolution(outcome string) {
	if m.metrics != nil {
		m.metrics.TokenResolutionsTotal.WithLabelValues(outcome).Inc()
	}
}

// GetPrincipal extracts the authenticated principal from the request, or
// nil for anonymous requests.
func GetPrincipal(r *http.Request) *auth.Principal {
	ctx := r.Context().Value(contextkeys.PrincipalKey)
	if ctx == nil {
		return nil
	}
	principal, ok := ctx.(*auth.Principal)
	if !ok {
		return nil
	}
	return principal
}

// RequirePrincipal creates middleware that rejects anonymous requests
func RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetPrincipal(r) == nil {
			unauthorizedResponse(w, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin creates middleware that requires an ADMIN or SUPER_ADMIN
// principal
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := GetPrincipal(r)
		if principal == nil {
			unauthorizedResponse(w, "authentication required")
			return
		}
		if !principal.IsAdmin() {
			forbiddenResponse(w, "insufficient role permissions")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorizedResponse(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + message + `"}`))
}

func forbiddenResponse(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
