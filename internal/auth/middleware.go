package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// respondError writes a JSON error body, matching the API's error envelope.
func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: message})
}

// SessionAuth returns an HTTP middleware that resolves the opaque session
// token into a TenantContext and stores it in the request context. The token
// is read from the named cookie, with an Authorization: Bearer fallback for
// non-browser clients. Resolution failures map to 401.
func SessionAuth(resolver *Resolver, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r, cookieName)

			tc, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, ErrUnauthenticated):
					respondError(w, http.StatusUnauthorized, "authentication required")
				case errors.Is(err, ErrSessionExpired):
					respondError(w, http.StatusUnauthorized, "session expired")
				default:
					respondError(w, http.StatusInternalServerError, "internal server error")
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithTenantContext(r.Context(), tc)))
		})
	}
}

// tokenFromRequest extracts the session token from the cookie or the
// Authorization header. Returns an empty string if neither is present.
func tokenFromRequest(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
