package middleware

import (
	"net/http"
	"strings"

	"github.com/techvault/skoop/internal/log"
)

// AuthConfig maps API keys to the user IDs they authenticate.
type AuthConfig struct {
	users map[string]string
}

// NewAuthConfig creates an AuthConfig. Blank keys and users are ignored.
func NewAuthConfig(keys map[string]string) AuthConfig {
	users := make(map[string]string, len(keys))
	for k, u := range keys {
		k, u = strings.TrimSpace(k), strings.TrimSpace(u)
		if k != "" && u != "" {
			users[k] = u
		}
	}
	return AuthConfig{users: users}
}

// Lookup returns the user for key.
func (c AuthConfig) Lookup(key string) (string, bool) {
	user, ok := c.users[key]
	return user, ok
}

// Len returns the number of configured keys.
func (c AuthConfig) Len() int { return len(c.users) }

// RequireUser rejects requests without a known API key and stores the
// authenticated user ID in the request context. The key is read from the
// X-API-KEY header, or from an Authorization bearer token.
func RequireUser(config AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := config.Lookup(apiKey(r))
			if !ok {
				WriteJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
				return
			}
			next.ServeHTTP(w, r.WithContext(log.WithUserID(r.Context(), user)))
		})
	}
}

func apiKey(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get("X-API-KEY")); key != "" {
		return key
	}
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if found && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

// UserID returns the user authenticated by RequireUser, or "".
func UserID(r *http.Request) string {
	return log.UserID(r.Context())
}
