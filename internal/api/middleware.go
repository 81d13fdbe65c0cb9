/**
 * @description
 * This file contains custom middleware for the HTTP router. Authentication
 * happens upstream at the API gateway; by the time a request reaches this
 * service the gateway has already validated the caller and stamped the
 * X-User-ID header with the internal user UUID.
 *
 * @dependencies
 * - context, net/http, strings: Standard Go libraries.
 */

package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// UserIDContextKey is a custom type for the context key to avoid collisions.
type UserIDContextKey string

const userIDKey UserIDContextKey = "userID"

// IdentityMiddleware extracts the gateway-stamped user identity from the
// X-User-ID header and places it in the request context. Requests without a
// valid identity are rejected.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get("X-User-ID"))
		if raw == "" {
			http.Error(w, "X-User-ID header required", http.StatusUnauthorized)
			return
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "Invalid X-User-ID header", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// InternalAuthMiddleware guards service-to-service endpoints (job triggers,
// admin operations) with a shared API key.
func InternalAuthMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := strings.TrimSpace(r.Header.Get("X-Internal-Api-Key"))
			if apiKey == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserID retrieves the authenticated user's UUID from the request context.
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(userIDKey).(uuid.UUID)
	return userID, ok
}
