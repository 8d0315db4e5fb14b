package middleware

import (
	apperrors "beacon-api/internal/errors"
	"beacon-api/internal/models"
	"beacon-api/internal/services"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

// AdminAuth guards admin routes: throttle by caller IP, then validate the
// bearer token against the expected class.
func AdminAuth(authService services.AuthService, class models.TokenClass) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bearer := r.Header.Get("Authorization")
			if bearer == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			identity, err := authService.Authenticate(r.Context(), ClientIP(r), bearer, class)
			if err != nil {
				switch err {
				case apperrors.ErrTooManyAttempts:
					retryAfter := int(authService.RetryAfter().Seconds())
					w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
					http.Error(w, "Too many failed attempts", http.StatusTooManyRequests)
				case apperrors.ErrWrongTokenClass:
					http.Error(w, "Wrong token class for this endpoint", http.StatusForbidden)
				default:
					http.Error(w, "Forbidden", http.StatusForbidden)
				}
				return
			}

			ctx := services.WithTokenContext(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIP extracts the caller IP, preferring the first X-Forwarded-For hop.
// Returns "" when no IP is determinable; absence must never cause rejection.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
