package middleware

import (
	"net/http"

	"playground-checkin/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// TokenPassthrough stashes the caller's Authorization header in the request
// context. The scanner treats tokens as opaque: they are never validated
// here, only forwarded to the booking backend on status lookups.
func TokenPassthrough() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := r.Header.Get("Authorization"); token != "" {
				r = r.WithContext(utils.SetTokenContext(r.Context(), token))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OperatorKey guards back-office routes with a shared key, checked against
// a bcrypt hash from config. An empty hash disables the check (development
// setups).
func OperatorKey(keyHash string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if keyHash == "" {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("X-Operator-Key")
			if key == "" {
				utils.ResponseUnauthorized(w, "Missing operator key")
				return
			}

			if err := bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(key)); err != nil {
				logger.Warn("Operator key rejected",
					zap.String("path", r.URL.Path),
					zap.String("ip", r.RemoteAddr),
				)
				utils.ResponseForbidden(w, "Invalid operator key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
