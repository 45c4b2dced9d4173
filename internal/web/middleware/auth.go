package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/timesheet/internal/config"
	"github.com/JonMunkholm/timesheet/internal/logging"
	"github.com/JonMunkholm/timesheet/internal/metrics"
)

// APIKeyHeader carries the API key. "Authorization: Bearer <key>" is
// accepted as well for clients that cannot set custom headers.
const APIKeyHeader = "X-API-Key"

// APIKeyAuth guards the /api routes when cfg.RequireAPIKey is set. A request
// without a key gets 401 AUTH001; a key outside cfg.APIKeys gets 403 AUTH002.
// With no keys configured every request is refused.
func APIKeyAuth(cfg config.SecurityConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !cfg.RequireAPIKey {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := apiKeyFrom(r)
			if key != "" && isValidAPIKey(key, cfg.APIKeys) {
				next.ServeHTTP(w, r)
				return
			}

			reason, status := "missing", http.StatusUnauthorized
			message, action, code := "An API key is required", "Send your key in the "+APIKeyHeader+" header", "AUTH001"
			if key != "" {
				reason, status = "invalid", http.StatusForbidden
				message, action, code = "The API key was not accepted", "Check the key with your administrator", "AUTH002"
			}
			metrics.AuthFailuresTotal.WithLabelValues(reason).Inc()
			logging.FromContext(r.Context(), logger).Warn("api key rejected",
				"reason", reason,
				"method", r.Method,
				"path", r.URL.Path,
				"ip", ClientIP(r),
			)
			writeJSONError(w, status, message, action, code)
		})
	}
}

func apiKeyFrom(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get(APIKeyHeader)); key != "" {
		return key
	}
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// isValidAPIKey compares key against every configured key so the time taken
// does not depend on which one matches.
func isValidAPIKey(key string, validKeys []string) bool {
	valid := 0
	for _, validKey := range validKeys {
		valid |= subtle.ConstantTimeCompare([]byte(key), []byte(validKey))
	}
	return valid == 1
}
