package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// RequireRole rejects requests whose authenticated user carries none of
// the allowed roles. It assumes AuthMiddleware already ran.
func RequireRole(allowedRoles []string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetUserRole(r.Context())
			if !ok {
				logger.Warn("Role missing from request context",
					zap.String("path", r.URL.Path),
				)
				respondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			for _, allowed := range allowedRoles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}

			logger.Warn("User role not authorized",
				zap.String("role", role),
				zap.Strings("allowed_roles", allowedRoles),
				zap.String("path", r.URL.Path),
			)
			respondWithError(w, http.StatusForbidden, "insufficient permissions")
		})
	}
}

// RequireAdmin guards admin-only endpoints.
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return RequireRole([]string{"admin"}, logger)
}
