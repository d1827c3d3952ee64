// internal/middleware/dev_auth.go
package middleware

import (
	"net/http"

	"go_course_progress/internal/model"
	"go_course_progress/internal/webutil"

	"github.com/google/uuid"
)

// DevUserContextMiddleware は開発時用 (auth.enabled=false)。
// X-User-ID ヘッダーのUUIDと X-User-Role ヘッダーのロールをそのままコンテキストに入れる
func DevUserContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := GetLogger(r.Context())

		raw := r.Header.Get("X-User-ID")
		if raw == "" {
			logger.Warn("[DEV AUTH] X-User-ID header missing")
			webutil.RespondWithError(w, http.StatusUnauthorized, "[DEV] Unauthorized: Missing X-User-ID header")
			return
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			logger.Warn("[DEV AUTH] Invalid X-User-ID format", "value", raw)
			webutil.RespondWithError(w, http.StatusUnauthorized, "[DEV] Unauthorized: Invalid X-User-ID format")
			return
		}
		role := r.Header.Get("X-User-Role")
		if role != model.RoleAdmin {
			role = model.RoleLearner
		}

		logger.Debug("[DEV AUTH] User set to context (no validation)", "user_id", userID, "role", role)
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), userID, role)))
	})
}
