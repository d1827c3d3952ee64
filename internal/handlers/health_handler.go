package handlers

import (
	"context"
	"net/http"
	"time"

	"go_course_progress/internal/config"
	"go_course_progress/internal/middleware"
	"go_course_progress/internal/webutil"

	"gorm.io/gorm"
)

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health は DB に ping して結果を返す
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		logger.Error("Health check failed", "error", err)
		webutil.RespondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"app":     config.AppName,
		"version": config.AppVersion,
	})
}
