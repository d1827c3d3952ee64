package handlers

import (
	"net/http"
	"strconv"

	"go_course_progress/internal/middleware"
	"go_course_progress/internal/model"
	"go_course_progress/internal/service"
	"go_course_progress/internal/webutil"
)

// AdminHandler は管理者向けのダッシュボードと進捗操作
type AdminHandler struct {
	progress  service.ProgressService
	dashboard service.DashboardService
}

func NewAdminHandler(p service.ProgressService, d service.DashboardService) *AdminHandler {
	return &AdminHandler{progress: p, dashboard: d}
}

// ListAllProgress は GET /admin/progress
func (h *AdminHandler) ListAllProgress(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	list, err := h.progress.ListAll(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	if list == nil {
		list = []*model.ProgressResponse{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, list)
}

// ResetProgress は DELETE /admin/progress/users/{user_id}/courses/{course_id}
func (h *AdminHandler) ResetProgress(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	userID, err := webutil.URLParamUUID(r, "user_id")
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	courseID, err := webutil.URLParamUint(r, "course_id")
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	deleted, err := h.progress.ResetCourse(r.Context(), userID, courseID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

// Dashboard は GET /admin/dashboard。?cached=true なら定期集計の結果を返す
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	if cached, _ := strconv.ParseBool(r.URL.Query().Get("cached")); cached {
		if report, ok := h.dashboard.Cached(); ok {
			webutil.RespondWithJSON(w, http.StatusOK, report)
			return
		}
		logger.Info("Cached dashboard not ready, computing on demand")
	}

	report, err := h.dashboard.Report(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, report)
}

// ExportDashboardCSV は GET /admin/dashboard/export.csv
func (h *AdminHandler) ExportDashboardCSV(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	rows, err := h.dashboard.ExportRows(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	if err := webutil.RespondWithCSV(w, "course_progress.csv", service.CSVHeader, rows); err != nil {
		// ヘッダー送信後なのでステータスは変えられない
		logger.Error("Failed to write CSV response", "error", err)
	}
}
