// Package handlers は HTTP リクエストを解析してサービスを呼び出し、JSON を返す
package handlers

import (
	"net/http"

	"go_course_progress/internal/middleware"
	"go_course_progress/internal/model"
	"go_course_progress/internal/service"
	"go_course_progress/internal/webutil"
)

type ProgressHandler struct {
	service service.ProgressService
}

func NewProgressHandler(s service.ProgressService) *ProgressHandler {
	return &ProgressHandler{service: s}
}

// UpsertUnitProgress は PUT /progress/courses/{course_id}/units/{unit_id}
func (h *ProgressHandler) UpsertUnitProgress(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	courseID, unitID, err := unitParams(r)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	var req model.UpsertProgressRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Invalid progress upsert body", "error", err)
		webutil.HandleError(w, logger, err)
		return
	}

	resp, err := h.service.Upsert(r.Context(), userID, courseID, unitID, &req)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, resp)
}

// GetUnitProgress は GET /progress/courses/{course_id}/units/{unit_id}
func (h *ProgressHandler) GetUnitProgress(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	courseID, unitID, err := unitParams(r)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	resp, err := h.service.Get(r.Context(), model.UnitKey{UserID: userID, CourseID: courseID, UnitID: unitID})
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, resp)
}

// ListMyProgress は GET /progress
func (h *ProgressHandler) ListMyProgress(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	list, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	if list == nil {
		list = []*model.ProgressResponse{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, list)
}

// unitParams はパスの course_id / unit_id を読む
func unitParams(r *http.Request) (uint, uint, error) {
	courseID, err := webutil.URLParamUint(r, "course_id")
	if err != nil {
		return 0, 0, err
	}
	unitID, err := webutil.URLParamUint(r, "unit_id")
	if err != nil {
		return 0, 0, err
	}
	return courseID, unitID, nil
}
