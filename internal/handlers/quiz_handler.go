package handlers

import (
	"net/http"

	"go_course_progress/internal/middleware"
	"go_course_progress/internal/model"
	"go_course_progress/internal/service"
	"go_course_progress/internal/webutil"
)

type QuizHandler struct {
	service service.QuizService
}

func NewQuizHandler(s service.QuizService) *QuizHandler {
	return &QuizHandler{service: s}
}

// SubmitAttempt はサーバー側で採点し、結果と保存後の進捗を返す
func (h *QuizHandler) SubmitAttempt(w http.ResponseWriter, r *http.Request) {
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

	var req model.SubmitQuizRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Invalid quiz submission body", "error", err)
		webutil.HandleError(w, logger, err)
		return
	}

	resp, err := h.service.Submit(r.Context(), model.UnitKey{UserID: userID, CourseID: courseID, UnitID: unitID}, &req)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusCreated, resp)
}

func (h *QuizHandler) ListAttempts(w http.ResponseWriter, r *http.Request) {
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

	attempts, err := h.service.ListAttempts(r.Context(), model.UnitKey{UserID: userID, CourseID: courseID, UnitID: unitID})
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	if attempts == nil {
		attempts = []*model.QuizAttempt{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, attempts)
}
