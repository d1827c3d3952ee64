package handlers

import (
	"net/http"

	"go_course_progress/internal/middleware"
	"go_course_progress/internal/service"
	"go_course_progress/internal/webutil"
)

type CertificateHandler struct {
	service service.CertificateService
}

func NewCertificateHandler(s service.CertificateService) *CertificateHandler {
	return &CertificateHandler{service: s}
}

// GetCertificate は適格性とレンダリング用データを返す。不適格でも 200
func (h *CertificateHandler) GetCertificate(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	courseID, err := webutil.URLParamUint(r, "course_id")
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	view, err := h.service.Get(r.Context(), userID, courseID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, view)
}

// ClaimCertificate はダウンロード操作。不適格なら 403
func (h *CertificateHandler) ClaimCertificate(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	courseID, err := webutil.URLParamUint(r, "course_id")
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	view, err := h.service.Claim(r.Context(), userID, courseID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, view)
}
