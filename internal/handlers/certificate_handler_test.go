package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go_course_progress/internal/handlers"
	"go_course_progress/internal/model"
	"go_course_progress/internal/progress"
	svc_mocks "go_course_progress/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCertificateHandler(t *testing.T) {
	userID := uuid.New()
	ctx := withRoute(userContext(userID, model.RoleLearner), map[string]string{"course_id": "1"})

	eligible := &model.CertificateView{
		CertificateEligibility: model.CertificateEligibility{
			UserID: userID, CourseID: 1, Eligible: true, CompletedUnits: 3, TotalUnits: 3, AverageScore: 90,
		},
		LearnerName: "山田",
		CourseTitle: "Go入門",
	}
	ineligible := &model.CertificateView{
		CertificateEligibility: model.CertificateEligibility{
			UserID: userID, CourseID: 1, CompletedUnits: 1, TotalUnits: 3, Reason: progress.ReasonIncompleteUnits,
		},
		CourseTitle: "Go入門",
	}

	t.Run("正常系: 不適格でも GET は 200", func(t *testing.T) {
		mockService := new(svc_mocks.CertificateService)
		handler := handlers.NewCertificateHandler(mockService)
		mockService.On("Get", mock.Anything, userID, uint(1)).Return(ineligible, nil).Once()

		rr := httptest.NewRecorder()
		handler.GetCertificate(rr, newJSONRequest(t, http.MethodGet, "/", nil).WithContext(ctx))

		require.Equal(t, http.StatusOK, rr.Code)
		var view model.CertificateView
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
		assert.False(t, view.Eligible)
		assert.Equal(t, progress.ReasonIncompleteUnits, view.Reason)
		mockService.AssertExpectations(t)
	})

	t.Run("正常系: Claim", func(t *testing.T) {
		mockService := new(svc_mocks.CertificateService)
		handler := handlers.NewCertificateHandler(mockService)
		claimed := *eligible
		claimed.Claimed = true
		mockService.On("Claim", mock.Anything, userID, uint(1)).Return(&claimed, nil).Once()

		rr := httptest.NewRecorder()
		handler.ClaimCertificate(rr, newJSONRequest(t, http.MethodPost, "/", nil).WithContext(ctx))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"claimed":true`)
		mockService.AssertExpectations(t)
	})

	t.Run("異常系: 不適格の Claim は 403", func(t *testing.T) {
		mockService := new(svc_mocks.CertificateService)
		handler := handlers.NewCertificateHandler(mockService)
		mockService.On("Claim", mock.Anything, userID, uint(1)).
			Return(nil, model.NewAppError("CERTIFICATE_NOT_ELIGIBLE", "証明書の発行条件を満たしていません。", progress.ReasonIncompleteUnits, model.ErrNotEligible)).Once()

		rr := httptest.NewRecorder()
		handler.ClaimCertificate(rr, newJSONRequest(t, http.MethodPost, "/", nil).WithContext(ctx))

		assert.Equal(t, http.StatusForbidden, rr.Code)
		detail := decodeError(t, rr.Body.Bytes())
		assert.Equal(t, "CERTIFICATE_NOT_ELIGIBLE", detail.Code)
		assert.Equal(t, progress.ReasonIncompleteUnits, detail.Field)
	})

	t.Run("異常系: コースが存在しない", func(t *testing.T) {
		mockService := new(svc_mocks.CertificateService)
		handler := handlers.NewCertificateHandler(mockService)
		mockService.On("Get", mock.Anything, userID, uint(9)).
			Return(nil, model.NewAppError("COURSE_NOT_FOUND", "コースが見つかりません。", "course_id", model.ErrNotFound)).Once()

		req := newJSONRequest(t, http.MethodGet, "/", nil).
			WithContext(withRoute(userContext(userID, model.RoleLearner), map[string]string{"course_id": "9"}))
		rr := httptest.NewRecorder()
		handler.GetCertificate(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
