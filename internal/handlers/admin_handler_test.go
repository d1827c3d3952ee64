package handlers_test

import (
	"encoding/csv"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go_course_progress/internal/handlers"
	"go_course_progress/internal/model"
	"go_course_progress/internal/service"
	svc_mocks "go_course_progress/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAdminHandler_ResetProgress(t *testing.T) {
	adminID := uuid.New()
	target := uuid.New()

	tests := []struct {
		name           string
		params         map[string]string
		setupMock      func(m *svc_mocks.ProgressService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "正常系: 削除件数を返す",
			params: map[string]string{"user_id": target.String(), "course_id": "1"},
			setupMock: func(m *svc_mocks.ProgressService) {
				m.On("ResetCourse", mock.Anything, target, uint(1)).Return(int64(3), nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"deleted":3}`,
		},
		{
			name:           "異常系: user_id が UUID でない",
			params:         map[string]string{"user_id": "not-a-uuid", "course_id": "1"},
			setupMock:      func(m *svc_mocks.ProgressService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "異常系: サービスエラー",
			params: map[string]string{"user_id": target.String(), "course_id": "1"},
			setupMock: func(m *svc_mocks.ProgressService) {
				m.On("ResetCourse", mock.Anything, target, uint(1)).Return(int64(0), errors.New("db down")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			progressMock := new(svc_mocks.ProgressService)
			handler := handlers.NewAdminHandler(progressMock, new(svc_mocks.DashboardService))
			tt.setupMock(progressMock)

			req := newJSONRequest(t, http.MethodDelete, "/", nil).
				WithContext(withRoute(userContext(adminID, model.RoleAdmin), tt.params))
			rr := httptest.NewRecorder()
			handler.ResetProgress(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, rr.Body.String())
			}
			progressMock.AssertExpectations(t)
		})
	}
}

func TestAdminHandler_ListAllProgress(t *testing.T) {
	progressMock := new(svc_mocks.ProgressService)
	handler := handlers.NewAdminHandler(progressMock, new(svc_mocks.DashboardService))
	progressMock.On("ListAll", mock.Anything).Return([]*model.ProgressResponse{
		{UserID: uuid.New(), CourseID: 1, UnitID: 1, Percent: 40, State: model.UnitInProgress},
	}, nil).Once()

	rr := httptest.NewRecorder()
	handler.ListAllProgress(rr, newJSONRequest(t, http.MethodGet, "/", nil).WithContext(userContext(uuid.New(), model.RoleAdmin)))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"percent":40`)
	progressMock.AssertExpectations(t)
}

func TestAdminHandler_Dashboard(t *testing.T) {
	ctx := userContext(uuid.New(), model.RoleAdmin)
	cachedAt := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	freshAt := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)

	t.Run("正常系: cached=true で集計済みを返す", func(t *testing.T) {
		dashMock := new(svc_mocks.DashboardService)
		handler := handlers.NewAdminHandler(new(svc_mocks.ProgressService), dashMock)
		dashMock.On("Cached").Return(&model.DashboardReport{GeneratedAt: cachedAt}, true).Once()

		rr := httptest.NewRecorder()
		handler.Dashboard(rr, newJSONRequest(t, http.MethodGet, "/?cached=true", nil).WithContext(ctx))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "2024-05-01")
		dashMock.AssertNotCalled(t, "Report", mock.Anything)
	})

	t.Run("正常系: キャッシュ未作成なら都度集計", func(t *testing.T) {
		dashMock := new(svc_mocks.DashboardService)
		handler := handlers.NewAdminHandler(new(svc_mocks.ProgressService), dashMock)
		dashMock.On("Cached").Return(nil, false).Once()
		dashMock.On("Report", mock.Anything).Return(&model.DashboardReport{GeneratedAt: freshAt}, nil).Once()

		rr := httptest.NewRecorder()
		handler.Dashboard(rr, newJSONRequest(t, http.MethodGet, "/?cached=true", nil).WithContext(ctx))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "2024-05-02")
		dashMock.AssertExpectations(t)
	})

	t.Run("異常系: 集計失敗は 500", func(t *testing.T) {
		dashMock := new(svc_mocks.DashboardService)
		handler := handlers.NewAdminHandler(new(svc_mocks.ProgressService), dashMock)
		dashMock.On("Report", mock.Anything).
			Return(nil, model.NewAppError("INTERNAL_SERVER_ERROR", "ダッシュボードの集計に失敗しました。", "", model.ErrInternalServer)).Once()

		rr := httptest.NewRecorder()
		handler.Dashboard(rr, newJSONRequest(t, http.MethodGet, "/", nil).WithContext(ctx))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "generated_at")
		dashMock.AssertNotCalled(t, "Cached")
	})
}

func TestAdminHandler_ExportDashboardCSV(t *testing.T) {
	dashMock := new(svc_mocks.DashboardService)
	handler := handlers.NewAdminHandler(new(svc_mocks.ProgressService), dashMock)
	dashMock.On("ExportRows", mock.Anything).Return([][]string{
		{"山田, 太郎", "yamada@example.com", "Go入門", "2", "3", "in_progress", "66.67"},
	}, nil).Once()

	rr := httptest.NewRecorder()
	handler.ExportDashboardCSV(rr, newJSONRequest(t, http.MethodGet, "/", nil).WithContext(userContext(uuid.New(), model.RoleAdmin)))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "course_progress.csv")

	records, err := csv.NewReader(strings.NewReader(rr.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, service.CSVHeader, records[0])
	assert.Equal(t, "山田, 太郎", records[1][0])
	assert.Equal(t, "66.67", records[1][6])
}
