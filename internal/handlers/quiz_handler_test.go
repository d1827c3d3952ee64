package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go_course_progress/internal/handlers"
	"go_course_progress/internal/model"
	svc_mocks "go_course_progress/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestQuizHandler_SubmitAttempt(t *testing.T) {
	userID := uuid.New()
	params := map[string]string{"course_id": "1", "unit_id": "2"}
	key := model.UnitKey{UserID: userID, CourseID: 1, UnitID: 2}
	questions := []map[string]interface{}{
		{"question": "Q1", "options": []string{"a", "b"}, "answer": 2},
	}

	tests := []struct {
		name           string
		body           interface{}
		setupMock      func(m *svc_mocks.QuizService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "正常系: 合格",
			body: map[string]interface{}{"questions": questions, "answers": []interface{}{1}},
			setupMock: func(m *svc_mocks.QuizService) {
				m.On("Submit", mock.Anything, key, mock.MatchedBy(func(req *model.SubmitQuizRequest) bool {
					return len(req.Answers) == 1 && req.Answers[0] != nil && *req.Answers[0] == 1
				})).Return(&model.SubmitQuizResponse{
					Result:   model.QuizResult{Correct: 1, Total: 1, Score: 100, Passed: true, Threshold: 70},
					Progress: &model.ProgressResponse{UserID: userID, CourseID: 1, UnitID: 2, Percent: 100, Completed: true, State: model.UnitCompleted},
				}, nil).Once()
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"passed":true`,
		},
		{
			name: "正常系: 未回答は null",
			body: map[string]interface{}{"questions": questions, "answers": []interface{}{nil}},
			setupMock: func(m *svc_mocks.QuizService) {
				m.On("Submit", mock.Anything, key, mock.MatchedBy(func(req *model.SubmitQuizRequest) bool {
					return len(req.Answers) == 1 && req.Answers[0] == nil
				})).Return(&model.SubmitQuizResponse{
					Result:   model.QuizResult{Correct: 0, Total: 1, Score: 0, Passed: false, Threshold: 70},
					Progress: &model.ProgressResponse{UserID: userID, CourseID: 1, UnitID: 2, Percent: 95, State: model.UnitAwaitingQuiz},
				}, nil).Once()
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"passed":false`,
		},
		{
			name:           "異常系: 設問なし",
			body:           map[string]interface{}{"questions": []interface{}{}, "answers": []interface{}{}},
			setupMock:      func(m *svc_mocks.QuizService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "VALIDATION_ERROR",
		},
		{
			name: "異常系: 選択肢が1つ",
			body: map[string]interface{}{
				"questions": []map[string]interface{}{{"question": "Q1", "options": []string{"a"}, "answer": 1}},
				"answers":   []interface{}{0},
			},
			setupMock:      func(m *svc_mocks.QuizService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "VALIDATION_ERROR",
		},
		{
			name: "異常系: 回答数が合わない",
			body: map[string]interface{}{"questions": questions, "answers": []interface{}{0, 1}},
			setupMock: func(m *svc_mocks.QuizService) {
				m.On("Submit", mock.Anything, key, mock.Anything).
					Return(nil, model.NewAppError("INVALID_QUIZ_ANSWERS", "回答の数が設問の数と一致しません。", "answers", model.ErrInvalidInput)).Once()
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "INVALID_QUIZ_ANSWERS",
		},
		{
			name:           "異常系: 未知のフィールド",
			body:           map[string]interface{}{"questions": questions, "answers": []interface{}{1}, "score": 100},
			setupMock:      func(m *svc_mocks.QuizService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "INVALID_BODY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(svc_mocks.QuizService)
			handler := handlers.NewQuizHandler(mockService)
			tt.setupMock(mockService)

			req := newJSONRequest(t, http.MethodPost, "/", tt.body)
			req = req.WithContext(withRoute(userContext(userID, model.RoleLearner), params))
			rr := httptest.NewRecorder()
			handler.SubmitAttempt(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}

func TestQuizHandler_ListAttempts(t *testing.T) {
	userID := uuid.New()
	key := model.UnitKey{UserID: userID, CourseID: 1, UnitID: 2}

	t.Run("正常系: 履歴なしは空配列", func(t *testing.T) {
		mockService := new(svc_mocks.QuizService)
		handler := handlers.NewQuizHandler(mockService)
		mockService.On("ListAttempts", mock.Anything, key).Return(nil, nil).Once()

		req := newJSONRequest(t, http.MethodGet, "/", nil)
		req = req.WithContext(withRoute(userContext(userID, model.RoleLearner), map[string]string{"course_id": "1", "unit_id": "2"}))
		rr := httptest.NewRecorder()
		handler.ListAttempts(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[]`, rr.Body.String())
		mockService.AssertExpectations(t)
	})

	t.Run("異常系: unit_id が0", func(t *testing.T) {
		mockService := new(svc_mocks.QuizService)
		handler := handlers.NewQuizHandler(mockService)

		req := newJSONRequest(t, http.MethodGet, "/", nil)
		req = req.WithContext(withRoute(userContext(userID, model.RoleLearner), map[string]string{"course_id": "1", "unit_id": "0"}))
		rr := httptest.NewRecorder()
		handler.ListAttempts(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "unit_id", decodeError(t, rr.Body.Bytes()).Field)
	})
}
