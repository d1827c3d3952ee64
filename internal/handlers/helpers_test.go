package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"go_course_progress/internal/catalog"
	"go_course_progress/internal/middleware"
	"go_course_progress/internal/model"
	"go_course_progress/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// testCatalog はユニット3つのコース1と、ユニット1つのコース2
func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]model.Course{
		{ID: 1, Title: "Go入門", Units: []model.Unit{{ID: 1, Title: "基礎"}, {ID: 2, Title: "並行処理"}, {ID: 3, Title: "テスト"}}},
		{ID: 2, Title: "SQL入門", Units: []model.Unit{{ID: 1, Title: "SELECT"}}},
	})
	require.NoError(t, err)
	return c
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newJSONRequest はボディを JSON にしてリクエストを作る。文字列はそのまま送る
func newJSONRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var reqBody io.Reader
	if body != nil {
		if s, ok := body.(string); ok {
			reqBody = strings.NewReader(s)
		} else {
			data, err := json.Marshal(body)
			require.NoError(t, err)
			reqBody = bytes.NewBuffer(data)
		}
	}
	req, err := http.NewRequest(method, target, reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// withRoute は chi の RouteContext にパスパラメータを入れる
func withRoute(ctx context.Context, params map[string]string) context.Context {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return context.WithValue(ctx, chi.RouteCtxKey, rctx)
}

// userContext は認証済みユーザーを持つコンテキスト
func userContext(userID uuid.UUID, role string) context.Context {
	ctx := middleware.WithLogger(context.Background(), discardLogger())
	ctx = context.WithValue(ctx, model.UserIDKey, userID)
	return context.WithValue(ctx, model.UserRoleKey, role)
}

func decodeError(t *testing.T, body []byte) model.ErrorDetail {
	t.Helper()
	var resp model.APIErrorResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp.Error
}

func testCtx() context.Context {
	return middleware.WithLogger(context.Background(), discardLogger())
}
