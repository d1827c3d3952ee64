package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"go_course_progress/internal/catalog"
	"go_course_progress/internal/middleware"
	"go_course_progress/internal/model"
	"go_course_progress/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// --- テストヘルパー関数 (インメモリDBセットアップ) ---
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // テスト中はログを抑制
	})
	require.NoError(t, err, "failed to connect database for service testing")
	require.NoError(t, repository.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func testContext() context.Context {
	return middleware.WithLogger(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))
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

func fixedClock() time.Time {
	return time.Date(2024, 5, 10, 15, 30, 0, 0, time.UTC)
}

func ptrFloat(v float64) *float64 { return &v }
func ptrInt(v int) *int           { return &v }
func ptrUint(v uint) *uint        { return &v }
func ptrString(v string) *string  { return &v }

// twoQuestions は正解が (0 始まりで) 1, 0 の2問
func twoQuestions() []model.QuizQuestion {
	return []model.QuizQuestion{
		{Question: "Q1", Options: []string{"a", "b"}, Answer: 2},
		{Question: "Q2", Options: []string{"a", "b"}, Answer: 1},
	}
}

// recordingNotifier は送信された通知を記録する
type recordingNotifier struct {
	sent []model.CertificateView
}

func (n *recordingNotifier) CertificateUnlocked(_ context.Context, _ model.Learner, view model.CertificateView) error {
	n.sent = append(n.sent, view)
	return nil
}

var _ CertificateNotifier = (*recordingNotifier)(nil)

func ptrTime(v time.Time) *time.Time { return &v }
