package repository

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"go_course_progress/internal/model"

	"github.com/jackc/pgx/v5/pgconn"
	slogGorm "github.com/orandin/slog-gorm"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// PostgreSQL のエラーコード
const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

// NewDB は PostgreSQL に接続する。GORM のログは slog に流す
func NewDB(databaseURL string, appLogger *slog.Logger) (*gorm.DB, error) {
	// APP_ENV=dev のときだけ SQL を Info で出す
	gormLogLevel := gormlogger.Warn
	if strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		gormLogLevel = gormlogger.Info
	}

	gormLogger := slogGorm.New(
		slogGorm.WithHandler(appLogger.Handler()),
		slogGorm.WithTraceAll(),
		slogGorm.WithSlowThreshold(500*time.Millisecond),
	).LogMode(gormLogLevel)

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{Logger: gormLogger})
	if err != nil {
		appLogger.Error("Failed to connect to database with GORM", slog.Any("error", err))
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		appLogger.Error("Error getting underlying sql.DB from GORM", slog.Any("error", err))
		return nil, err
	}
	if err = sqlDB.Ping(); err != nil {
		appLogger.Error("Error pinging database", slog.Any("error", err))
		sqlDB.Close()
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	appLogger.Info("Database connection established with GORM")
	return db, nil
}

// Models はマイグレーション対象のモデル
func Models() []interface{} {
	return []interface{}{&model.Learner{}, &model.UnitProgress{}, &model.QuizAttempt{}}
}

// Migrate はテーブルとインデックスを作成・更新する
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// classifyPgError は制約違反をアプリケーションのエラーに変換する。該当しなければ nil
func classifyPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return model.ErrConflict
	case pgCheckViolation:
		return model.ErrInvalidInput
	}
	return nil
}
