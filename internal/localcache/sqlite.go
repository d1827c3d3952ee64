package localcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	slogGorm "github.com/orandin/slog-gorm"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// cachedUnit は cache_units テーブルの行
type cachedUnit struct {
	CourseID      uint    `gorm:"primaryKey;autoIncrement:false"`
	UnitID        uint    `gorm:"primaryKey;autoIncrement:false"`
	Percent       float64 `gorm:"not null;default:0"`
	QuizCompleted bool    `gorm:"not null;default:false"`
	QuizScore     *float64
	UpdatedAt     time.Time
}

func (cachedUnit) TableName() string { return "cache_units" }

// cachedCourse は cache_courses テーブルの行
type cachedCourse struct {
	CourseID     uint `gorm:"primaryKey;autoIncrement:false"`
	FinishedDate time.Time
	UpdatedAt    time.Time
}

func (cachedCourse) TableName() string { return "cache_courses" }

// SQLiteStore はファイルに保存するキャッシュ。プロセスを再起動しても残る
type SQLiteStore struct {
	db *gorm.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite はキャッシュファイルを開き、テーブルを用意する
func OpenSQLite(path string, appLogger *slog.Logger) (*SQLiteStore, error) {
	gormLogger := slogGorm.New(
		slogGorm.WithHandler(appLogger.Handler()),
		slogGorm.WithSlowThreshold(200*time.Millisecond),
	).LogMode(gormlogger.Warn)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormLogger})
	if err != nil {
		appLogger.Error("Failed to open local progress cache", slog.String("path", path), slog.Any("error", err))
		return nil, fmt.Errorf("localcache.OpenSQLite: %w", err)
	}
	return NewSQLiteStore(db)
}

// NewSQLiteStore は既存の接続を使う (テストではインメモリDBを渡す)
func NewSQLiteStore(db *gorm.DB) (*SQLiteStore, error) {
	if err := db.AutoMigrate(&cachedUnit{}, &cachedCourse{}); err != nil {
		return nil, fmt.Errorf("localcache.NewSQLiteStore: migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) GetUnit(ctx context.Context, key UnitKey) (UnitEntry, bool, error) {
	var row cachedUnit
	err := s.db.WithContext(ctx).
		Where("course_id = ? AND unit_id = ?", key.CourseID, key.UnitID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return UnitEntry{}, false, nil
	}
	if err != nil {
		return UnitEntry{}, false, fmt.Errorf("SQLiteStore.GetUnit: %w", err)
	}
	return UnitEntry{Percent: row.Percent, QuizCompleted: row.QuizCompleted, QuizScore: row.QuizScore}, true, nil
}

func (s *SQLiteStore) PutUnit(ctx context.Context, key UnitKey, entry UnitEntry) error {
	entry = sanitize(entry)
	row := cachedUnit{CourseID: key.CourseID, UnitID: key.UnitID, Percent: entry.Percent, QuizCompleted: entry.QuizCompleted, QuizScore: entry.QuizScore}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "course_id"}, {Name: "unit_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"percent", "quiz_completed", "quiz_score", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("SQLiteStore.PutUnit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetFinishedDate(ctx context.Context, key CourseKey) (time.Time, bool, error) {
	var row cachedCourse
	err := s.db.WithContext(ctx).Where("course_id = ?", key.CourseID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("SQLiteStore.GetFinishedDate: %w", err)
	}
	if row.FinishedDate.IsZero() {
		return time.Time{}, false, nil
	}
	return dateOnly(row.FinishedDate), true, nil
}

func (s *SQLiteStore) PutFinishedDate(ctx context.Context, key CourseKey, date time.Time) error {
	row := cachedCourse{CourseID: key.CourseID, FinishedDate: dateOnly(date)}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "course_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"finished_date", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("SQLiteStore.PutFinishedDate: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Snapshot(ctx context.Context) (Snapshot, error) {
	var units []cachedUnit
	if err := s.db.WithContext(ctx).Find(&units).Error; err != nil {
		return Snapshot{}, fmt.Errorf("SQLiteStore.Snapshot: units: %w", err)
	}
	var courses []cachedCourse
	if err := s.db.WithContext(ctx).Find(&courses).Error; err != nil {
		return Snapshot{}, fmt.Errorf("SQLiteStore.Snapshot: courses: %w", err)
	}

	snap := newSnapshot()
	for _, u := range units {
		snap.Units[UnitKey{CourseID: u.CourseID, UnitID: u.UnitID}] = UnitEntry{Percent: u.Percent, QuizCompleted: u.QuizCompleted, QuizScore: u.QuizScore}
	}
	for _, c := range courses {
		if !c.FinishedDate.IsZero() {
			snap.Finished[CourseKey{CourseID: c.CourseID}] = dateOnly(c.FinishedDate)
		}
	}
	return snap, nil
}

// ClearAll はログアウト時に全件を削除する
func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&cachedUnit{}).Error; err != nil {
			return fmt.Errorf("SQLiteStore.ClearAll: units: %w", err)
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&cachedCourse{}).Error; err != nil {
			return fmt.Errorf("SQLiteStore.ClearAll: courses: %w", err)
		}
		return nil
	})
}

// Close は下位の接続を閉じる
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
