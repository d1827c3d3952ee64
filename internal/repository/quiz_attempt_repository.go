//go:generate mockery --name QuizAttemptRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"fmt"

	"go_course_progress/internal/middleware"
	"go_course_progress/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QuizAttemptRepository は受験履歴 (追記のみ)
type QuizAttemptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *model.QuizAttempt) error
	FindByUnit(ctx context.Context, db *gorm.DB, key model.UnitKey) ([]*model.QuizAttempt, error)
	DeleteByUserCourse(ctx context.Context, tx *gorm.DB, userID uuid.UUID, courseID uint) (int64, error)
}

type gormQuizAttemptRepository struct{}

func NewGormQuizAttemptRepository() QuizAttemptRepository {
	return &gormQuizAttemptRepository{}
}

func (r *gormQuizAttemptRepository) Create(ctx context.Context, tx *gorm.DB, attempt *model.QuizAttempt) error {
	if result := tx.WithContext(ctx).Create(attempt); result.Error != nil {
		middleware.GetLogger(ctx).Error("Error creating quiz attempt", "error", result.Error,
			"user_id", attempt.UserID.String(), "course_id", attempt.CourseID, "unit_id", attempt.UnitID)
		return wrapDBError("gormQuizAttemptRepository.Create", result.Error)
	}
	return nil
}

// FindByUnit は新しい順に返す
func (r *gormQuizAttemptRepository) FindByUnit(ctx context.Context, db *gorm.DB, key model.UnitKey) ([]*model.QuizAttempt, error) {
	var attempts []*model.QuizAttempt
	result := db.WithContext(ctx).
		Where("user_id = ? AND course_id = ? AND unit_id = ?", key.UserID, key.CourseID, key.UnitID).
		Order("attempted_at DESC").
		Find(&attempts)
	if result.Error != nil {
		middleware.GetLogger(ctx).Error("Error finding quiz attempts", "error", result.Error, "unit", key.String())
		return nil, fmt.Errorf("gormQuizAttemptRepository.FindByUnit: %w", result.Error)
	}
	return attempts, nil
}

func (r *gormQuizAttemptRepository) DeleteByUserCourse(ctx context.Context, tx *gorm.DB, userID uuid.UUID, courseID uint) (int64, error) {
	result := tx.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Delete(&model.QuizAttempt{})
	if result.Error != nil {
		middleware.GetLogger(ctx).Error("Error deleting quiz attempts", "error", result.Error,
			"user_id", userID.String(), "course_id", courseID)
		return 0, fmt.Errorf("gormQuizAttemptRepository.DeleteByUserCourse: %w", result.Error)
	}
	return result.RowsAffected, nil
}
