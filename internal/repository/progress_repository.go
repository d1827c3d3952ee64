//go:generate mockery --name ProgressRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"

	"go_course_progress/internal/middleware"
	"go_course_progress/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository interface {
	// Upsert は (user, course, unit) の行をマージ規則で更新する。トランザクション内で呼ぶ
	Upsert(ctx context.Context, tx *gorm.DB, update model.ProgressUpdate, passiveCap float64) (*model.UnitProgress, error)
	FindByKey(ctx context.Context, db *gorm.DB, key model.UnitKey) (*model.UnitProgress, error)
	FindByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.UnitProgress, error)
	FindByUserCourse(ctx context.Context, db *gorm.DB, userID uuid.UUID, courseID uint) ([]*model.UnitProgress, error)
	FindAll(ctx context.Context, db *gorm.DB) ([]*model.UnitProgress, error)
	// MarkCertificateClaimed はコースの全行の certificate を 1 にする
	MarkCertificateClaimed(ctx context.Context, tx *gorm.DB, userID uuid.UUID, courseID uint) (int64, error)
	// DeleteByUserCourse は管理者による明示的なリセット
	DeleteByUserCourse(ctx context.Context, tx *gorm.DB, userID uuid.UUID, courseID uint) (int64, error)
}

type gormProgressRepository struct{}

func NewGormProgressRepository() ProgressRepository {
	return &gormProgressRepository{}
}

func (r *gormProgressRepository) Upsert(ctx context.Context, tx *gorm.DB, update model.ProgressUpdate, passiveCap float64) (*model.UnitProgress, error) {
	logger := middleware.GetLogger(ctx).With("unit", update.Key.String())
	key := update.Key

	// 行がなければ空の行を作り、その行をロックしてからマージする
	seed := model.UnitProgress{UserID: key.UserID, CourseID: key.CourseID, UnitID: key.UnitID}
	result := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}, {Name: "unit_id"}},
		DoNothing: true,
	}).Create(&seed)
	if result.Error != nil {
		logger.Error("Error seeding unit progress row", "error", result.Error)
		return nil, wrapDBError("gormProgressRepository.Upsert", result.Error)
	}

	var row model.UnitProgress
	result = tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND course_id = ? AND unit_id = ?", key.UserID, key.CourseID, key.UnitID).
		First(&row)
	if result.Error != nil {
		logger.Error("Error locking unit progress row", "error", result.Error)
		return nil, wrapDBError("gormProgressRepository.Upsert", result.Error)
	}

	row.Apply(update, passiveCap)

	if result := tx.WithContext(ctx).Save(&row); result.Error != nil {
		logger.Error("Error saving unit progress row", "error", result.Error)
		return nil, wrapDBError("gormProgressRepository.Upsert", result.Error)
	}
	return &row, nil
}

func (r *gormProgressRepository) FindByKey(ctx context.Context, db *gorm.DB, key model.UnitKey) (*model.UnitProgress, error) {
	var row model.UnitProgress
	result := db.WithContext(ctx).
		Where("user_id = ? AND course_id = ? AND unit_id = ?", key.UserID, key.CourseID, key.UnitID).
		First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		middleware.GetLogger(ctx).Error("Error finding unit progress", "error", result.Error, "unit", key.String())
		return nil, fmt.Errorf("gormProgressRepository.FindByKey: %w", result.Error)
	}
	return &row, nil
}

func (r *gormProgressRepository) FindByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.UnitProgress, error) {
	var rows []*model.UnitProgress
	result := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("course_id, unit_id").
		Find(&rows)
	if result.Error != nil {
		middleware.GetLogger(ctx).Error("Error finding progress by user", "error", result.Error, "user_id", userID.String())
		return nil, fmt.Errorf("gormProgressRepository.FindByUser: %w", result.Error)
	}
	return rows, nil
}

func (r *gormProgressRepository) FindByUserCourse(ctx context.Context, db *gorm.DB, userID uuid.UUID, courseID uint) ([]*model.UnitProgress, error) {
	var rows []*model.UnitProgress
	result := db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("unit_id").
		Find(&rows)
	if result.Error != nil {
		middleware.GetLogger(ctx).Error("Error finding progress by user and course",
			"error", result.Error, "user_id", userID.String(), "course_id", courseID)
		return nil, fmt.Errorf("gormProgressRepository.FindByUserCourse: %w", result.Error)
	}
	return rows, nil
}

func (r *gormProgressRepository) FindAll(ctx context.Context, db *gorm.DB) ([]*model.UnitProgress, error) {
	var rows []*model.UnitProgress
	result := db.WithContext(ctx).Order("user_id, course_id, unit_id").Find(&rows)
	if result.Error != nil {
		middleware.GetLogger(ctx).Error("Error finding all progress", "error", result.Error)
		return nil, fmt.Errorf("gormProgressRepository.FindAll: %w", result.Error)
	}
	return rows, nil
}

func (r *gormProgressRepository) MarkCertificateClaimed(ctx context.Context, tx *gorm.DB, userID uuid.UUID, courseID uint) (int64, error) {
	result := tx.WithContext(ctx).Model(&model.UnitProgress{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Update("certificate", model.CertificateClaimed)
	if result.Error != nil {
		middleware.GetLogger(ctx).Error("Error marking certificate claimed",
			"error", result.Error, "user_id", userID.String(), "course_id", courseID)
		return 0, wrapDBError("gormProgressRepository.MarkCertificateClaimed", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *gormProgressRepository) DeleteByUserCourse(ctx context.Context, tx *gorm.DB, userID uuid.UUID, courseID uint) (int64, error) {
	result := tx.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Delete(&model.UnitProgress{})
	if result.Error != nil {
		middleware.GetLogger(ctx).Error("Error deleting progress",
			"error", result.Error, "user_id", userID.String(), "course_id", courseID)
		return 0, fmt.Errorf("gormProgressRepository.DeleteByUserCourse: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// wrapDBError は制約違反ならアプリケーションのエラーを、それ以外は呼び出し元付きでラップして返す
func wrapDBError(op string, err error) error {
	if appErr := classifyPgError(err); appErr != nil {
		return fmt.Errorf("%s: %w: %v", op, appErr, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
