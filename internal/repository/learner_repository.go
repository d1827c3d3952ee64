//go:generate mockery --name LearnerRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"

	"go_course_progress/internal/middleware"
	"go_course_progress/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LearnerRepository は受講者名簿の参照 (登録は外部の認証サービス経由)
type LearnerRepository interface {
	Create(ctx context.Context, db *gorm.DB, learner *model.Learner) error
	FindByID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*model.Learner, error)
	FindAll(ctx context.Context, db *gorm.DB) ([]*model.Learner, error)
}

type gormLearnerRepository struct{}

func NewGormLearnerRepository() LearnerRepository {
	return &gormLearnerRepository{}
}

func (r *gormLearnerRepository) Create(ctx context.Context, db *gorm.DB, learner *model.Learner) error {
	logger := middleware.GetLogger(ctx)

	result := db.WithContext(ctx).Create(learner)
	if result.Error != nil {
		if appErr := classifyPgError(result.Error); errors.Is(appErr, model.ErrConflict) {
			logger.Warn("Duplicate key error on create learner", "error", result.Error, "email", learner.Email)
			return model.ErrConflict
		}
		logger.Error("Error creating learner in DB", "error", result.Error, "email", learner.Email)
		return fmt.Errorf("gormLearnerRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormLearnerRepository) FindByID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*model.Learner, error) {
	var learner model.Learner
	result := db.WithContext(ctx).Where("user_id = ?", userID).First(&learner)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		middleware.GetLogger(ctx).Error("Error finding learner by ID", "error", result.Error, "user_id", userID.String())
		return nil, fmt.Errorf("gormLearnerRepository.FindByID: %w", result.Error)
	}
	return &learner, nil
}

// FindAll は管理者も含めて返す。集計時の除外は呼び出し側で行う
func (r *gormLearnerRepository) FindAll(ctx context.Context, db *gorm.DB) ([]*model.Learner, error) {
	var learners []*model.Learner
	result := db.WithContext(ctx).Order("name").Find(&learners)
	if result.Error != nil {
		middleware.GetLogger(ctx).Error("Error finding learners", "error", result.Error)
		return nil, fmt.Errorf("gormLearnerRepository.FindAll: %w", result.Error)
	}
	return learners, nil
}
