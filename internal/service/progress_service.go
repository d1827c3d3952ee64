//go:generate mockery --name ProgressService --output ./mocks --outpkg mocks --case=underscore
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go_course_progress/internal/middleware"
	"go_course_progress/internal/model"
	"go_course_progress/internal/progress"
	"go_course_progress/internal/repository"

	"github.com/google/uuid"
	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

// CourseCatalog はコース定義の参照
type CourseCatalog interface {
	Courses() []model.Course
	Course(id uint) (model.Course, bool)
}

type ProgressService interface {
	Upsert(ctx context.Context, userID uuid.UUID, courseID, unitID uint, req *model.UpsertProgressRequest) (*model.ProgressResponse, error)
	Get(ctx context.Context, key model.UnitKey) (*model.ProgressResponse, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.ProgressResponse, error)
	ListAll(ctx context.Context) ([]*model.ProgressResponse, error)
	ResetCourse(ctx context.Context, userID uuid.UUID, courseID uint) (int64, error)
}

type progressService struct {
	db          *gorm.DB
	progRepo    repository.ProgressRepository
	attemptRepo repository.QuizAttemptRepository
	catalog     CourseCatalog
	policy      progress.Policy
	clock       func() time.Time
}

func NewProgressService(db *gorm.DB, progRepo repository.ProgressRepository, attemptRepo repository.QuizAttemptRepository, catalog CourseCatalog, policy progress.Policy) ProgressService {
	return &progressService{
		db:          db,
		progRepo:    progRepo,
		attemptRepo: attemptRepo,
		catalog:     catalog,
		policy:      policy,
		clock:       time.Now,
	}
}

func (s *progressService) Upsert(ctx context.Context, userID uuid.UUID, courseID, unitID uint, req *model.UpsertProgressRequest) (*model.ProgressResponse, error) {
	logger := middleware.GetLogger(ctx).With("course_id", courseID, "unit_id", unitID)

	if err := requireUnit(s.catalog, courseID, unitID); err != nil {
		return nil, err
	}
	update, err := s.toUpdate(model.UnitKey{UserID: userID, CourseID: courseID, UnitID: unitID}, req)
	if err != nil {
		logger.Warn("Rejected progress upsert", "error", err)
		return nil, err
	}

	var saved *model.UnitProgress
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.progRepo.Upsert(ctx, tx, update, s.policy.PassiveCap)
		if err != nil {
			logger.Error("Error upserting progress in transaction", "error", err)
			if errors.Is(err, model.ErrInvalidInput) {
				return model.NewAppError("INVALID_PROGRESS", "進捗の値が不正です。", "progress", err)
			}
			return internalError("学習進捗の保存に失敗しました。", err)
		}
		// 証明書の取得は完了済みのユニットに限る
		if update.Certificate == model.CertificateClaimed && !row.QuizCompleted {
			return model.NewAppError("CERTIFICATE_NOT_ALLOWED", "未完了のユニットには証明書を設定できません。", "certificate", model.ErrInvalidInput)
		}
		saved = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Progress upserted", "percent", saved.Percent, "completed", saved.QuizCompleted)
	return model.NewProgressResponse(saved, s.policy.PassiveCap), nil
}

// toUpdate はリクエストを検証して書き込み要求に変換する
func (s *progressService) toUpdate(key model.UnitKey, req *model.UpsertProgressRequest) (model.ProgressUpdate, error) {
	// ボディの ID はパス・トークンと一致している必要がある
	if req.UserID != nil && *req.UserID != key.UserID {
		return model.ProgressUpdate{}, model.NewAppError("USER_MISMATCH", "他のユーザーの進捗は更新できません。", "user_id", model.ErrForbidden)
	}
	if req.CourseID != nil && *req.CourseID != key.CourseID {
		return model.ProgressUpdate{}, model.NewAppError("COURSE_MISMATCH", "course_idがパスと一致しません。", "course_id", model.ErrInvalidInput)
	}
	if req.UnitID != nil && *req.UnitID != key.UnitID {
		return model.ProgressUpdate{}, model.NewAppError("UNIT_MISMATCH", "unit_idがパスと一致しません。", "unit_id", model.ErrInvalidInput)
	}
	if req.Progress == nil {
		return model.ProgressUpdate{}, model.NewAppError("VALIDATION_ERROR", "progressは必須です。", "progress", model.ErrInvalidInput)
	}

	update := model.ProgressUpdate{
		Key:       key,
		Percent:   progress.Round2(progress.Clamp(*req.Progress * 100)),
		Completed: req.Completed,
		QuizScore: req.Score,
		Attempted: req.Attempted,
	}
	if req.Certificate != nil {
		update.Certificate = *req.Certificate
	}
	if req.FinishDate != nil {
		d, err := time.Parse(model.DateLayout, *req.FinishDate)
		if err != nil {
			return model.ProgressUpdate{}, model.NewAppError("VALIDATION_ERROR", "finishDateの形式が正しくありません。", "finishDate",
				fmt.Errorf("%w: %v", model.ErrInvalidInput, err))
		}
		update.FinishDate = &d
	}
	if update.Completed {
		update.Percent = progress.CompletePercent
		if update.FinishDate == nil {
			today := now.With(s.clock()).BeginningOfDay()
			update.FinishDate = &today
		}
	}
	return update, nil
}

func (s *progressService) Get(ctx context.Context, key model.UnitKey) (*model.ProgressResponse, error) {
	logger := middleware.GetLogger(ctx).With("course_id", key.CourseID, "unit_id", key.UnitID)

	if err := requireUnit(s.catalog, key.CourseID, key.UnitID); err != nil {
		return nil, err
	}
	row, err := s.progRepo.FindByKey(ctx, s.db, key)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("PROGRESS_NOT_FOUND", "学習進捗が見つかりません。", "", err)
		}
		logger.Error("Failed to find progress", "error", err)
		return nil, internalError("学習進捗の取得に失敗しました。", err)
	}
	return model.NewProgressResponse(row, s.policy.PassiveCap), nil
}

func (s *progressService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.ProgressResponse, error) {
	rows, err := s.progRepo.FindByUser(ctx, s.db, userID)
	if err != nil {
		middleware.GetLogger(ctx).Error("Failed to list progress", "error", err)
		return nil, internalError("学習進捗の取得に失敗しました。", err)
	}
	return s.toResponses(rows), nil
}

func (s *progressService) ListAll(ctx context.Context) ([]*model.ProgressResponse, error) {
	rows, err := s.progRepo.FindAll(ctx, s.db)
	if err != nil {
		middleware.GetLogger(ctx).Error("Failed to list all progress", "error", err)
		return nil, internalError("学習進捗の取得に失敗しました。", err)
	}
	return s.toResponses(rows), nil
}

// ResetCourse は (user, course) の進捗と受験履歴を削除する。証明書の適格性が失われる唯一の経路
func (s *progressService) ResetCourse(ctx context.Context, userID uuid.UUID, courseID uint) (int64, error) {
	logger := middleware.GetLogger(ctx).With("target_user_id", userID.String(), "course_id", courseID)

	if _, ok := s.catalog.Course(courseID); !ok {
		return 0, model.NewAppError("COURSE_NOT_FOUND", "コースが見つかりません。", "course_id", model.ErrNotFound)
	}

	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := s.progRepo.DeleteByUserCourse(ctx, tx, userID, courseID)
		if err != nil {
			return internalError("学習進捗の削除に失敗しました。", err)
		}
		if _, err := s.attemptRepo.DeleteByUserCourse(ctx, tx, userID, courseID); err != nil {
			return internalError("受験履歴の削除に失敗しました。", err)
		}
		deleted = n
		return nil
	})
	if err != nil {
		logger.Error("Failed to reset course progress", "error", err)
		return 0, err
	}

	logger.Info("Course progress reset", "deleted_rows", deleted)
	return deleted, nil
}

func (s *progressService) toResponses(rows []*model.UnitProgress) []*model.ProgressResponse {
	out := make([]*model.ProgressResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.NewProgressResponse(r, s.policy.PassiveCap))
	}
	return out
}

// requireUnit はコース定義にないユニットを弾く
func requireUnit(catalog CourseCatalog, courseID, unitID uint) error {
	course, ok := catalog.Course(courseID)
	if !ok {
		return model.NewAppError("COURSE_NOT_FOUND", "コースが見つかりません。", "course_id", model.ErrNotFound)
	}
	if !course.HasUnit(unitID) {
		return model.NewAppError("UNIT_NOT_FOUND", "ユニットが見つかりません。", "unit_id", model.ErrNotFound)
	}
	return nil
}

// internalError は予期しないエラーを 500 用の AppError にする
func internalError(message string, err error) *model.AppError {
	return model.NewAppError("INTERNAL_SERVER_ERROR", message, "", errors.Join(model.ErrInternalServer, err))
}

// toValues はリポジトリの行を値のスライスにする
func toValues(rows []*model.UnitProgress) []model.UnitProgress {
	out := make([]model.UnitProgress, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	return out
}
