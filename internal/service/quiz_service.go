//go:generate mockery --name QuizService --output ./mocks --outpkg mocks --case=underscore
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go_course_progress/internal/middleware"
	"go_course_progress/internal/model"
	"go_course_progress/internal/progress"
	"go_course_progress/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuizService interface {
	// Submit は回答を採点し、受験履歴とユニット進捗を1トランザクションで記録する
	Submit(ctx context.Context, key model.UnitKey, req *model.SubmitQuizRequest) (*model.SubmitQuizResponse, error)
	ListAttempts(ctx context.Context, key model.UnitKey) ([]*model.QuizAttempt, error)
}

type quizService struct {
	db          *gorm.DB
	progRepo    repository.ProgressRepository
	attemptRepo repository.QuizAttemptRepository
	learnerRepo repository.LearnerRepository
	catalog     CourseCatalog
	gate        *progress.QuizGate
	policy      progress.Policy
	resolver    progress.CertificateResolver
	notifier    CertificateNotifier // nil なら通知しない
	clock       func() time.Time
}

func NewQuizService(
	db *gorm.DB,
	progRepo repository.ProgressRepository,
	attemptRepo repository.QuizAttemptRepository,
	learnerRepo repository.LearnerRepository,
	catalog CourseCatalog,
	policy progress.Policy,
	resolver progress.CertificateResolver,
	notifier CertificateNotifier,
) QuizService {
	return &quizService{
		db:          db,
		progRepo:    progRepo,
		attemptRepo: attemptRepo,
		learnerRepo: learnerRepo,
		catalog:     catalog,
		gate:        progress.NewQuizGate(policy),
		policy:      policy,
		resolver:    resolver,
		notifier:    notifier,
		clock:       time.Now,
	}
}

func (s *quizService) Submit(ctx context.Context, key model.UnitKey, req *model.SubmitQuizRequest) (*model.SubmitQuizResponse, error) {
	logger := middleware.GetLogger(ctx).With("course_id", key.CourseID, "unit_id", key.UnitID)

	if err := requireUnit(s.catalog, key.CourseID, key.UnitID); err != nil {
		return nil, err
	}
	course, _ := s.catalog.Course(key.CourseID)

	result, update, err := s.gate.Evaluate(key, req.Questions, req.Answers)
	if err != nil {
		logger.Warn("Quiz submission rejected", "error", err, "questions", len(req.Questions), "answers", len(req.Answers))
		return nil, model.NewAppError("INVALID_QUIZ_ANSWERS", "回答数が設問数と一致しません。", "answers", err)
	}
	answers, err := json.Marshal(req.Answers)
	if err != nil {
		return nil, internalError("回答の保存に失敗しました。", err)
	}

	var (
		saved  *model.UnitProgress
		before model.CertificateEligibility
		after  model.CertificateEligibility
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.progRepo.FindByUserCourse(ctx, tx, key.UserID, key.CourseID)
		if err != nil {
			return internalError("学習進捗の取得に失敗しました。", err)
		}
		before = s.resolver.Resolve(key.UserID, course, toValues(rows))

		attempt := &model.QuizAttempt{
			AttemptID:   uuid.New(),
			UserID:      key.UserID,
			CourseID:    key.CourseID,
			UnitID:      key.UnitID,
			Answers:     datatypes.JSON(answers),
			Score:       result.Score,
			Passed:      result.Passed,
			AttemptedAt: s.clock(),
		}
		if err := s.attemptRepo.Create(ctx, tx, attempt); err != nil {
			logger.Error("Failed to record quiz attempt", "error", err)
			return internalError("受験履歴の保存に失敗しました。", err)
		}

		saved, err = s.progRepo.Upsert(ctx, tx, update, s.policy.PassiveCap)
		if err != nil {
			logger.Error("Failed to upsert progress after quiz", "error", err)
			return internalError("学習進捗の保存に失敗しました。", err)
		}

		rows, err = s.progRepo.FindByUserCourse(ctx, tx, key.UserID, key.CourseID)
		if err != nil {
			return internalError("学習進捗の取得に失敗しました。", err)
		}
		after = s.resolver.Resolve(key.UserID, course, toValues(rows))
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Quiz submitted", "score", result.Score, "passed", result.Passed, "completed", saved.QuizCompleted)

	if !before.Eligible && after.Eligible {
		s.notifyUnlocked(ctx, key.UserID, course, after)
	}

	return &model.SubmitQuizResponse{
		Result:   result,
		Progress: model.NewProgressResponse(saved, s.policy.PassiveCap),
	}, nil
}

// notifyUnlocked の失敗は受験結果に影響させない
func (s *quizService) notifyUnlocked(ctx context.Context, userID uuid.UUID, course model.Course, e model.CertificateEligibility) {
	if s.notifier == nil {
		return
	}
	logger := middleware.GetLogger(ctx)

	learner, err := s.learnerRepo.FindByID(ctx, s.db, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Warn("Learner not registered, skipping certificate notification")
		} else {
			logger.Error("Failed to load learner for notification", "error", err)
		}
		return
	}
	view := s.resolver.View(e, *learner, course)
	if err := s.notifier.CertificateUnlocked(ctx, *learner, view); err != nil {
		logger.Error("Failed to send certificate notification", "error", err, "course_id", course.ID)
		return
	}
	logger.Info("Certificate unlocked notification sent", "course_id", course.ID)
}

func (s *quizService) ListAttempts(ctx context.Context, key model.UnitKey) ([]*model.QuizAttempt, error) {
	if err := requireUnit(s.catalog, key.CourseID, key.UnitID); err != nil {
		return nil, err
	}
	attempts, err := s.attemptRepo.FindByUnit(ctx, s.db, key)
	if err != nil {
		middleware.GetLogger(ctx).Error("Failed to list quiz attempts", "error", err)
		return nil, internalError("受験履歴の取得に失敗しました。", err)
	}
	return attempts, nil
}
