//go:generate mockery --name CertificateService --output ./mocks --outpkg mocks --case=underscore
package service

import (
	"context"
	"errors"

	"go_course_progress/internal/middleware"
	"go_course_progress/internal/model"
	"go_course_progress/internal/progress"
	"go_course_progress/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CertificateService interface {
	Get(ctx context.Context, userID uuid.UUID, courseID uint) (*model.CertificateView, error)
	// Claim はダウンロード操作。適格なときだけ certificate = 1 を記録する
	Claim(ctx context.Context, userID uuid.UUID, courseID uint) (*model.CertificateView, error)
}

type certificateService struct {
	db          *gorm.DB
	progRepo    repository.ProgressRepository
	learnerRepo repository.LearnerRepository
	catalog     CourseCatalog
	resolver    progress.CertificateResolver
}

func NewCertificateService(db *gorm.DB, progRepo repository.ProgressRepository, learnerRepo repository.LearnerRepository, catalog CourseCatalog, resolver progress.CertificateResolver) CertificateService {
	return &certificateService{
		db:          db,
		progRepo:    progRepo,
		learnerRepo: learnerRepo,
		catalog:     catalog,
		resolver:    resolver,
	}
}

func (s *certificateService) Get(ctx context.Context, userID uuid.UUID, courseID uint) (*model.CertificateView, error) {
	course, ok := s.catalog.Course(courseID)
	if !ok {
		return nil, model.NewAppError("COURSE_NOT_FOUND", "コースが見つかりません。", "course_id", model.ErrNotFound)
	}
	eligibility, err := s.resolve(ctx, s.db, userID, course)
	if err != nil {
		return nil, err
	}
	view := s.resolver.View(eligibility, s.learner(ctx, userID), course)
	return &view, nil
}

func (s *certificateService) Claim(ctx context.Context, userID uuid.UUID, courseID uint) (*model.CertificateView, error) {
	logger := middleware.GetLogger(ctx).With("course_id", courseID)

	course, ok := s.catalog.Course(courseID)
	if !ok {
		return nil, model.NewAppError("COURSE_NOT_FOUND", "コースが見つかりません。", "course_id", model.ErrNotFound)
	}

	var eligibility model.CertificateEligibility
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := s.resolve(ctx, tx, userID, course)
		if err != nil {
			return err
		}
		if !e.Eligible {
			logger.Info("Certificate claim rejected", "reason", e.Reason, "completed_units", e.CompletedUnits, "total_units", e.TotalUnits)
			return model.NewAppError("CERTIFICATE_NOT_ELIGIBLE", "修了条件を満たしていないため証明書を取得できません。", e.Reason, model.ErrNotEligible)
		}
		if !e.Claimed {
			if _, err := s.progRepo.MarkCertificateClaimed(ctx, tx, userID, courseID); err != nil {
				logger.Error("Failed to mark certificate claimed", "error", err)
				return internalError("証明書の記録に失敗しました。", err)
			}
			e.Claimed = true
		}
		eligibility = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Certificate claimed", "average_score", eligibility.AverageScore)
	view := s.resolver.View(eligibility, s.learner(ctx, userID), course)
	return &view, nil
}

func (s *certificateService) resolve(ctx context.Context, db *gorm.DB, userID uuid.UUID, course model.Course) (model.CertificateEligibility, error) {
	rows, err := s.progRepo.FindByUserCourse(ctx, db, userID, course.ID)
	if err != nil {
		middleware.GetLogger(ctx).Error("Failed to load progress for certificate", "error", err, "course_id", course.ID)
		return model.CertificateEligibility{}, internalError("証明書情報の取得に失敗しました。", err)
	}
	return s.resolver.Resolve(userID, course, toValues(rows)), nil
}

// learner は名簿にない受講者でも証明書判定を止めない (名前は空になる)
func (s *certificateService) learner(ctx context.Context, userID uuid.UUID) model.Learner {
	l, err := s.learnerRepo.FindByID(ctx, s.db, userID)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			middleware.GetLogger(ctx).Warn("Failed to load learner for certificate", "error", err)
		}
		return model.Learner{UserID: userID}
	}
	return *l
}
