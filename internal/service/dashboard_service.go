//go:generate mockery --name DashboardService --output ./mocks --outpkg mocks --case=underscore
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"go_course_progress/internal/middleware"
	"go_course_progress/internal/model"
	"go_course_progress/internal/progress"
	"go_course_progress/internal/repository"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// CSVHeader はダッシュボードのエクスポート列
var CSVHeader = []string{"learner_name", "learner_email", "course_title", "completed_units", "total_units", "status", "completion_ratio"}

type DashboardService interface {
	Report(ctx context.Context) (*model.DashboardReport, error)
	// Cached は定期集計の最新結果。まだ1度も集計していなければ false
	Cached() (*model.DashboardReport, bool)
	Refresh(ctx context.Context) error
	ExportRows(ctx context.Context) ([][]string, error)
}

type dashboardService struct {
	db          *gorm.DB
	progRepo    repository.ProgressRepository
	learnerRepo repository.LearnerRepository
	catalog     CourseCatalog
	calc        *progress.AggregateCalculator

	mu     sync.RWMutex
	cached *model.DashboardReport
}

func NewDashboardService(db *gorm.DB, progRepo repository.ProgressRepository, learnerRepo repository.LearnerRepository, catalog CourseCatalog, calc *progress.AggregateCalculator) DashboardService {
	return &dashboardService{
		db:          db,
		progRepo:    progRepo,
		learnerRepo: learnerRepo,
		catalog:     catalog,
		calc:        calc,
	}
}

// Report は名簿と進捗を並行して読み、1つのスナップショットから集計する。
// どちらかの読み込みに失敗したら部分的な結果は返さない
func (s *dashboardService) Report(ctx context.Context) (*model.DashboardReport, error) {
	logger := middleware.GetLogger(ctx)

	var (
		learners []*model.Learner
		rows     []*model.UnitProgress
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		learners, err = s.learnerRepo.FindAll(gctx, s.db)
		if err != nil {
			return fmt.Errorf("load learners: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		rows, err = s.progRepo.FindAll(gctx, s.db)
		if err != nil {
			return fmt.Errorf("load progress: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Error("Failed to load dashboard snapshot", "error", err)
		return nil, internalError("ダッシュボードの集計に失敗しました。", err)
	}

	snapshot := progress.Snapshot{
		Learners: make([]model.Learner, 0, len(learners)),
		Progress: toValues(rows),
		Courses:  s.catalog.Courses(),
	}
	for _, l := range learners {
		snapshot.Learners = append(snapshot.Learners, *l)
	}

	report := s.calc.Compute(snapshot)
	logger.Info("Dashboard computed",
		"learners", len(snapshot.Learners),
		"rows", len(snapshot.Progress),
		"complete", report.Buckets.Complete,
		"in_progress", report.Buckets.InProgress,
		"not_started", report.Buckets.NotStarted,
	)
	return &report, nil
}

func (s *dashboardService) Cached() (*model.DashboardReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cached, s.cached != nil
}

func (s *dashboardService) Refresh(ctx context.Context) error {
	report, err := s.Report(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cached = report
	s.mu.Unlock()
	return nil
}

// ExportRows は CSV 用の行を返す (ヘッダーは CSVHeader)
func (s *dashboardService) ExportRows(ctx context.Context) ([][]string, error) {
	report, err := s.Report(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(report.Entries))
	for _, e := range report.Entries {
		rows = append(rows, []string{
			e.LearnerName,
			e.LearnerEmail,
			e.CourseTitle,
			strconv.Itoa(e.CompletedUnits),
			strconv.Itoa(e.TotalUnits),
			string(e.Status),
			strconv.FormatFloat(progress.Round2(e.Ratio()), 'f', 2, 64),
		})
	}
	return rows, nil
}

// StartDashboardRefresh は起動時に1度集計し、以降は cron 式 schedule で集計し直す
func StartDashboardRefresh(svc DashboardService, schedule string, logger *slog.Logger) (*cron.Cron, error) {
	ctx := middleware.WithLogger(context.Background(), logger.With("job", "dashboard_refresh"))
	run := func() {
		if err := svc.Refresh(ctx); err != nil {
			logger.Error("Dashboard refresh failed", "error", err)
			return
		}
		logger.Debug("Dashboard snapshot refreshed")
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, run); err != nil {
		return nil, fmt.Errorf("invalid dashboard refresh schedule %q: %w", schedule, err)
	}
	run()
	c.Start()
	logger.Info("Dashboard refresh scheduler started", "schedule", schedule)
	return c, nil
}
