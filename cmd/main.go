// cmd/main.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go_course_progress/internal/catalog"
	"go_course_progress/internal/config"
	"go_course_progress/internal/handlers"
	"go_course_progress/internal/middleware"
	"go_course_progress/internal/progress"
	"go_course_progress/internal/repository"
	"go_course_progress/internal/service"
)

func main() {
	// 設定ファイル読み込み用の一時的なロガー
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(tempLogger)
	log.Println("Log Config Loading...")

	configDir := os.Getenv("CONFIG_DIR")
	if configDir == "" {
		configDir = "configs"
	}
	if err := config.LoadConfig(configDir); err != nil {
		slog.Error("Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}
	cfg := &config.Cfg

	appEnv := os.Getenv("APP_ENV")
	logger := middleware.NewAppLogger(os.Stderr, cfg.Log, appEnv)
	slog.SetDefault(logger)
	slog.Info("Application starting...", slog.String("app", config.AppName), slog.String("version", config.AppVersion), slog.String("APP_ENV", appEnv))

	courses, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		slog.Error("Error loading course catalog", slog.String("path", cfg.Catalog.Path), slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("Course catalog loaded", slog.Int("courses", len(courses.Courses())))

	db, err := repository.NewDB(cfg.Database.URL, logger)
	if err != nil {
		slog.Error("Error initializing database", slog.Any("error", err))
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Error getting underlying sql.DB from GORM", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("Error closing database connection", slog.Any("error", err))
		} else {
			slog.Info("Database connection closed.")
		}
	}()

	// Dependency Injection
	policy := progress.PolicyFromConfig(cfg.Progress)
	resolver := progress.CertificateResolver{MinAverageScore: cfg.Certificate.MinAverageScore}

	progressRepo := repository.NewGormProgressRepository()
	attemptRepo := repository.NewGormQuizAttemptRepository()
	learnerRepo := repository.NewGormLearnerRepository()

	var notifier service.CertificateNotifier
	if cfg.Certificate.NotifyOnUnlock {
		mailer, err := service.NewMailer(cfg)
		if err != nil {
			slog.Error("Error initializing mailer", slog.String("type", cfg.Mailer.Type), slog.Any("error", err))
			os.Exit(1)
		}
		notifier = service.NewCertificateNotifier(mailer, cfg.Certificate.PortalURL)
	}

	progressService := service.NewProgressService(db, progressRepo, attemptRepo, courses, policy)
	quizService := service.NewQuizService(db, progressRepo, attemptRepo, learnerRepo, courses, policy, resolver, notifier)
	certificateService := service.NewCertificateService(db, progressRepo, learnerRepo, courses, resolver)
	dashboardService := service.NewDashboardService(db, progressRepo, learnerRepo, courses, progress.NewAggregateCalculator())

	router := handlers.NewRouter(cfg, logger, handlers.Handlers{
		Progress:    handlers.NewProgressHandler(progressService),
		Quiz:        handlers.NewQuizHandler(quizService),
		Certificate: handlers.NewCertificateHandler(certificateService),
		Admin:       handlers.NewAdminHandler(progressService, dashboardService),
		Health:      handlers.NewHealthHandler(db),
	})

	scheduler, err := service.StartDashboardRefresh(dashboardService, cfg.Dashboard.RefreshCron, logger)
	if err != nil {
		slog.Error("Error starting dashboard scheduler", slog.Any("error", err))
		os.Exit(1)
	}

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Server listening", slog.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not listen on port", slog.String("port", cfg.Server.Port), slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", slog.Any("error", err))
	}
	// 実行中の集計ジョブの終了を待つ
	<-scheduler.Stop().Done()

	log.Println("Server exiting")
}
