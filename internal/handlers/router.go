package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"go_course_progress/internal/config"
	"go_course_progress/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// Handlers はルーターに登録するハンドラ一式
type Handlers struct {
	Progress    *ProgressHandler
	Quiz        *QuizHandler
	Certificate *CertificateHandler
	Admin       *AdminHandler
	Health      *HealthHandler
}

// NewRouter はミドルウェアと /api/v1 のルートを組み立てる。
// auth.enabled が false のときは X-User-ID ヘッダーでユーザーを指定する開発用認証になる
func NewRouter(cfg *config.Config, logger *slog.Logger, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.LoggingMiddleware(logger))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
		Debug:            false,
	})
	r.Use(corsHandler.Handler)

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	var authMiddleware func(http.Handler) http.Handler
	if cfg.Auth.Enabled {
		logger.Info("Applying JWT authentication middleware")
		authMiddleware = middleware.JWTAuthMiddleware(cfg)
	} else {
		logger.Warn("Authentication disabled, applying development user middleware")
		authMiddleware = middleware.DevUserContextMiddleware
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)

			r.Route("/progress", func(r chi.Router) {
				r.Get("/", h.Progress.ListMyProgress)
				r.Get("/courses/{course_id}/units/{unit_id}", h.Progress.GetUnitProgress)
				r.Put("/courses/{course_id}/units/{unit_id}", h.Progress.UpsertUnitProgress)
			})

			r.Route("/quizzes/courses/{course_id}/units/{unit_id}/attempts", func(r chi.Router) {
				r.Get("/", h.Quiz.ListAttempts)
				r.Post("/", h.Quiz.SubmitAttempt)
			})

			r.Route("/certificates/courses/{course_id}", func(r chi.Router) {
				r.Get("/", h.Certificate.GetCertificate)
				r.Post("/claim", h.Certificate.ClaimCertificate)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.AdminOnly)
				r.Get("/progress", h.Admin.ListAllProgress)
				r.Delete("/progress/users/{user_id}/courses/{course_id}", h.Admin.ResetProgress)
				r.Get("/dashboard", h.Admin.Dashboard)
				r.Get("/dashboard/export.csv", h.Admin.ExportDashboardCSV)
			})
		})
	})

	r.Get("/health", h.Health.Health)
	return r
}
