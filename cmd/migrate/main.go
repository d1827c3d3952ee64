// cmd/migrate は DB スキーマを作成し、必要なら受講者名簿を投入する
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"go_course_progress/internal/config"
	"go_course_progress/internal/middleware"
	"go_course_progress/internal/model"
	"go_course_progress/internal/repository"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

type seedLearner struct {
	UserID string `mapstructure:"user_id"`
	Name   string `mapstructure:"name"`
	Email  string `mapstructure:"email"`
	Role   string `mapstructure:"role"`
}

func main() {
	configDir := flag.String("config", "configs", "config.yaml のディレクトリ")
	seedPath := flag.String("seed", "", "受講者名簿の YAML (learners: [...])")
	flag.Parse()

	if err := config.LoadConfig(*configDir); err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	logger := middleware.NewAppLogger(os.Stderr, config.Cfg.Log, os.Getenv("APP_ENV"))
	slog.SetDefault(logger)

	db, err := repository.NewDB(config.Cfg.Database.URL, logger)
	if err != nil {
		logger.Error("Error initializing database", slog.Any("error", err))
		os.Exit(1)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if err := repository.Migrate(db); err != nil {
		logger.Error("Migration failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Migration completed")

	if *seedPath == "" {
		return
	}
	learners, err := loadSeed(*seedPath)
	if err != nil {
		logger.Error("Failed to read seed file", slog.String("path", *seedPath), slog.Any("error", err))
		os.Exit(1)
	}

	ctx := middleware.WithLogger(context.Background(), logger)
	repo := repository.NewGormLearnerRepository()
	created, skipped := 0, 0
	for _, l := range learners {
		err := repo.Create(ctx, db, l)
		switch {
		case err == nil:
			created++
		case errors.Is(err, model.ErrConflict):
			skipped++
		default:
			logger.Error("Failed to seed learner", slog.String("email", l.Email), slog.Any("error", err))
			os.Exit(1)
		}
	}
	logger.Info("Seed completed", slog.Int("created", created), slog.Int("skipped", skipped))
}

func loadSeed(path string) ([]*model.Learner, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var raw struct {
		Learners []seedLearner `mapstructure:"learners"`
	}
	if err := v.Unmarshal(&raw); err != nil {
		return nil, err
	}

	out := make([]*model.Learner, 0, len(raw.Learners))
	for i, s := range raw.Learners {
		id, err := uuid.Parse(s.UserID)
		if err != nil {
			return nil, fmt.Errorf("learners[%d]: user_id %q: %w", i, s.UserID, err)
		}
		role := s.Role
		if role != model.RoleAdmin {
			role = model.RoleLearner
		}
		out = append(out, &model.Learner{UserID: id, Name: s.Name, Email: s.Email, Role: role})
	}
	return out, nil
}
