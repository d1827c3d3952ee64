// cmd/replay は記録した学習者の操作 (JSON Lines) を学習者側のトラッカーで再生し、
// ローカルキャッシュと API サーバーに進捗を書き込む
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go_course_progress/internal/catalog"
	"go_course_progress/internal/config"
	"go_course_progress/internal/localcache"
	"go_course_progress/internal/middleware"
	"go_course_progress/internal/model"
	"go_course_progress/internal/progress"
	"go_course_progress/internal/session"
	"go_course_progress/internal/syncclient"
	"go_course_progress/internal/tracker"

	"github.com/google/uuid"
)

func main() {
	configDir := flag.String("config", "configs", "config.yaml のディレクトリ")
	eventsPath := flag.String("events", "-", "イベントファイル (- は標準入力)")
	userFlag := flag.String("user", "", "学習者の user_id (UUID)")
	token := flag.String("token", "", "Bearer トークン。空なら jwt.secret_key で発行する")
	legacyPath := flag.String("import-legacy", "", "旧形式のキャッシュ (JSON オブジェクト) を取り込む")
	flag.Parse()

	if err := config.LoadConfig(*configDir); err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	cfg := &config.Cfg
	logger := middleware.NewAppLogger(os.Stderr, cfg.Log, os.Getenv("APP_ENV"))
	slog.SetDefault(logger)

	userID, err := uuid.Parse(*userFlag)
	if err != nil {
		logger.Error("Invalid -user", slog.String("value", *userFlag), slog.Any("error", err))
		os.Exit(2)
	}

	courses, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		logger.Error("Error loading course catalog", slog.Any("error", err))
		os.Exit(1)
	}

	var in io.Reader = os.Stdin
	if *eventsPath != "-" {
		f, err := os.Open(*eventsPath)
		if err != nil {
			logger.Error("Failed to open events", slog.Any("error", err))
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}
	events, err := readEvents(in)
	if err != nil {
		logger.Error("Failed to parse events", slog.Any("error", err))
		os.Exit(1)
	}

	bearer := *token
	if bearer == "" && cfg.JWT.SecretKey != "" {
		bearer, err = middleware.IssueToken(cfg.JWT, userID, model.RoleLearner, time.Hour)
		if err != nil {
			logger.Error("Failed to issue token", slog.Any("error", err))
			os.Exit(1)
		}
	}

	cache, err := localcache.OpenSQLite(cfg.Cache.Path, logger)
	if err != nil {
		logger.Error("Failed to open local cache", slog.Any("error", err))
		os.Exit(1)
	}
	defer cache.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = middleware.WithLogger(ctx, logger)

	if *legacyPath != "" {
		n, err := importLegacy(ctx, cache, *legacyPath)
		if err != nil {
			logger.Error("Failed to import legacy cache", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Legacy cache imported", slog.Int("entries", n))
	}

	sess := session.New(bearer, func() {
		logger.Warn("Login required, stopping sync until the next login")
	})
	remote := syncclient.NewHTTPStore(cfg.Sync.RemoteBaseURL, cfg.Sync.RequestTimeout, sess.Token)
	client := syncclient.New(remote, syncclient.OptionsFromConfig(cfg.Sync, logger))
	defer client.Close()

	tr := tracker.New(userID, progress.PolicyFromConfig(cfg.Progress), cache, remote, client, sess, courses.Courses(), logger)

	if err := replay(ctx, tr, client, events, logger); err != nil {
		logger.Error("Replay failed", slog.Any("error", err))
		os.Exit(1)
	}
	if err := client.Flush(ctx); err != nil {
		logger.Warn("Pending progress could not be flushed", slog.Any("error", err))
	}
	logger.Info("Replay finished", slog.Int("events", len(events)))
}

func importLegacy(ctx context.Context, store localcache.Store, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var flat map[string]string
	if err := json.Unmarshal(data, &flat); err != nil {
		return 0, err
	}
	return localcache.ImportLegacy(ctx, store, flat)
}
