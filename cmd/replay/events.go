package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go_course_progress/internal/model"
	"go_course_progress/internal/progress"
	"go_course_progress/internal/tracker"
)

// イベント種別
const (
	eventOpen   = "open"
	eventScroll = "scroll"
	eventQuiz   = "quiz"
	eventWait   = "wait"
	eventFlush  = "flush"
	eventLogout = "logout"
)

// event は JSON Lines の1行
type event struct {
	Type         string               `json:"type"`
	CourseID     uint                 `json:"course_id"`
	UnitID       uint                 `json:"unit_id"`
	ScrollTop    float64              `json:"scroll_top"`
	ScrollHeight float64              `json:"scroll_height"`
	ClientHeight float64              `json:"client_height"`
	Questions    []model.QuizQuestion `json:"questions"`
	Answers      []*int               `json:"answers"`
	WaitMS       int                  `json:"wait_ms"`
}

// readEvents は空行を読み飛ばし、不明な種別は行番号付きでエラーにする
func readEvents(r io.Reader) ([]event, error) {
	var events []event
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ev event
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		switch ev.Type {
		case eventOpen, eventScroll, eventQuiz:
			if ev.CourseID == 0 || ev.UnitID == 0 {
				return nil, fmt.Errorf("line %d: %s requires course_id and unit_id", line, ev.Type)
			}
		case eventWait, eventFlush, eventLogout:
		default:
			return nil, fmt.Errorf("line %d: unknown event type %q", line, ev.Type)
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// replayer はトラッカーのうちリプレイで使う操作
type replayer interface {
	OpenUnit(ctx context.Context, courseID, unitID uint) (tracker.UnitView, error)
	OnScroll(ctx context.Context, courseID, unitID uint, sample progress.ScrollSample) (progress.Reading, error)
	SubmitQuiz(ctx context.Context, courseID, unitID uint, questions []model.QuizQuestion, answers []*int) (model.QuizResult, error)
	Logout(ctx context.Context) error
}

type flusher interface {
	Flush(ctx context.Context) error
}

// replay はイベントを順に適用する。1件でも失敗したらそこで止める
func replay(ctx context.Context, t replayer, f flusher, events []event, logger *slog.Logger) error {
	for i, ev := range events {
		var err error
		switch ev.Type {
		case eventOpen:
			var view tracker.UnitView
			view, err = t.OpenUnit(ctx, ev.CourseID, ev.UnitID)
			if err == nil {
				logger.Info("Unit opened", "course_id", ev.CourseID, "unit_id", ev.UnitID,
					"percent", view.Percent, "state", view.State, "source", view.Source)
			}
		case eventScroll:
			var reading progress.Reading
			reading, err = t.OnScroll(ctx, ev.CourseID, ev.UnitID, progress.ScrollSample{
				ScrollTop: ev.ScrollTop, ScrollHeight: ev.ScrollHeight, ClientHeight: ev.ClientHeight,
			})
			if err == nil {
				logger.Debug("Scrolled", "course_id", ev.CourseID, "unit_id", ev.UnitID, "raw", reading.Raw, "percent", reading.Percent)
			}
		case eventQuiz:
			var result model.QuizResult
			result, err = t.SubmitQuiz(ctx, ev.CourseID, ev.UnitID, ev.Questions, ev.Answers)
			if err == nil {
				logger.Info("Quiz graded", "course_id", ev.CourseID, "unit_id", ev.UnitID,
					"score", result.Score, "passed", result.Passed)
			}
		case eventWait:
			select {
			case <-time.After(time.Duration(ev.WaitMS) * time.Millisecond):
			case <-ctx.Done():
				err = ctx.Err()
			}
		case eventFlush:
			err = f.Flush(ctx)
		case eventLogout:
			err = t.Logout(ctx)
		}
		if err != nil {
			return fmt.Errorf("event %d (%s): %w", i+1, ev.Type, err)
		}
	}
	return nil
}
