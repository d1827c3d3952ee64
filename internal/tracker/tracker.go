// Package tracker は学習者側の進捗追跡をまとめる。
// スクロール・クイズの結果をまずローカルキャッシュに書き、その後同期クライアントで送る
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go_course_progress/internal/localcache"
	"go_course_progress/internal/model"
	"go_course_progress/internal/progress"
	"go_course_progress/internal/session"
	"go_course_progress/internal/syncclient"

	"github.com/google/uuid"
	"github.com/jinzhu/now"
)

// Scheduler は同期クライアントのうちトラッカーが使う部分
type Scheduler interface {
	Schedule(u model.ProgressUpdate) error
	Flush(ctx context.Context) error
	SetOnResult(fn func(syncclient.SyncResult))
}

// 表示値の出どころ
const (
	SourceNone   = "none"
	SourceCache  = "cache"
	SourceRemote = "remote"
)

// UnitView はユニットを開いたときの表示用の状態
type UnitView struct {
	Key           localcache.UnitKey
	Percent       float64
	QuizCompleted bool
	State         model.UnitState
	Source        string
}

type Tracker struct {
	userID  uuid.UUID
	policy  progress.Policy
	gate    *progress.QuizGate
	cache   localcache.Store
	remote  syncclient.RemoteStore
	sync    Scheduler
	session *session.State
	courses map[uint]model.Course
	logger  *slog.Logger
	clock   func() time.Time

	mu       sync.Mutex
	monitors map[localcache.UnitKey]*progress.ScrollMonitor
}

func New(
	userID uuid.UUID,
	policy progress.Policy,
	cache localcache.Store,
	remote syncclient.RemoteStore,
	scheduler Scheduler,
	sess *session.State,
	courses []model.Course,
	logger *slog.Logger,
) *Tracker {
	t := &Tracker{
		userID:   userID,
		policy:   policy,
		gate:     progress.NewQuizGate(policy),
		cache:    cache,
		remote:   remote,
		sync:     scheduler,
		session:  sess,
		courses:  make(map[uint]model.Course, len(courses)),
		logger:   logger,
		clock:    time.Now,
		monitors: make(map[localcache.UnitKey]*progress.ScrollMonitor),
	}
	for _, c := range courses {
		t.courses[c.ID] = c
	}
	scheduler.SetOnResult(t.handleResult)
	return t
}

// WithClock はテスト用に時計を差し替える
func (t *Tracker) WithClock(clock func() time.Time) *Tracker {
	t.clock = clock
	t.gate.WithClock(clock)
	return t
}

func (t *Tracker) unitKey(k localcache.UnitKey) model.UnitKey {
	return model.UnitKey{UserID: t.userID, CourseID: k.CourseID, UnitID: k.UnitID}
}

// OpenUnit はユニットを開き、キャッシュとリモートの値を突き合わせる。
// リモートが合格済みならそれを採用し、そうでなければ大きい方を使う。
// リモートが取得できなくてもキャッシュの値で続行する
func (t *Tracker) OpenUnit(ctx context.Context, courseID, unitID uint) (UnitView, error) {
	key := localcache.UnitKey{CourseID: courseID, UnitID: unitID}
	view := UnitView{Key: key, Source: SourceNone}
	var score *float64

	cached, ok, err := t.cache.GetUnit(ctx, key)
	if err != nil {
		return UnitView{}, fmt.Errorf("tracker.OpenUnit: read cache: %w", err)
	}
	if ok {
		view.Percent = cached.Percent
		view.QuizCompleted = cached.QuizCompleted
		score = cached.QuizScore
		view.Source = SourceCache
	}

	var remote *model.UnitProgress
	if t.session.Authenticated() {
		row, err := t.remote.FetchUnit(ctx, courseID, unitID)
		switch {
		case err == nil:
			p := syncclient.FromResponse(row)
			remote = &p
		case errors.Is(err, model.ErrNotFound):
		case errors.Is(err, model.ErrUnauthorized):
			t.session.Unauthorized()
		default:
			t.logger.Warn("Failed to fetch remote progress, using cached value",
				slog.String("unit", key.String()), slog.Any("error", err))
		}
	}

	pushLocal := false
	var remoteFinish *time.Time
	if remote != nil {
		switch {
		case remote.QuizCompleted:
			view.Percent = progress.CompletePercent
			view.QuizCompleted = true
			view.Source = SourceRemote
			remoteFinish = remote.FinishDate
			if remote.QuizScore != nil {
				score = remote.QuizScore
			}
		case view.QuizCompleted:
			// ローカルだけ合格済み (未送信)
			pushLocal = true
		case remote.Percent >= view.Percent:
			view.Percent = remote.Percent
			view.Source = SourceRemote
			if score == nil {
				score = remote.QuizScore
			}
		default:
			pushLocal = true
		}
	}

	entry := localcache.UnitEntry{Percent: view.Percent, QuizCompleted: view.QuizCompleted, QuizScore: score}
	if view.Source != SourceNone {
		if err := t.cache.PutUnit(ctx, key, entry); err != nil {
			return UnitView{}, fmt.Errorf("tracker.OpenUnit: write cache: %w", err)
		}
	}
	if remoteFinish != nil {
		if err := t.recordCourseFinish(ctx, courseID, *remoteFinish); err != nil {
			return UnitView{}, err
		}
	}

	monitor := progress.NewScrollMonitor(t.policy, view.Percent, view.QuizCompleted)
	view.Percent = monitor.Highest()
	t.mu.Lock()
	t.monitors[key] = monitor
	t.mu.Unlock()

	if pushLocal {
		t.schedule(model.ProgressUpdate{
			Key:       t.unitKey(key),
			Percent:   view.Percent,
			Completed: view.QuizCompleted,
			QuizScore: score,
			Attempted: score != nil,
		})
	}

	row := model.UnitProgress{Percent: view.Percent, QuizCompleted: view.QuizCompleted}
	view.State = row.State(t.policy.PassiveCap)
	t.logger.Debug("Unit opened",
		slog.String("unit", key.String()),
		slog.Float64("percent", view.Percent),
		slog.String("source", view.Source),
	)
	return view, nil
}

func (t *Tracker) monitor(ctx context.Context, key localcache.UnitKey) (*progress.ScrollMonitor, error) {
	t.mu.Lock()
	m, ok := t.monitors[key]
	t.mu.Unlock()
	if ok {
		return m, nil
	}
	if _, err := t.OpenUnit(ctx, key.CourseID, key.UnitID); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.monitors[key], nil
}

// OnScroll はスクロールイベントを処理する。チェックポイントを越えたときだけ書き込みが発生する
func (t *Tracker) OnScroll(ctx context.Context, courseID, unitID uint, sample progress.ScrollSample) (progress.Reading, error) {
	key := localcache.UnitKey{CourseID: courseID, UnitID: unitID}
	m, err := t.monitor(ctx, key)
	if err != nil {
		return progress.Reading{}, err
	}

	reading, em := m.Observe(sample)
	if em == nil {
		return reading, nil
	}
	if err := t.storeUnit(ctx, key, localcache.UnitEntry{Percent: em.Percent, QuizCompleted: em.Completed}); err != nil {
		return reading, fmt.Errorf("tracker.OnScroll: write cache: %w", err)
	}
	t.logger.Debug("Checkpoint reached",
		slog.String("unit", key.String()),
		slog.Any("checkpoints", em.Checkpoints),
		slog.Float64("percent", em.Percent),
	)
	t.schedule(model.ProgressUpdate{Key: t.unitKey(key), Percent: em.Percent, Completed: em.Completed})
	return reading, nil
}

// SubmitQuiz はクイズを採点し、結果をキャッシュと同期クライアントに渡す
func (t *Tracker) SubmitQuiz(ctx context.Context, courseID, unitID uint, questions []model.QuizQuestion, answers []*int) (model.QuizResult, error) {
	key := localcache.UnitKey{CourseID: courseID, UnitID: unitID}
	m, err := t.monitor(ctx, key)
	if err != nil {
		return model.QuizResult{}, err
	}

	result, update, err := t.gate.Evaluate(t.unitKey(key), questions, answers)
	if err != nil {
		return model.QuizResult{}, err
	}
	if result.Passed {
		m.MarkQuizCompleted()
	} else {
		m.Absorb(update.Percent, false)
	}
	update.Percent = m.Highest()
	update.Completed = m.QuizCompleted()

	if err := t.storeUnit(ctx, key, localcache.UnitEntry{Percent: update.Percent, QuizCompleted: update.Completed, QuizScore: update.QuizScore}); err != nil {
		return result, fmt.Errorf("tracker.SubmitQuiz: write cache: %w", err)
	}
	if result.Passed {
		if err := t.recordCourseFinish(ctx, courseID, *update.FinishDate); err != nil {
			return result, err
		}
	}
	t.logger.Info("Quiz submitted",
		slog.String("unit", key.String()),
		slog.Float64("score", result.Score),
		slog.Bool("passed", result.Passed),
	)
	t.schedule(update)
	return result, nil
}

// storeUnit はキャッシュに書く。点数はサーバーと同じ規則で残す:
// 指定がなければ既存の点数、合格済みのユニットでは高い方
func (t *Tracker) storeUnit(ctx context.Context, key localcache.UnitKey, entry localcache.UnitEntry) error {
	cur, ok, err := t.cache.GetUnit(ctx, key)
	if err != nil {
		return err
	}
	if ok && cur.QuizScore != nil &&
		(entry.QuizScore == nil || (cur.QuizCompleted && *cur.QuizScore > *entry.QuizScore)) {
		entry.QuizScore = cur.QuizScore
	}
	return t.cache.PutUnit(ctx, key, entry)
}

// recordCourseFinish はコースの全ユニットがキャッシュ上で合格済みなら完了日を記録する (初回のみ)
func (t *Tracker) recordCourseFinish(ctx context.Context, courseID uint, date time.Time) error {
	course, ok := t.courses[courseID]
	if !ok || course.TotalUnits() == 0 {
		return nil
	}
	ck := localcache.CourseKey{CourseID: courseID}
	if _, ok, err := t.cache.GetFinishedDate(ctx, ck); err != nil {
		return fmt.Errorf("tracker: read finished date: %w", err)
	} else if ok {
		return nil
	}
	for _, u := range course.Units {
		e, ok, err := t.cache.GetUnit(ctx, localcache.UnitKey{CourseID: courseID, UnitID: u.ID})
		if err != nil {
			return fmt.Errorf("tracker: read cache: %w", err)
		}
		if !ok || !e.QuizCompleted {
			return nil
		}
	}
	if err := t.cache.PutFinishedDate(ctx, ck, now.With(date).BeginningOfDay()); err != nil {
		return fmt.Errorf("tracker: write finished date: %w", err)
	}
	t.logger.Info("Course finished", slog.Uint64("course_id", uint64(courseID)))
	return nil
}

// FinishedDate はキャッシュ上のコース完了日
func (t *Tracker) FinishedDate(ctx context.Context, courseID uint) (time.Time, bool, error) {
	return t.cache.GetFinishedDate(ctx, localcache.CourseKey{CourseID: courseID})
}

func (t *Tracker) schedule(u model.ProgressUpdate) {
	if !t.session.Authenticated() {
		// 未認証の間はローカルにだけ残す
		return
	}
	if err := t.sync.Schedule(u); err != nil {
		t.logger.Warn("Failed to schedule progress sync", slog.String("unit", u.Key.String()), slog.Any("error", err))
	}
}

// handleResult は同期結果を受け取る。401 ならセッションを未認証にし、リダイレクトを1回だけ発生させる
func (t *Tracker) handleResult(res syncclient.SyncResult) {
	if res.OK() {
		return
	}
	if res.Err.Unauthorized {
		if t.session.Unauthorized() {
			t.logger.Warn("Session expired, redirecting to login")
		}
	}
}

// Logout は未送信の更新を送り切ってからキャッシュを消去する
func (t *Tracker) Logout(ctx context.Context) error {
	if err := t.sync.Flush(ctx); err != nil {
		t.logger.Warn("Failed to flush pending progress on logout", slog.Any("error", err))
	}
	if err := t.cache.ClearAll(ctx); err != nil {
		return fmt.Errorf("tracker.Logout: clear cache: %w", err)
	}
	t.mu.Lock()
	clear(t.monitors)
	t.mu.Unlock()
	t.session.Logout()
	return nil
}
