package tracker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"go_course_progress/internal/localcache"
	"go_course_progress/internal/model"
	"go_course_progress/internal/progress"
	"go_course_progress/internal/session"
	"go_course_progress/internal/syncclient"
	"go_course_progress/internal/syncclient/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// recordingScheduler は予約された更新を記録するだけ
type recordingScheduler struct {
	mu       sync.Mutex
	updates  []model.ProgressUpdate
	flushed  int
	onResult func(syncclient.SyncResult)
}

func (s *recordingScheduler) Schedule(u model.ProgressUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, u)
	return nil
}

func (s *recordingScheduler) Flush(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushed++
	return nil
}

func (s *recordingScheduler) SetOnResult(fn func(syncclient.SyncResult)) {
	s.onResult = fn
}

func (s *recordingScheduler) scheduled() []model.ProgressUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ProgressUpdate(nil), s.updates...)
}

type fixture struct {
	tracker   *Tracker
	cache     *localcache.MemoryStore
	remote    *mocks.RemoteStore
	scheduler *recordingScheduler
	session   *session.State
	redirects *int
	userID    uuid.UUID
}

var today = time.Date(2026, 9, 30, 10, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	redirects := 0
	f := &fixture{
		cache:     localcache.NewMemoryStore(),
		remote:    mocks.NewRemoteStore(t),
		scheduler: &recordingScheduler{},
		redirects: &redirects,
		userID:    uuid.New(),
	}
	f.session = session.New("token", func() { redirects++ })
	course := model.Course{ID: 1, Title: "Go入門", Units: []model.Unit{{ID: 1}, {ID: 2}}}
	f.tracker = New(f.userID, progress.DefaultPolicy(), f.cache, f.remote, f.scheduler, f.session,
		[]model.Course{course}, slog.New(slog.NewTextHandler(io.Discard, nil))).
		WithClock(func() time.Time { return today })
	return f
}

func scroll(r float64) progress.ScrollSample {
	return progress.ScrollSample{ScrollTop: r * 10, ScrollHeight: 1100, ClientHeight: 100}
}

func intp(v int) *int { return &v }

func TestTracker_OpenUnit_Reconcile(t *testing.T) {
	ctx := context.Background()
	ck := localcache.UnitKey{CourseID: 1, UnitID: 1}

	t.Run("正常系: キャッシュもリモートもなければ0%", func(t *testing.T) {
		f := newFixture(t)
		f.remote.On("FetchUnit", ctx, uint(1), uint(1)).Return(nil, model.ErrNotFound).Once()

		view, err := f.tracker.OpenUnit(ctx, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, 0.0, view.Percent)
		assert.Equal(t, SourceNone, view.Source)
		assert.Equal(t, model.UnitNotStarted, view.State)
		assert.Empty(t, f.scheduler.scheduled())
	})

	t.Run("正常系: リモートの方が大きければリモートを採用", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.cache.PutUnit(ctx, ck, localcache.UnitEntry{Percent: 30}))
		f.remote.On("FetchUnit", ctx, uint(1), uint(1)).Return(&model.ProgressResponse{Percent: 75}, nil).Once()

		view, err := f.tracker.OpenUnit(ctx, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, 75.0, view.Percent)
		assert.Equal(t, SourceRemote, view.Source)

		cached, _, err := f.cache.GetUnit(ctx, ck)
		require.NoError(t, err)
		assert.Equal(t, 75.0, cached.Percent)
		assert.Empty(t, f.scheduler.scheduled())
	})

	t.Run("正常系: キャッシュの方が大きければリモートへ送り直す", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.cache.PutUnit(ctx, ck, localcache.UnitEntry{Percent: 50}))
		f.remote.On("FetchUnit", ctx, uint(1), uint(1)).Return(&model.ProgressResponse{Percent: 25}, nil).Once()

		view, err := f.tracker.OpenUnit(ctx, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, 50.0, view.Percent)
		assert.Equal(t, SourceCache, view.Source)

		sched := f.scheduler.scheduled()
		require.Len(t, sched, 1)
		assert.Equal(t, 50.0, sched[0].Percent)
		assert.Equal(t, f.userID, sched[0].Key.UserID)
	})

	t.Run("正常系: ローカルだけ合格済みなら点数も送り直す", func(t *testing.T) {
		f := newFixture(t)
		score := 80.0
		require.NoError(t, f.cache.PutUnit(ctx, ck, localcache.UnitEntry{Percent: 100, QuizCompleted: true, QuizScore: &score}))
		f.remote.On("FetchUnit", ctx, uint(1), uint(1)).Return(&model.ProgressResponse{Percent: 95}, nil).Once()

		view, err := f.tracker.OpenUnit(ctx, 1, 1)
		require.NoError(t, err)
		assert.True(t, view.QuizCompleted)

		sched := f.scheduler.scheduled()
		require.Len(t, sched, 1)
		assert.True(t, sched[0].Completed)
		assert.True(t, sched[0].Attempted)
		require.NotNil(t, sched[0].QuizScore)
		assert.Equal(t, 80.0, *sched[0].QuizScore)
	})

	t.Run("正常系: リモートが合格済みなら100", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.cache.PutUnit(ctx, ck, localcache.UnitEntry{Percent: 95}))
		d := "2026-09-01"
		f.remote.On("FetchUnit", ctx, uint(1), uint(1)).
			Return(&model.ProgressResponse{Percent: 100, Completed: true, FinishDate: &d}, nil).Once()

		view, err := f.tracker.OpenUnit(ctx, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, 100.0, view.Percent)
		assert.True(t, view.QuizCompleted)
		assert.Equal(t, model.UnitCompleted, view.State)
	})

	t.Run("正常系: リモート取得失敗でもキャッシュで続行", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.cache.PutUnit(ctx, ck, localcache.UnitEntry{Percent: 60}))
		f.remote.On("FetchUnit", ctx, uint(1), uint(1)).Return(nil, errors.New("timeout")).Once()

		view, err := f.tracker.OpenUnit(ctx, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, 60.0, view.Percent)
		assert.Equal(t, SourceCache, view.Source)
	})

	t.Run("異常系: 401ならリダイレクトを1回だけ発生させる", func(t *testing.T) {
		f := newFixture(t)
		f.remote.On("FetchUnit", ctx, uint(1), uint(1)).Return(nil, model.ErrUnauthorized).Once()

		_, err := f.tracker.OpenUnit(ctx, 1, 1)
		require.NoError(t, err)
		assert.False(t, f.session.Authenticated())

		// 未認証の間はリモートを読まない
		_, err = f.tracker.OpenUnit(ctx, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, 1, *f.redirects)
	})
}

func TestTracker_OnScroll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.remote.On("FetchUnit", ctx, uint(1), uint(1)).Return(nil, model.ErrNotFound).Once()

	_, err := f.tracker.OpenUnit(ctx, 1, 1)
	require.NoError(t, err)

	for _, r := range []float64{10, 30, 20, 60, 100, 100} {
		_, err := f.tracker.OnScroll(ctx, 1, 1, scroll(r))
		require.NoError(t, err)
	}

	sched := f.scheduler.scheduled()
	require.Len(t, sched, 3, "25, 50, 95(75と同時) の3回")
	assert.Equal(t, 30.0, sched[0].Percent)
	assert.Equal(t, 60.0, sched[1].Percent)
	assert.Equal(t, 95.0, sched[2].Percent)
	assert.False(t, sched[2].Completed)

	cached, ok, err := f.cache.GetUnit(ctx, localcache.UnitKey{CourseID: 1, UnitID: 1})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 95.0, cached.Percent, "キャッシュは送信より先に書かれる")
}

func TestTracker_SubmitQuiz(t *testing.T) {
	ctx := context.Background()
	qs := []model.QuizQuestion{
		{Question: "a", Options: []string{"x", "y"}, Answer: 1},
		{Question: "b", Options: []string{"x", "y"}, Answer: 2},
	}

	t.Run("正常系: 不合格は95で未完了", func(t *testing.T) {
		f := newFixture(t)
		f.remote.On("FetchUnit", ctx, uint(1), uint(1)).Return(nil, model.ErrNotFound).Once()

		res, err := f.tracker.SubmitQuiz(ctx, 1, 1, qs, []*int{intp(0), intp(0)})
		require.NoError(t, err)
		assert.False(t, res.Passed)
		assert.Equal(t, 50.0, res.Score)

		sched := f.scheduler.scheduled()
		require.Len(t, sched, 1)
		assert.Equal(t, 95.0, sched[0].Percent)
		assert.False(t, sched[0].Completed)
		assert.True(t, sched[0].Attempted)
	})

	t.Run("正常系: 全ユニット合格でコース完了日を記録", func(t *testing.T) {
		f := newFixture(t)
		f.remote.On("FetchUnit", ctx, uint(1), mock.Anything).Return(nil, model.ErrNotFound).Twice()

		res, err := f.tracker.SubmitQuiz(ctx, 1, 1, qs, []*int{intp(0), intp(1)})
		require.NoError(t, err)
		assert.True(t, res.Passed)

		_, ok, err := f.tracker.FinishedDate(ctx, 1)
		require.NoError(t, err)
		assert.False(t, ok, "まだユニット2が残っている")

		_, err = f.tracker.SubmitQuiz(ctx, 1, 2, qs, []*int{intp(0), intp(1)})
		require.NoError(t, err)

		d, ok, err := f.tracker.FinishedDate(ctx, 1)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "2026-09-30", d.Format(model.DateLayout))

		sched := f.scheduler.scheduled()
		require.Len(t, sched, 2)
		assert.Equal(t, 100.0, sched[1].Percent)
		assert.True(t, sched[1].Completed)
		require.NotNil(t, sched[1].FinishDate)

		// 合格後のスクロールでは書き込みが発生しない
		reading, err := f.tracker.OnScroll(ctx, 1, 1, scroll(0))
		require.NoError(t, err)
		assert.Equal(t, 100.0, reading.Percent)
		assert.Len(t, f.scheduler.scheduled(), 2)
	})

	t.Run("正常系: 合格後の不合格でも完了は維持", func(t *testing.T) {
		f := newFixture(t)
		f.remote.On("FetchUnit", ctx, uint(1), uint(1)).Return(nil, model.ErrNotFound).Once()

		_, err := f.tracker.SubmitQuiz(ctx, 1, 1, qs, []*int{intp(0), intp(1)})
		require.NoError(t, err)
		_, err = f.tracker.SubmitQuiz(ctx, 1, 1, qs, []*int{nil, nil})
		require.NoError(t, err)

		sched := f.scheduler.scheduled()
		require.Len(t, sched, 2)
		assert.True(t, sched[1].Completed)
		assert.Equal(t, 100.0, sched[1].Percent)
		assert.Equal(t, 0.0, *sched[1].QuizScore)

		cached, _, err := f.cache.GetUnit(ctx, localcache.UnitKey{CourseID: 1, UnitID: 1})
		require.NoError(t, err)
		require.NotNil(t, cached.QuizScore)
		assert.Equal(t, 100.0, *cached.QuizScore, "合格済みの点数は下がらない")
	})

	t.Run("異常系: 回答数が合わない", func(t *testing.T) {
		f := newFixture(t)
		f.remote.On("FetchUnit", ctx, uint(1), uint(1)).Return(nil, model.ErrNotFound).Once()

		_, err := f.tracker.SubmitQuiz(ctx, 1, 1, qs, []*int{intp(0)})
		assert.ErrorIs(t, err, model.ErrInvalidInput)
		assert.Empty(t, f.scheduler.scheduled())
	})
}

func TestTracker_SyncUnauthorizedAndLogout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.remote.On("FetchUnit", ctx, uint(1), uint(1)).Return(nil, model.ErrNotFound).Once()

	_, err := f.tracker.OnScroll(ctx, 1, 1, scroll(30))
	require.NoError(t, err)

	// 同期クライアントから 401 が2回届いてもリダイレクトは1回
	unauthorized := syncclient.SyncResult{Err: &syncclient.SyncError{StatusCode: 401, Unauthorized: true}}
	f.scheduler.onResult(unauthorized)
	f.scheduler.onResult(unauthorized)
	assert.Equal(t, 1, *f.redirects)
	assert.False(t, f.session.Authenticated())

	// 未認証の間はキャッシュにだけ書く
	_, err = f.tracker.OnScroll(ctx, 1, 1, scroll(60))
	require.NoError(t, err)
	assert.Len(t, f.scheduler.scheduled(), 1)

	require.NoError(t, f.tracker.Logout(ctx))
	assert.Equal(t, 1, f.scheduler.flushed)
	snap, err := f.cache.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Units)
	assert.False(t, f.session.RedirectInFlight())
}
