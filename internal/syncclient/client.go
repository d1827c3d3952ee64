// Package syncclient はローカルで確定した進捗をリモートストアへ送る。
// ユニットごとにデバウンスし、同じユニットの送信は常に1件だけ実行する
package syncclient

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go_course_progress/internal/config"
	"go_course_progress/internal/model"
)

type Options struct {
	Window   time.Duration    // デバウンス間隔
	Timeout  time.Duration    // 1回の送信のタイムアウト
	OnResult func(SyncResult) // 送信結果の通知 (送信したゴルーチンから呼ばれる)
	Logger   *slog.Logger
}

// OptionsFromConfig は設定値から Options を作る
func OptionsFromConfig(cfg config.SyncConfig, logger *slog.Logger) Options {
	return Options{Window: cfg.DebounceWindow, Timeout: cfg.RequestTimeout, Logger: logger}
}

// unitQueue はユニットごとの送信状態
type unitQueue struct {
	pending  *PendingWrite
	timer    *time.Timer
	gen      uint64 // 古いタイマーの発火を無視するための世代
	inFlight bool
	due      bool          // 送信中にタイマーが発火した
	done     chan struct{} // 送信チェーンの終了で close
}

// Client はキー付きのデバウンススケジューラ
type Client struct {
	store RemoteStore
	opts  Options

	mu     sync.Mutex
	units  map[model.UnitKey]*unitQueue
	seq    uint64
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(store RemoteStore, opts Options) *Client {
	if opts.Window <= 0 {
		opts.Window = config.DefaultDebounceWindow
	}
	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultRequestTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		store:  store,
		opts:   opts,
		units:  make(map[model.UnitKey]*unitQueue),
		ctx:    ctx,
		cancel: cancel,
	}
}

// SetOnResult は結果の通知先を差し替える (トラッカーが自身を登録する)
func (c *Client) SetOnResult(fn func(SyncResult)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opts.OnResult = fn
}

// Schedule は更新を予約する。同じユニットの未送信の更新があればまとめ、タイマーを再始動する
func (c *Client) Schedule(u model.ProgressUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	q, ok := c.units[u.Key]
	if !ok {
		q = &unitQueue{}
		c.units[u.Key] = q
	}
	if q.pending != nil {
		u = q.pending.Update.Coalesce(u)
	}
	c.seq++
	q.pending = &PendingWrite{Key: u.Key, Update: u, Seq: c.seq, QueuedAt: time.Now()}

	if q.timer != nil {
		q.timer.Stop()
	}
	q.gen++
	gen, key := q.gen, u.Key
	q.timer = time.AfterFunc(c.opts.Window, func() { c.fire(key, gen) })
	return nil
}

// Pending は未送信の更新数
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, q := range c.units {
		if q.pending != nil {
			n++
		}
	}
	return n
}

func (c *Client) fire(key model.UnitKey, gen uint64) {
	c.mu.Lock()
	q, ok := c.units[key]
	if !ok || q.gen != gen || q.pending == nil || c.closed {
		c.mu.Unlock()
		return
	}
	q.timer = nil
	if q.inFlight {
		q.due = true
		c.mu.Unlock()
		return
	}
	w := c.startLocked(q)
	c.mu.Unlock()

	c.run(key, w)
}

// startLocked は未送信の更新を取り出して送信中にする。c.mu を保持して呼ぶ
func (c *Client) startLocked(q *unitQueue) PendingWrite {
	w := *q.pending
	q.pending = nil
	q.due = false
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	if !q.inFlight {
		q.inFlight = true
		q.done = make(chan struct{})
		c.wg.Add(1)
	}
	return w
}

// run は1ユニットの送信を行い、送信中に期限を迎えた更新があれば続けて送る
func (c *Client) run(key model.UnitKey, w PendingWrite) {
	defer c.wg.Done()
	for {
		result := c.send(w)

		c.mu.Lock()
		hook := c.opts.OnResult
		c.mu.Unlock()
		if hook != nil {
			hook(result)
		}

		c.mu.Lock()
		q := c.units[key]
		if q.pending == nil || !q.due || c.closed {
			q.inFlight = false
			close(q.done)
			q.done = nil
			if q.pending == nil && q.timer == nil {
				delete(c.units, key)
			}
			c.mu.Unlock()
			return
		}
		w = c.startLocked(q)
		c.mu.Unlock()
	}
}

func (c *Client) send(w PendingWrite) SyncResult {
	ctx, cancel := context.WithTimeout(c.ctx, c.opts.Timeout)
	defer cancel()

	start := time.Now()
	row, err := c.store.Upsert(ctx, w.Update)
	result := SyncResult{Write: w, Duration: time.Since(start)}
	logger := c.opts.Logger.With(
		slog.String("unit", w.Key.String()),
		slog.Uint64("seq", w.Seq),
		slog.Float64("percent", w.Update.Percent),
	)
	if err != nil {
		result.Err = classify(err)
		logger.Warn("Progress sync failed",
			slog.Int("status", result.Err.StatusCode),
			slog.Bool("transient", result.Err.Transient),
			slog.Any("error", err),
		)
		return result
	}
	result.Ack = &Ack{Row: row}
	logger.Debug("Progress synced", slog.Duration("duration", result.Duration))
	return result
}

// Flush は未送信の更新をすぐに送り、送信中のものも含めて終わるまで待つ
func (c *Client) Flush(ctx context.Context) error {
	type job struct {
		key model.UnitKey
		w   PendingWrite
	}
	var jobs []job
	var waits []chan struct{}

	c.mu.Lock()
	for key, q := range c.units {
		if q.pending != nil {
			if q.inFlight {
				// 送信中のチェーンが終わり次第送る
				q.due = true
				if q.timer != nil {
					q.timer.Stop()
					q.timer = nil
				}
			} else {
				jobs = append(jobs, job{key: key, w: c.startLocked(q)})
			}
		}
		if q.done != nil {
			waits = append(waits, q.done)
		}
	}
	c.mu.Unlock()

	for _, j := range jobs {
		go c.run(j.key, j.w)
	}
	for _, done := range waits {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Close は未送信の更新を破棄し、送信中のリクエストを中断して終了を待つ。
// 送り切る必要がある場合は先に Flush を呼ぶ
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	dropped := 0
	for key, q := range c.units {
		if q.timer != nil {
			q.timer.Stop()
			q.timer = nil
		}
		if q.pending != nil {
			dropped++
			q.pending = nil
		}
		if !q.inFlight {
			delete(c.units, key)
		}
	}
	c.mu.Unlock()

	if dropped > 0 {
		c.opts.Logger.Warn("Sync client closed with pending writes", slog.Int("dropped", dropped))
	}
	c.cancel()
	c.wg.Wait()
}
