package syncclient

import (
	"errors"
	"fmt"
	"time"

	"go_course_progress/internal/model"
)

// ErrClosed は Close 後に書き込みを予約したときのエラー
var ErrClosed = errors.New("sync client closed")

// PendingWrite は未送信の書き込み (ユニットごとに最大1件)
type PendingWrite struct {
	Key      model.UnitKey
	Update   model.ProgressUpdate
	Seq      uint64
	QueuedAt time.Time
}

// Ack はリモートストアが書き込みを受け付けた結果
type Ack struct {
	Row *model.ProgressResponse
}

// SyncError は送信失敗。再送はせず、次のチェックポイントで最新状態が送られる
type SyncError struct {
	StatusCode   int // HTTP ステータス (通信エラーは 0)
	Transient    bool
	Unauthorized bool
	Err          error
}

func (e *SyncError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("sync failed with status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("sync failed: %v", e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// SyncResult は1回の送信結果。Ack と Err のどちらか一方が設定される
type SyncResult struct {
	Write    PendingWrite
	Ack      *Ack
	Err      *SyncError
	Duration time.Duration
}

func (r SyncResult) OK() bool {
	return r.Err == nil
}

// classify は RemoteStore のエラーを SyncError に変換する
func classify(err error) *SyncError {
	se := &SyncError{Err: err, Transient: true}
	var st *StatusError
	if errors.As(err, &st) {
		se.StatusCode = st.StatusCode
		se.Transient = st.StatusCode >= 500 || st.StatusCode == 429
	}
	se.Unauthorized = errors.Is(err, model.ErrUnauthorized)
	return se
}
