// Package localcache は学習者側のローカル進捗キャッシュ。
// (course, unit) と course をキーにした型付きストアで、列挙と全消去を直接サポートする
package localcache

import (
	"context"
	"fmt"
	"time"
)

// UnitKey はキャッシュ内のユニットキー (ユーザーはセッションで決まる)
type UnitKey struct {
	CourseID uint
	UnitID   uint
}

func (k UnitKey) String() string {
	return fmt.Sprintf("%d/%d", k.CourseID, k.UnitID)
}

// CourseKey はコース単位の値 (完了日) のキー
type CourseKey struct {
	CourseID uint
}

// UnitEntry はユニットごとのキャッシュ値
type UnitEntry struct {
	Percent       float64
	QuizCompleted bool
	// QuizScore は最後に記録したクイズの点数。未受験なら nil
	QuizScore *float64
}

// Snapshot はキャッシュ全体の内容
type Snapshot struct {
	Units    map[UnitKey]UnitEntry
	Finished map[CourseKey]time.Time
}

func newSnapshot() Snapshot {
	return Snapshot{
		Units:    make(map[UnitKey]UnitEntry),
		Finished: make(map[CourseKey]time.Time),
	}
}

// Store はローカルキャッシュの操作。
// 値が存在しない・壊れている場合は ok=false を返す (エラーにはしない)
type Store interface {
	GetUnit(ctx context.Context, key UnitKey) (UnitEntry, bool, error)
	PutUnit(ctx context.Context, key UnitKey, entry UnitEntry) error
	GetFinishedDate(ctx context.Context, key CourseKey) (time.Time, bool, error)
	PutFinishedDate(ctx context.Context, key CourseKey, date time.Time) error
	Snapshot(ctx context.Context) (Snapshot, error)
	ClearAll(ctx context.Context) error
}

// sanitize はストアに入れる前に値を正規化する。合格済みなら 100
func sanitize(e UnitEntry) UnitEntry {
	if e.QuizCompleted {
		e.Percent = 100
	}
	if e.Percent < 0 || e.Percent != e.Percent {
		e.Percent = 0
	}
	if e.Percent > 100 {
		e.Percent = 100
	}
	if e.QuizScore != nil {
		s := *e.QuizScore
		if s < 0 || s > 100 || s != s {
			e.QuizScore = nil
		} else {
			e.QuizScore = &s
		}
	}
	return e
}

// dateOnly は日付部分だけを UTC で保持する
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
