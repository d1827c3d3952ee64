package localcache

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// 旧形式のフラットなキー
//
//	Course{c}Unidad{u}    -> 整数の進捗 ("0".."100")
//	Course{c}Quiz{u}      -> "true"
//	Course{c}finishedDate -> "2006-01-02" (時刻付きも可)
var (
	legacyUnitKey     = regexp.MustCompile(`^Course(\d+)Unidad(\d+)$`)
	legacyQuizKey     = regexp.MustCompile(`^Course(\d+)Quiz(\d+)$`)
	legacyFinishedKey = regexp.MustCompile(`^Course(\d+)finishedDate$`)
)

const legacyDateLayout = "2006-01-02"

func LegacyUnitKey(k UnitKey) string {
	return fmt.Sprintf("Course%dUnidad%d", k.CourseID, k.UnitID)
}

func LegacyQuizKey(k UnitKey) string {
	return fmt.Sprintf("Course%dQuiz%d", k.CourseID, k.UnitID)
}

func LegacyFinishedKey(k CourseKey) string {
	return fmt.Sprintf("Course%dfinishedDate", k.CourseID)
}

func parseID(s string) (uint, bool) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(n), true
}

// DecodeLegacy は旧形式のキー/値を読み取る。
// 解釈できないキーや値は存在しないものとして無視する
func DecodeLegacy(flat map[string]string) Snapshot {
	snap := newSnapshot()
	for key, raw := range flat {
		value := strings.TrimSpace(raw)
		switch {
		case legacyUnitKey.MatchString(key):
			m := legacyUnitKey.FindStringSubmatch(key)
			c, ok1 := parseID(m[1])
			u, ok2 := parseID(m[2])
			pct, err := strconv.ParseFloat(value, 64)
			if !ok1 || !ok2 || err != nil || pct < 0 || pct > 100 {
				continue
			}
			k := UnitKey{CourseID: c, UnitID: u}
			e := snap.Units[k]
			if pct > e.Percent {
				e.Percent = pct
			}
			snap.Units[k] = e
		case legacyQuizKey.MatchString(key):
			m := legacyQuizKey.FindStringSubmatch(key)
			c, ok1 := parseID(m[1])
			u, ok2 := parseID(m[2])
			if !ok1 || !ok2 || value != "true" {
				continue
			}
			k := UnitKey{CourseID: c, UnitID: u}
			e := snap.Units[k]
			e.QuizCompleted = true
			snap.Units[k] = e
		case legacyFinishedKey.MatchString(key):
			m := legacyFinishedKey.FindStringSubmatch(key)
			c, ok := parseID(m[1])
			if !ok {
				continue
			}
			d, ok := parseLegacyDate(value)
			if !ok {
				continue
			}
			snap.Finished[CourseKey{CourseID: c}] = d
		}
	}
	for k, e := range snap.Units {
		snap.Units[k] = sanitize(e)
	}
	return snap
}

func parseLegacyDate(v string) (time.Time, bool) {
	if d, err := time.Parse(legacyDateLayout, v); err == nil {
		return d, true
	}
	if d, err := time.Parse(time.RFC3339, v); err == nil {
		return dateOnly(d), true
	}
	return time.Time{}, false
}

// EncodeLegacy はスナップショットを旧形式に変換する
func EncodeLegacy(snap Snapshot) map[string]string {
	out := make(map[string]string, len(snap.Units)*2+len(snap.Finished))
	for k, e := range snap.Units {
		out[LegacyUnitKey(k)] = strconv.Itoa(int(e.Percent))
		if e.QuizCompleted {
			out[LegacyQuizKey(k)] = "true"
		}
	}
	for k, d := range snap.Finished {
		out[LegacyFinishedKey(k)] = d.Format(legacyDateLayout)
	}
	return out
}

// ImportLegacy は旧形式の値をストアに取り込む。既存の値より低い進捗では上書きしない。
// 旧形式には点数がないため、既存の点数を残す
func ImportLegacy(ctx context.Context, store Store, flat map[string]string) (int, error) {
	snap := DecodeLegacy(flat)
	n := 0
	for k, e := range snap.Units {
		cur, ok, err := store.GetUnit(ctx, k)
		if err != nil {
			return n, err
		}
		if ok {
			e.QuizCompleted = e.QuizCompleted || cur.QuizCompleted
			e.QuizScore = cur.QuizScore
			if cur.Percent > e.Percent {
				e.Percent = cur.Percent
			}
		}
		if err := store.PutUnit(ctx, k, e); err != nil {
			return n, err
		}
		n++
	}
	for k, d := range snap.Finished {
		if _, ok, err := store.GetFinishedDate(ctx, k); err != nil {
			return n, err
		} else if ok {
			continue
		}
		if err := store.PutFinishedDate(ctx, k, d); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// ExportLegacy はストアの内容を旧形式で書き出す
func ExportLegacy(ctx context.Context, store Store) (map[string]string, error) {
	snap, err := store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return EncodeLegacy(snap), nil
}
