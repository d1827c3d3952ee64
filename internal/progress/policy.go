// Package progress は進捗追跡のドメインロジック (スクロール進捗・クイズ判定・集計・証明書判定) をまとめる。
// I/O を持たず、すべて同期的に計算する。
package progress

import (
	"math"
	"sort"

	"go_course_progress/internal/config"
)

// CompletePercent はクイズ合格時にのみ到達する値
const CompletePercent = 100.0

// Policy は進捗判定のしきい値
type Policy struct {
	PassiveCap    float64 // スクロールだけで到達できる上限
	PassThreshold float64 // クイズ合格ライン (以上で合格)
	Checkpoints   []int   // 書き込みを発生させる値 (昇順, 100 を含まない)
}

func DefaultPolicy() Policy {
	return PolicyFromConfig(config.ProgressConfig{})
}

// PolicyFromConfig は設定値から Policy を作る。未設定の項目はデフォルト値になる
func PolicyFromConfig(cfg config.ProgressConfig) Policy {
	p := Policy{
		PassiveCap:    cfg.PassiveCap,
		PassThreshold: cfg.PassThreshold,
	}
	if p.PassiveCap <= 0 || p.PassiveCap >= CompletePercent {
		p.PassiveCap = config.DefaultPassiveCap
	}
	if p.PassThreshold <= 0 || p.PassThreshold > CompletePercent {
		p.PassThreshold = config.DefaultPassThreshold
	}
	src := cfg.Checkpoints
	if len(src) == 0 {
		src = config.DefaultCheckpoints
	}
	seen := make(map[int]bool, len(src))
	for _, c := range src {
		if c <= 0 || c >= int(CompletePercent) || seen[c] {
			continue
		}
		seen[c] = true
		p.Checkpoints = append(p.Checkpoints, c)
	}
	sort.Ints(p.Checkpoints)
	return p
}

// allCheckpoints は 100 を加えたチェックポイント一覧
func (p Policy) allCheckpoints() []int {
	out := make([]int, 0, len(p.Checkpoints)+1)
	out = append(out, p.Checkpoints...)
	return append(out, int(CompletePercent))
}

// Clamp は [0,100] に収める
func Clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > CompletePercent {
		return CompletePercent
	}
	return v
}

// Round2 は小数第2位に丸める
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
