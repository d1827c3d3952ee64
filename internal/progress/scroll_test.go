package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sample は scrollHeight=1100, clientHeight=100 で r% の位置を表す
func sample(r float64) ScrollSample {
	return ScrollSample{ScrollTop: r * 10, ScrollHeight: 1100, ClientHeight: 100}
}

func TestRawPercent(t *testing.T) {
	tests := []struct {
		name string
		in   ScrollSample
		want float64
	}{
		{name: "先頭", in: sample(0), want: 0},
		{name: "途中", in: sample(42.5), want: 42.5},
		{name: "末尾", in: sample(100), want: 100},
		{name: "オーバースクロールは100に丸める", in: ScrollSample{ScrollTop: 1500, ScrollHeight: 1100, ClientHeight: 100}, want: 100},
		{name: "負の位置は0", in: ScrollSample{ScrollTop: -20, ScrollHeight: 1100, ClientHeight: 100}, want: 0},
		{name: "スクロール不可のコンテンツは100", in: ScrollSample{ScrollTop: 0, ScrollHeight: 300, ClientHeight: 500}, want: 100},
		{name: "高さが同じ場合も100", in: ScrollSample{ScrollTop: 0, ScrollHeight: 500, ClientHeight: 500}, want: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RawPercent(tt.in), 1e-9)
		})
	}
}

func TestPolicy_Report_CapsPassiveProgress(t *testing.T) {
	p := DefaultPolicy()
	for r := 0.0; r <= 100; r += 0.5 {
		want := r
		if want > 95 {
			want = 95
		}
		assert.Equal(t, want, p.Report(r, false), "r=%v", r)
		assert.Equal(t, 100.0, p.Report(r, true), "r=%v", r)
	}
}

func TestScrollMonitor_Observe(t *testing.T) {
	t.Run("正常系: チェックポイントを越えたときだけ通知する", func(t *testing.T) {
		m := NewScrollMonitor(DefaultPolicy(), 0, false)

		reading, em := m.Observe(sample(10))
		assert.Equal(t, 10.0, reading.Percent)
		assert.Nil(t, em)

		_, em = m.Observe(sample(30))
		require.NotNil(t, em)
		assert.Equal(t, []int{25}, em.Checkpoints)
		assert.Equal(t, 30.0, em.Percent)
		assert.False(t, em.Completed)

		_, em = m.Observe(sample(40))
		assert.Nil(t, em)
	})

	t.Run("正常系: 一度に複数越えた場合はまとめて1回通知", func(t *testing.T) {
		m := NewScrollMonitor(DefaultPolicy(), 0, false)
		_, em := m.Observe(sample(80))
		require.NotNil(t, em)
		assert.Equal(t, []int{25, 50, 75}, em.Checkpoints)
		assert.Equal(t, 80.0, em.Percent)
	})

	t.Run("正常系: 上にスクロールしても値は下がらず再通知しない", func(t *testing.T) {
		m := NewScrollMonitor(DefaultPolicy(), 0, false)
		_, em := m.Observe(sample(60))
		require.NotNil(t, em)

		reading, em := m.Observe(sample(5))
		assert.Nil(t, em)
		assert.Equal(t, 5.0, reading.Raw)
		assert.Equal(t, 60.0, reading.Percent)

		_, em = m.Observe(sample(55))
		assert.Nil(t, em)
	})

	t.Run("正常系: クイズ未合格なら末尾まで読んでも95で止まる", func(t *testing.T) {
		m := NewScrollMonitor(DefaultPolicy(), 0, false)
		reading, em := m.Observe(sample(100))
		require.NotNil(t, em)
		assert.Equal(t, 95.0, reading.Percent)
		assert.Equal(t, []int{25, 50, 75, 95}, em.Checkpoints)

		_, em = m.Observe(sample(100))
		assert.Nil(t, em, "95 は1セッションで1回だけ")
	})

	t.Run("正常系: 各チェックポイントは1セッションで最大1回", func(t *testing.T) {
		m := NewScrollMonitor(DefaultPolicy(), 0, false)
		counts := map[int]int{}
		for _, r := range []float64{0, 20, 26, 10, 51, 49, 99, 0, 100, 76, 100} {
			if _, em := m.Observe(sample(r)); em != nil {
				for _, c := range em.Checkpoints {
					counts[c]++
				}
			}
		}
		assert.Equal(t, map[int]int{25: 1, 50: 1, 75: 1, 95: 1}, counts)
	})

	t.Run("正常系: 既知の進捗で開始した場合はそれ以下を通知しない", func(t *testing.T) {
		m := NewScrollMonitor(DefaultPolicy(), 60, false)
		reading, em := m.Observe(sample(10))
		assert.Nil(t, em)
		assert.Equal(t, 60.0, reading.Percent)

		_, em = m.Observe(sample(77))
		require.NotNil(t, em)
		assert.Equal(t, []int{75}, em.Checkpoints)
	})
}

func TestScrollMonitor_QuizCompleted(t *testing.T) {
	t.Run("正常系: 合格後は100に固定され100を1回通知", func(t *testing.T) {
		m := NewScrollMonitor(DefaultPolicy(), 95, false)
		em := m.MarkQuizCompleted()
		require.NotNil(t, em)
		assert.Equal(t, []int{100}, em.Checkpoints)
		assert.True(t, em.Completed)
		assert.Equal(t, 100.0, em.Percent)

		for _, r := range []float64{0, 10, 50, 100} {
			reading, em := m.Observe(sample(r))
			assert.Nil(t, em)
			assert.Equal(t, 100.0, reading.Percent)
		}
		assert.Nil(t, m.MarkQuizCompleted())
	})

	t.Run("正常系: 合格済みで開始したモニターは常に100", func(t *testing.T) {
		m := NewScrollMonitor(DefaultPolicy(), 0, true)
		reading, em := m.Observe(sample(0))
		assert.Nil(t, em)
		assert.Equal(t, 100.0, reading.Percent)
		assert.True(t, m.QuizCompleted())
	})

	t.Run("正常系: 未合格で100が与えられても95に制限される", func(t *testing.T) {
		m := NewScrollMonitor(DefaultPolicy(), 100, false)
		assert.Equal(t, 95.0, m.Highest())
		assert.False(t, m.QuizCompleted())
	})
}

func TestPolicyFromConfig_NormalizesCheckpoints(t *testing.T) {
	p := PolicyFromConfig(configWithCheckpoints(75, 25, 25, 100, 0, 50))
	assert.Equal(t, []int{25, 50, 75}, p.Checkpoints)
	assert.Equal(t, []int{25, 50, 75, 100}, p.allCheckpoints())
	assert.Equal(t, 95.0, p.PassiveCap)
	assert.Equal(t, 70.0, p.PassThreshold)
}
