package progress

// ScrollSample はスクロールイベント1回分の観測値
type ScrollSample struct {
	ScrollTop    float64
	ScrollHeight float64
	ClientHeight float64
}

// RawPercent はスクロール位置から生の割合を求める。
// コンテンツが表示領域に収まる場合 (スクロール不可) は全体が見えているので 100 とする
func RawPercent(s ScrollSample) float64 {
	scrollable := s.ScrollHeight - s.ClientHeight
	if scrollable <= 0 {
		return CompletePercent
	}
	return Clamp(s.ScrollTop / scrollable * 100)
}

// Reading は観測結果
type Reading struct {
	Raw     float64
	Percent float64 // 報告値 (セッション内で単調非減少)
}

// Emission は永続化要求。新しく越えたチェックポイントをすべて含む
type Emission struct {
	Percent     float64
	Completed   bool
	Checkpoints []int
}

// ScrollMonitor は1ユニット・1セッション分のスクロール進捗を追跡する。
// UI スレッドから同期的に呼ばれる前提で、ロックは持たない
type ScrollMonitor struct {
	policy        Policy
	highest       float64
	quizCompleted bool
	fired         map[int]bool
}

// NewScrollMonitor は既知の進捗 (キャッシュ・リモート) から開始するモニターを作る。
// seed 以下のチェックポイントは記録済みとして扱う
func NewScrollMonitor(policy Policy, seed float64, quizCompleted bool) *ScrollMonitor {
	m := &ScrollMonitor{
		policy: policy,
		fired:  make(map[int]bool, len(policy.Checkpoints)+1),
	}
	m.Absorb(seed, quizCompleted)
	return m
}

// Report はポリシーを適用した値を返す
func (p Policy) Report(raw float64, quizCompleted bool) float64 {
	if quizCompleted {
		return CompletePercent
	}
	raw = Clamp(raw)
	if raw > p.PassiveCap {
		return p.PassiveCap
	}
	return raw
}

// Observe はスクロールイベントを処理する。チェックポイントを初めて越えたときだけ Emission を返す
func (m *ScrollMonitor) Observe(s ScrollSample) (Reading, *Emission) {
	raw := RawPercent(s)
	if v := m.policy.Report(raw, m.quizCompleted); v > m.highest {
		m.highest = v
	}
	return Reading{Raw: raw, Percent: m.highest}, m.emit()
}

// MarkQuizCompleted はクイズ合格を反映し、100 への到達を通知する
func (m *ScrollMonitor) MarkQuizCompleted() *Emission {
	m.quizCompleted = true
	m.highest = CompletePercent
	return m.emit()
}

// Absorb は外部で確定した値 (クイズ結果・リモートの値) を取り込む。
// 値は下がらず、越えたチェックポイントは通知せずに記録済みにする
func (m *ScrollMonitor) Absorb(percent float64, quizCompleted bool) {
	if quizCompleted {
		m.quizCompleted = true
		percent = CompletePercent
	} else if percent > m.policy.PassiveCap {
		percent = m.policy.PassiveCap
	}
	if percent = Clamp(percent); percent > m.highest {
		m.highest = percent
	}
	m.crossed()
}

func (m *ScrollMonitor) Highest() float64 {
	return m.highest
}

func (m *ScrollMonitor) QuizCompleted() bool {
	return m.quizCompleted
}

// crossed は未記録で越えたチェックポイントを記録し、それを返す
func (m *ScrollMonitor) crossed() []int {
	var out []int
	for _, c := range m.policy.allCheckpoints() {
		if m.highest >= float64(c) && !m.fired[c] {
			m.fired[c] = true
			out = append(out, c)
		}
	}
	return out
}

func (m *ScrollMonitor) emit() *Emission {
	cps := m.crossed()
	if len(cps) == 0 {
		return nil
	}
	return &Emission{
		Percent:     m.highest,
		Completed:   m.quizCompleted,
		Checkpoints: cps,
	}
}
