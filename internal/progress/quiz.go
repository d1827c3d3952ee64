package progress

import (
	"fmt"
	"time"

	"go_course_progress/internal/model"

	"github.com/jinzhu/now"
)

// QuizGate はクイズを採点し、ユニット完了の可否を決める。
// quiz_completed を true にできるのはこのゲートだけ
type QuizGate struct {
	policy Policy
	clock  func() time.Time
}

func NewQuizGate(policy Policy) *QuizGate {
	return &QuizGate{policy: policy, clock: time.Now}
}

// WithClock はテスト用に時計を差し替える
func (g *QuizGate) WithClock(clock func() time.Time) *QuizGate {
	g.clock = clock
	return g
}

// Score は回答を採点する。answers[i] は 0 始まりの選択肢 (nil は未回答)
func (g *QuizGate) Score(questions []model.QuizQuestion, answers []*int) (model.QuizResult, error) {
	if len(questions) == 0 {
		return model.QuizResult{}, fmt.Errorf("quiz has no questions: %w", model.ErrInvalidInput)
	}
	if len(answers) != len(questions) {
		return model.QuizResult{}, fmt.Errorf("answers length %d does not match questions length %d: %w",
			len(answers), len(questions), model.ErrInvalidInput)
	}

	correct := 0
	for i, q := range questions {
		if a := answers[i]; a != nil && *a == q.Answer-1 {
			correct++
		}
	}
	score := Round2(float64(correct) * 100 / float64(len(questions)))
	return model.QuizResult{
		Correct:   correct,
		Total:     len(questions),
		Score:     score,
		Passed:    score >= g.policy.PassThreshold,
		Threshold: g.policy.PassThreshold,
	}, nil
}

// Outcome は採点結果を書き込み要求に変換する。合否にかかわらず attempted は true
func (g *QuizGate) Outcome(key model.UnitKey, result model.QuizResult) model.ProgressUpdate {
	score := result.Score
	update := model.ProgressUpdate{
		Key:       key,
		QuizScore: &score,
		Attempted: true,
	}
	if result.Passed {
		today := now.With(g.clock()).BeginningOfDay()
		update.Percent = CompletePercent
		update.Completed = true
		update.FinishDate = &today
	} else {
		update.Percent = g.policy.PassiveCap
	}
	return update
}

// Evaluate は採点と変換をまとめて行う
func (g *QuizGate) Evaluate(key model.UnitKey, questions []model.QuizQuestion, answers []*int) (model.QuizResult, model.ProgressUpdate, error) {
	result, err := g.Score(questions, answers)
	if err != nil {
		return model.QuizResult{}, model.ProgressUpdate{}, err
	}
	return result, g.Outcome(key, result), nil
}
