// internal/model/quiz.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// QuizQuestion はクイズの設問。Answer は 1 始まりの正解選択肢番号
type QuizQuestion struct {
	Question string   `json:"question" validate:"required"`
	Options  []string `json:"options" validate:"required,min=2"`
	Answer   int      `json:"answer" validate:"required,gte=1"`
}

// QuizResult は1回の受験の採点結果
type QuizResult struct {
	Correct   int     `json:"correct"`
	Total     int     `json:"total"`
	Score     float64 `json:"score"`
	Passed    bool    `json:"passed"`
	Threshold float64 `json:"threshold"`
}

// QuizAttempt は受験履歴 (ユニットの行は完了まで最新の受験で上書きされる。履歴はすべて残す)
type QuizAttempt struct {
	AttemptID   uuid.UUID      `gorm:"type:uuid;primaryKey" json:"attempt_id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index:idx_quiz_attempt_unit,priority:1" json:"user_id"`
	CourseID    uint           `gorm:"not null;index:idx_quiz_attempt_unit,priority:2" json:"course_id"`
	UnitID      uint           `gorm:"not null;index:idx_quiz_attempt_unit,priority:3" json:"unit_id"`
	Answers     datatypes.JSON `json:"answers"`
	Score       float64        `gorm:"not null" json:"score"`
	Passed      bool           `gorm:"not null" json:"passed"`
	AttemptedAt time.Time      `gorm:"not null;index" json:"attempted_at"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

// SubmitQuizRequest はクイズ提出APIのリクエストボディ
// Answers[i] は 0 始まりの選択肢、null は未回答
type SubmitQuizRequest struct {
	Questions []QuizQuestion `json:"questions" validate:"required,min=1,dive"`
	Answers   []*int         `json:"answers" validate:"required"`
}

// SubmitQuizResponse は採点結果と保存後の進捗
type SubmitQuizResponse struct {
	Result   QuizResult        `json:"result"`
	Progress *ProgressResponse `json:"progress"`
}
