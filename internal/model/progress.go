// internal/model/progress.go
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DateLayout は finish_date のワイヤーフォーマット
const DateLayout = "2006-01-02"

// UnitKey はユニット進捗の一意キー (user, course, unit)
type UnitKey struct {
	UserID   uuid.UUID
	CourseID uint
	UnitID   uint
}

func (k UnitKey) String() string {
	return fmt.Sprintf("%s/%d/%d", k.UserID, k.CourseID, k.UnitID)
}

// UnitState はユニットの概念上の状態
type UnitState string

const (
	UnitNotStarted   UnitState = "not_started"
	UnitInProgress   UnitState = "in_progress"
	UnitAwaitingQuiz UnitState = "awaiting_quiz"
	UnitCompleted    UnitState = "completed"
)

// 証明書マーカー (nil は旧データで未対応)
const (
	CertificateUnclaimed = 0
	CertificateClaimed   = 1
)

// UnitProgress はリモートストアに保存されるユニット単位の進捗
type UnitProgress struct {
	ID            uint       `gorm:"primaryKey" json:"-"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_unit_progress_key,priority:1" json:"user_id"`
	CourseID      uint       `gorm:"not null;uniqueIndex:idx_unit_progress_key,priority:2;index" json:"course_id"`
	UnitID        uint       `gorm:"not null;uniqueIndex:idx_unit_progress_key,priority:3" json:"unit_id"`
	Percent       float64    `gorm:"not null;default:0;check:percent >= 0 AND percent <= 100" json:"percent"`
	QuizCompleted bool       `gorm:"column:completed;not null;default:false" json:"completed"`
	QuizScore     *float64   `gorm:"column:score" json:"score"`
	FinishDate    *time.Time `gorm:"type:date" json:"finish_date"`
	Certificate   *int       `json:"certificate"`
	Attempted     bool       `gorm:"not null;default:false" json:"attempted"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (UnitProgress) TableName() string {
	return "unit_progress"
}

func (p *UnitProgress) Key() UnitKey {
	return UnitKey{UserID: p.UserID, CourseID: p.CourseID, UnitID: p.UnitID}
}

// State は行の内容から状態を導出する
func (p *UnitProgress) State(passiveCap float64) UnitState {
	switch {
	case p.QuizCompleted:
		return UnitCompleted
	case p.Percent >= passiveCap:
		return UnitAwaitingQuiz
	case p.Percent > 0 || p.Attempted:
		return UnitInProgress
	default:
		return UnitNotStarted
	}
}

// ProgressUpdate は学習者側で発生した進捗の書き込み要求 (アップサートのペイロード)
type ProgressUpdate struct {
	Key         UnitKey
	Percent     float64
	Completed   bool
	QuizScore   *float64
	FinishDate  *time.Time
	Attempted   bool
	Certificate int
}

// UpsertProgressRequest は PUT /progress/... のリクエストボディ
// user_id / course_id / unit_id は省略可能 (指定された場合はパス・トークンと一致する必要がある)
type UpsertProgressRequest struct {
	UserID      *uuid.UUID `json:"user_id,omitempty"`
	CourseID    *uint      `json:"course_id,omitempty"`
	UnitID      *uint      `json:"unit_id,omitempty"`
	Progress    *float64   `json:"progress" validate:"required,gte=0,lte=1"`
	Completed   bool       `json:"completed"`
	FinishDate  *string    `json:"finishDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Score       *float64   `json:"score,omitempty" validate:"omitempty,gte=0,lte=100"`
	Attempted   bool       `json:"attempted"`
	Certificate *int       `json:"certificate,omitempty" validate:"omitempty,oneof=0 1"`
}

// ProgressResponse はAPIが返すユニット進捗
type ProgressResponse struct {
	UserID      uuid.UUID `json:"user_id"`
	CourseID    uint      `json:"course_id"`
	UnitID      uint      `json:"unit_id"`
	Progress    float64   `json:"progress"`
	Percent     float64   `json:"percent"`
	Completed   bool      `json:"completed"`
	FinishDate  *string   `json:"finishDate"`
	Score       *float64  `json:"score"`
	Attempted   bool      `json:"attempted"`
	Certificate *int      `json:"certificate"`
	State       UnitState `json:"state"`
}

// NewProgressResponse は UnitProgress をレスポンス形式に変換する
func NewProgressResponse(p *UnitProgress, passiveCap float64) *ProgressResponse {
	resp := &ProgressResponse{
		UserID:      p.UserID,
		CourseID:    p.CourseID,
		UnitID:      p.UnitID,
		Progress:    p.Percent / 100,
		Percent:     p.Percent,
		Completed:   p.QuizCompleted,
		Score:       p.QuizScore,
		Attempted:   p.Attempted,
		Certificate: p.Certificate,
		State:       p.State(passiveCap),
	}
	if p.FinishDate != nil {
		d := p.FinishDate.Format(DateLayout)
		resp.FinishDate = &d
	}
	return resp
}

// Apply はストアのマージ規則で更新を反映する。同じ更新を何度適用しても結果は変わらない。
//
//	percent: 大きい方 (未合格なら passiveCap まで), completed/attempted: 一度 true なら維持,
//	score: 完了前は最新、完了後は高い方, finish_date: 最初の1回だけ, certificate: 大きい方
func (p *UnitProgress) Apply(u ProgressUpdate, passiveCap float64) {
	wasCompleted := p.QuizCompleted
	if u.Completed {
		p.QuizCompleted = true
	}
	if u.Percent > p.Percent {
		p.Percent = u.Percent
	}
	if p.QuizCompleted {
		p.Percent = 100
	} else if p.Percent > passiveCap {
		p.Percent = passiveCap
	}
	// 完了済みユニットのスコアは下がらない (再受験で平均が下がり発行可否が変わるのを防ぐ)
	if u.QuizScore != nil && (!wasCompleted || p.QuizScore == nil || *u.QuizScore > *p.QuizScore) {
		s := *u.QuizScore
		p.QuizScore = &s
	}
	if p.FinishDate == nil && u.FinishDate != nil {
		d := *u.FinishDate
		p.FinishDate = &d
	}
	p.Attempted = p.Attempted || u.Attempted
	if p.Certificate == nil || u.Certificate > *p.Certificate {
		c := u.Certificate
		p.Certificate = &c
	}
}

// Coalesce は同じユニットの未送信の更新をまとめる。newer の値を優先しつつ、古い側の状態を失わない
func (u ProgressUpdate) Coalesce(newer ProgressUpdate) ProgressUpdate {
	out := newer
	if u.Percent > out.Percent {
		out.Percent = u.Percent
	}
	out.Completed = u.Completed || newer.Completed
	out.Attempted = u.Attempted || newer.Attempted
	if out.QuizScore == nil {
		out.QuizScore = u.QuizScore
	}
	if u.FinishDate != nil {
		out.FinishDate = u.FinishDate
	}
	if u.Certificate > out.Certificate {
		out.Certificate = u.Certificate
	}
	return out
}
