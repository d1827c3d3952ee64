// internal/model/dashboard.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// CompletionStatus はコース単位の集計区分
type CompletionStatus string

const (
	StatusComplete   CompletionStatus = "complete"
	StatusInProgress CompletionStatus = "in_progress"
	StatusNotStarted CompletionStatus = "not_started"
)

// CourseCompletion は (user, course) の導出値。保存はしない
type CourseCompletion struct {
	UserID         uuid.UUID        `json:"user_id"`
	CourseID       uint             `json:"course_id"`
	CompletedUnits int              `json:"completed_units"`
	TotalUnits     int              `json:"total_units"`
	Status         CompletionStatus `json:"status"`
}

func (c CourseCompletion) IsComplete() bool {
	return c.TotalUnits > 0 && c.CompletedUnits == c.TotalUnits
}

// Ratio は丸めていない完了率 (0-100)。丸めは表示時に行う
func (c CourseCompletion) Ratio() float64 {
	if c.TotalUnits == 0 {
		return 0
	}
	return float64(c.CompletedUnits) / float64(c.TotalUnits) * 100
}

// LearnerCourseEntry はダッシュボード/CSV の1行
type LearnerCourseEntry struct {
	LearnerName  string `json:"learner_name"`
	LearnerEmail string `json:"learner_email"`
	CourseTitle  string `json:"course_title"`
	CourseCompletion
}

type BucketCounts struct {
	Complete   int `json:"complete"`
	InProgress int `json:"in_progress"`
	NotStarted int `json:"not_started"`
}

// CourseStat はコースごとの集計
type CourseStat struct {
	CourseID        uint    `json:"course_id"`
	CourseTitle     string  `json:"course_title"`
	Learners        int     `json:"learners"`
	Complete        int     `json:"complete"`
	InProgress      int     `json:"in_progress"`
	NotStarted      int     `json:"not_started"`
	CompletionRatio float64 `json:"completion_ratio"` // 完了者 / 受講者 * 100 (未丸め)
}

// MonthlyScore は月ごとの平均スコア (生スコアの平均)
type MonthlyScore struct {
	Month        string  `json:"month"` // 2006-01
	AverageScore float64 `json:"average_score"`
	Samples      int     `json:"samples"`
}

// DashboardReport は集計結果一式
type DashboardReport struct {
	GeneratedAt   time.Time            `json:"generated_at"`
	Buckets       BucketCounts         `json:"buckets"`
	Courses       []CourseStat         `json:"courses"`
	Entries       []LearnerCourseEntry `json:"entries"`
	MonthlyScores []MonthlyScore       `json:"monthly_scores"`
}
