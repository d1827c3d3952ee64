// internal/model/certificate.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// CertificateEligibility は (user, course) の証明書発行可否 (導出値)
type CertificateEligibility struct {
	UserID         uuid.UUID  `json:"user_id"`
	CourseID       uint       `json:"course_id"`
	Eligible       bool       `json:"eligible"`
	Claimed        bool       `json:"claimed"`
	CompletedUnits int        `json:"completed_units"`
	TotalUnits     int        `json:"total_units"`
	AverageScore   float64    `json:"average_score"`
	CompletionDate *time.Time `json:"completion_date"`
	Reason         string     `json:"reason,omitempty"`
}

// CertificateView は証明書レンダラーに渡すデータ
type CertificateView struct {
	CertificateEligibility
	LearnerName        string `json:"learner_name"`
	CourseTitle        string `json:"course_title"`
	CompletionDateText string `json:"completion_date_text,omitempty"`
}
