package progress

import (
	"time"

	"go_course_progress/internal/model"

	"github.com/google/uuid"
)

// 不適格の理由
const (
	ReasonNoUnits            = "course_has_no_units"
	ReasonIncompleteUnits    = "incomplete_units"
	ReasonMissingCertificate = "missing_certificate_marker"
	ReasonAverageBelowMin    = "average_below_minimum"
)

// CertificateResolver は (learner, course) の証明書発行可否を判定する。読み取り専用
type CertificateResolver struct {
	MinAverageScore float64 // 0 は下限なし
}

// Resolve はユニット行から証明書の発行可否を求める。
// 対象外のユーザー・コース・定義外ユニットの行は無視する
func (r CertificateResolver) Resolve(userID uuid.UUID, course model.Course, rows []model.UnitProgress) model.CertificateEligibility {
	res := model.CertificateEligibility{
		UserID:     userID,
		CourseID:   course.ID,
		TotalUnits: course.TotalUnits(),
	}

	// ユニットごとに1行 (ストア側で一意)。念のため重複は後勝ち
	byUnit := make(map[uint]model.UnitProgress, len(rows))
	for _, row := range rows {
		if row.UserID != userID || row.CourseID != course.ID || !course.HasUnit(row.UnitID) {
			continue
		}
		byUnit[row.UnitID] = row
	}

	var (
		sum         float64
		allComplete = true
		allMarked   = true
		allClaimed  = true
		latest      *time.Time
	)
	for _, row := range byUnit {
		if row.QuizCompleted {
			res.CompletedUnits++
		} else {
			allComplete = false
		}
		if row.Certificate == nil {
			allMarked = false
			allClaimed = false
		} else if *row.Certificate != model.CertificateClaimed {
			allClaimed = false
		}
		// 未受験の行は 0 点として平均する
		if row.QuizScore != nil {
			sum += *row.QuizScore
		}
		if row.FinishDate != nil && (latest == nil || row.FinishDate.After(*latest)) {
			d := *row.FinishDate
			latest = &d
		}
	}
	if len(byUnit) > 0 {
		res.AverageScore = Round2(sum / float64(len(byUnit)))
	}
	res.CompletionDate = latest

	switch {
	case res.TotalUnits == 0:
		res.Reason = ReasonNoUnits
	case len(byUnit) != res.TotalUnits || !allComplete:
		res.Reason = ReasonIncompleteUnits
	case !allMarked:
		res.Reason = ReasonMissingCertificate
	case r.MinAverageScore > 0 && res.AverageScore < r.MinAverageScore:
		res.Reason = ReasonAverageBelowMin
	default:
		res.Eligible = true
		res.Claimed = allClaimed
	}
	return res
}

// View は証明書レンダラー向けのデータを組み立てる
func (r CertificateResolver) View(e model.CertificateEligibility, learner model.Learner, course model.Course) model.CertificateView {
	v := model.CertificateView{
		CertificateEligibility: e,
		LearnerName:            learner.Name,
		CourseTitle:            course.Title,
	}
	if e.CompletionDate != nil {
		v.CompletionDateText = e.CompletionDate.Format(model.DateLayout)
	}
	return v
}
