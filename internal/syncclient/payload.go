package syncclient

import (
	"time"

	"go_course_progress/internal/model"
)

// ToRequest は更新をリモートストアのアップサート形式に変換する
func ToRequest(u model.ProgressUpdate) model.UpsertProgressRequest {
	progress := u.Percent / 100
	userID := u.Key.UserID
	courseID := u.Key.CourseID
	unitID := u.Key.UnitID
	certificate := u.Certificate

	req := model.UpsertProgressRequest{
		UserID:      &userID,
		CourseID:    &courseID,
		UnitID:      &unitID,
		Progress:    &progress,
		Completed:   u.Completed,
		Score:       u.QuizScore,
		Attempted:   u.Attempted,
		Certificate: &certificate,
	}
	if u.FinishDate != nil {
		d := u.FinishDate.Format(model.DateLayout)
		req.FinishDate = &d
	}
	return req
}

// FromResponse はリモートの行を UnitProgress に戻す
func FromResponse(r *model.ProgressResponse) model.UnitProgress {
	p := model.UnitProgress{
		UserID:        r.UserID,
		CourseID:      r.CourseID,
		UnitID:        r.UnitID,
		Percent:       r.Percent,
		QuizCompleted: r.Completed,
		QuizScore:     r.Score,
		Attempted:     r.Attempted,
		Certificate:   r.Certificate,
	}
	if r.FinishDate != nil {
		if d, err := time.Parse(model.DateLayout, *r.FinishDate); err == nil {
			p.FinishDate = &d
		}
	}
	return p
}
