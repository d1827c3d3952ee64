package progress

import (
	"time"

	"go_course_progress/internal/config"
	"go_course_progress/internal/model"

	"github.com/google/uuid"
)

func configWithCheckpoints(cps ...int) config.ProgressConfig {
	return config.ProgressConfig{Checkpoints: cps}
}

func ptrFloat(v float64) *float64 { return &v }
func ptrInt(v int) *int           { return &v }

func ptrDate(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func threeUnitCourse() model.Course {
	return model.Course{
		ID:    1,
		Title: "Go入門",
		Units: []model.Unit{{ID: 1, Title: "基礎"}, {ID: 2, Title: "並行処理"}, {ID: 3, Title: "テスト"}},
	}
}

// completedRow は合格済みの行を作る
func completedRow(user uuid.UUID, course, unit uint, score float64, finish *time.Time) model.UnitProgress {
	return model.UnitProgress{
		UserID: user, CourseID: course, UnitID: unit,
		Percent: 100, QuizCompleted: true, QuizScore: ptrFloat(score),
		FinishDate: finish, Certificate: ptrInt(model.CertificateUnclaimed), Attempted: true,
	}
}
