package progress

import (
	"sort"
	"time"

	"go_course_progress/internal/model"

	"github.com/google/uuid"
	"github.com/jinzhu/now"
)

// Snapshot はダッシュボード集計の入力。1回の集計につき1回だけ取得する
type Snapshot struct {
	Learners []model.Learner
	Progress []model.UnitProgress
	Courses  []model.Course
}

// AggregateCalculator は全受講者・全コースの完了状況を集計する
type AggregateCalculator struct {
	clock func() time.Time
}

func NewAggregateCalculator() *AggregateCalculator {
	return &AggregateCalculator{clock: time.Now}
}

func (c *AggregateCalculator) WithClock(clock func() time.Time) *AggregateCalculator {
	c.clock = clock
	return c
}

// Classify は完了ユニット数から区分を決める
func Classify(completed, total int) model.CompletionStatus {
	switch {
	case completed <= 0 || total <= 0:
		return model.StatusNotStarted
	case completed >= total:
		return model.StatusComplete
	default:
		return model.StatusInProgress
	}
}

// completedIndex は user -> course -> 完了ユニット集合
type completedIndex map[uuid.UUID]map[uint]map[uint]struct{}

// indexCompleted は完了済みの行を重複なしで数えられる形にする。
// コース定義にないユニットは数えない
func indexCompleted(rows []model.UnitProgress, courses []model.Course) completedIndex {
	known := make(map[uint]*model.Course, len(courses))
	for i := range courses {
		known[courses[i].ID] = &courses[i]
	}
	idx := make(completedIndex)
	for _, r := range rows {
		if !r.QuizCompleted {
			continue
		}
		course, ok := known[r.CourseID]
		if !ok || !course.HasUnit(r.UnitID) {
			continue
		}
		byCourse, ok := idx[r.UserID]
		if !ok {
			byCourse = make(map[uint]map[uint]struct{})
			idx[r.UserID] = byCourse
		}
		units, ok := byCourse[r.CourseID]
		if !ok {
			units = make(map[uint]struct{})
			byCourse[r.CourseID] = units
		}
		units[r.UnitID] = struct{}{}
	}
	return idx
}

// CourseCompletionFor は1人・1コース分の完了状況を求める
func CourseCompletionFor(userID uuid.UUID, course model.Course, rows []model.UnitProgress) model.CourseCompletion {
	idx := indexCompleted(rows, []model.Course{course})
	n := len(idx[userID][course.ID])
	total := course.TotalUnits()
	return model.CourseCompletion{
		UserID:         userID,
		CourseID:       course.ID,
		CompletedUnits: n,
		TotalUnits:     total,
		Status:         Classify(n, total),
	}
}

// Compute はスナップショットから集計結果を作る。比率は丸めない
func (c *AggregateCalculator) Compute(s Snapshot) model.DashboardReport {
	idx := indexCompleted(s.Progress, s.Courses)

	report := model.DashboardReport{
		GeneratedAt:   c.clock(),
		Courses:       make([]model.CourseStat, 0, len(s.Courses)),
		Entries:       make([]model.LearnerCourseEntry, 0, len(s.Learners)*len(s.Courses)),
		MonthlyScores: []model.MonthlyScore{},
	}

	learners := make(map[uuid.UUID]bool, len(s.Learners))
	for _, course := range s.Courses {
		stat := model.CourseStat{CourseID: course.ID, CourseTitle: course.Title}
		total := course.TotalUnits()
		for _, l := range s.Learners {
			if l.IsAdmin() {
				continue
			}
			learners[l.UserID] = true

			n := len(idx[l.UserID][course.ID])
			cc := model.CourseCompletion{
				UserID:         l.UserID,
				CourseID:       course.ID,
				CompletedUnits: n,
				TotalUnits:     total,
				Status:         Classify(n, total),
			}
			report.Entries = append(report.Entries, model.LearnerCourseEntry{
				LearnerName:      l.Name,
				LearnerEmail:     l.Email,
				CourseTitle:      course.Title,
				CourseCompletion: cc,
			})

			stat.Learners++
			switch cc.Status {
			case model.StatusComplete:
				stat.Complete++
				report.Buckets.Complete++
			case model.StatusInProgress:
				stat.InProgress++
				report.Buckets.InProgress++
			default:
				stat.NotStarted++
				report.Buckets.NotStarted++
			}
		}
		if stat.Learners > 0 {
			stat.CompletionRatio = float64(stat.Complete) / float64(stat.Learners) * 100
		}
		report.Courses = append(report.Courses, stat)
	}

	report.MonthlyScores = monthlyScores(s.Progress, learners)
	return report
}

// monthlyScores は月ごとに生スコアを平均する。
// 月は finish_date、未完了 (不合格) の行は更新日時で決める
func monthlyScores(rows []model.UnitProgress, learners map[uuid.UUID]bool) []model.MonthlyScore {
	type acc struct {
		sum float64
		n   int
	}
	byMonth := make(map[string]*acc)
	for _, r := range rows {
		if r.QuizScore == nil || !learners[r.UserID] {
			continue
		}
		at := r.UpdatedAt
		if r.FinishDate != nil {
			at = *r.FinishDate
		}
		if at.IsZero() {
			continue
		}
		month := now.With(at).BeginningOfMonth().Format("2006-01")
		a, ok := byMonth[month]
		if !ok {
			a = &acc{}
			byMonth[month] = a
		}
		a.sum += *r.QuizScore
		a.n++
	}

	out := make([]model.MonthlyScore, 0, len(byMonth))
	for month, a := range byMonth {
		out = append(out, model.MonthlyScore{
			Month:        month,
			AverageScore: a.sum / float64(a.n),
			Samples:      a.n,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}
