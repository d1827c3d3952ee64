// Package catalog はコース定義 (参照データ) を読み込む
package catalog

import (
	"fmt"
	"time"

	"go_course_progress/internal/model"

	"github.com/spf13/viper"
)

type rawUnit struct {
	ID      uint     `mapstructure:"id"`
	Title   string   `mapstructure:"title"`
	Modules []string `mapstructure:"modules"`
}

type rawCourse struct {
	ID       uint      `mapstructure:"id"`
	Title    string    `mapstructure:"title"`
	Deadline string    `mapstructure:"deadline"`
	Units    []rawUnit `mapstructure:"units"`
}

type rawCatalog struct {
	Courses []rawCourse `mapstructure:"courses"`
}

// Catalog は読み取り専用のコース一覧。定義順を保持する
type Catalog struct {
	courses []model.Course
	byID    map[uint]int
}

// Load は YAML ファイル (courses: [...]) からコース定義を読み込む
func Load(path string) (*Catalog, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("catalog.Load: read %s: %w", path, err)
	}
	var raw rawCatalog
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("catalog.Load: decode %s: %w", path, err)
	}

	courses := make([]model.Course, 0, len(raw.Courses))
	for _, rc := range raw.Courses {
		c := model.Course{ID: rc.ID, Title: rc.Title}
		if rc.Deadline != "" {
			d, err := time.Parse(model.DateLayout, rc.Deadline)
			if err != nil {
				return nil, fmt.Errorf("catalog.Load: course %d deadline %q: %w", rc.ID, rc.Deadline, err)
			}
			c.Deadline = &d
		}
		for _, ru := range rc.Units {
			c.Units = append(c.Units, model.Unit{ID: ru.ID, Title: ru.Title, Modules: ru.Modules})
		}
		courses = append(courses, c)
	}
	return New(courses)
}

// New はコース定義を検証してカタログを作る。ID の重複はエラー
func New(courses []model.Course) (*Catalog, error) {
	c := &Catalog{
		courses: make([]model.Course, 0, len(courses)),
		byID:    make(map[uint]int, len(courses)),
	}
	for _, course := range courses {
		if course.ID == 0 {
			return nil, fmt.Errorf("catalog: course %q has no id: %w", course.Title, model.ErrInvalidInput)
		}
		if _, dup := c.byID[course.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate course id %d: %w", course.ID, model.ErrInvalidInput)
		}
		seen := make(map[uint]bool, len(course.Units))
		for _, u := range course.Units {
			if u.ID == 0 || seen[u.ID] {
				return nil, fmt.Errorf("catalog: course %d has invalid or duplicate unit id %d: %w", course.ID, u.ID, model.ErrInvalidInput)
			}
			seen[u.ID] = true
		}
		c.byID[course.ID] = len(c.courses)
		c.courses = append(c.courses, course)
	}
	return c, nil
}

// Courses は定義順のコース一覧 (コピー)
func (c *Catalog) Courses() []model.Course {
	return append([]model.Course(nil), c.courses...)
}

func (c *Catalog) Course(id uint) (model.Course, bool) {
	i, ok := c.byID[id]
	if !ok {
		return model.Course{}, false
	}
	return c.courses[i], true
}

// HasUnit はユニットが定義済みかを返す
func (c *Catalog) HasUnit(courseID, unitID uint) bool {
	course, ok := c.Course(courseID)
	return ok && course.HasUnit(unitID)
}
