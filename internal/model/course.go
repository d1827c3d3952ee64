// internal/model/course.go
package model

import "time"

// Course はコース定義 (設定ファイルから読み込む参照データ)
type Course struct {
	ID       uint       `mapstructure:"id" json:"id"`
	Title    string     `mapstructure:"title" json:"title"`
	Deadline *time.Time `mapstructure:"deadline" json:"deadline,omitempty"` // 表示のみ
	Units    []Unit     `mapstructure:"units" json:"units"`
}

// Unit は進捗記録を持つ最小単位
type Unit struct {
	ID      uint     `mapstructure:"id" json:"id"`
	Title   string   `mapstructure:"title" json:"title"`
	Modules []string `mapstructure:"modules" json:"modules"` // 件数は進捗に影響しない
}

func (c *Course) TotalUnits() int {
	return len(c.Units)
}

// HasUnit はユニットがこのコースに属するかを返す
func (c *Course) HasUnit(unitID uint) bool {
	for _, u := range c.Units {
		if u.ID == unitID {
			return true
		}
	}
	return false
}
