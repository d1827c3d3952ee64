// internal/model/learner.go
package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleLearner = "learner"
	RoleAdmin   = "admin"
)

// Learner は受講者名簿 (認証自体は外部サービスが担う)
type Learner struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Role      string    `gorm:"not null;default:learner" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Learner) TableName() string {
	return "learners"
}

func (l *Learner) IsAdmin() bool {
	return l.Role == RoleAdmin
}

type ContextKey string

const (
	UserIDKey   ContextKey = "userID"
	UserRoleKey ContextKey = "userRole"
)
