package model

import "time"

// Task status values. A task is created pending and transitions to done
// exactly once; there is no way back.
const (
	StatusPending = "pending"
	StatusDone    = "done"
)

// Task represents a single item on a user's list. DueAt is a calendar date
// (no time component); nil means the task has no deadline.
type Task struct {
	ID          uint  `gorm:"primaryKey"`
	UserID      uint  `gorm:"index"`
	CategoryID  *uint `gorm:"index"`
	Title       string
	Description string
	Status      string `gorm:"default:pending;index"`
	DueAt       *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
