package model

import "time"

// Category groups tasks by area (work, health, study, etc.). Name is unique
// per user, compared case-insensitively by the repository.
type Category struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      uint   `gorm:"index:idx_user_category_name,unique"`
	Name        string `gorm:"index:idx_user_category_name,unique"`
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Tasks       []Task `gorm:"foreignKey:CategoryID"`
}
