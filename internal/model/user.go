package model

import "time"

// User stores Telegram user metadata. Created lazily on first contact.
type User struct {
	ID         uint  `gorm:"primaryKey"`
	TelegramID int64 `gorm:"uniqueIndex"`
	FirstName  string
	Username   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
