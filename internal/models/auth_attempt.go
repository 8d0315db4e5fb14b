package models

import "time"

// AuthAttempt is an append-only record of one authentication attempt. It is
// only ever read as a windowed failure count per IP.
type AuthAttempt struct {
	ID        uint      `gorm:"primarykey"`
	IP        string    `gorm:"type:varchar(64);index" json:"ip"`
	Token     string    `gorm:"type:varchar(255)" json:"-"`
	Success   bool      `gorm:"not null" json:"success"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
	CreatedAt time.Time
}

func (AuthAttempt) TableName() string {
	return "auth_attempts"
}
