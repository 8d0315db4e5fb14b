package models

import (
	"time"

	"github.com/google/uuid"
)

// RequestLog is the ground truth for usage counting: one row per
// successfully-gated public API call, written only after the request is
// confirmed servable so rejected requests never count against quota.
type RequestLog struct {
	ID        uint      `gorm:"primarykey"`
	AppID     uuid.UUID `gorm:"type:uuid;not null;index" json:"app_id"`
	IP        string    `gorm:"type:varchar(64)" json:"ip"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
	CreatedAt time.Time
}

func (RequestLog) TableName() string {
	return "request_logs"
}
