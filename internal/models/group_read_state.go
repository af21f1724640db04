package models

import (
	"time"
)

// GroupReadState tracks per-user read progress in a group.
// LastReadTimestamp is a monotonic watermark: group messages with a
// Timestamp greater than it count as unread for the user.
type GroupReadState struct {
	GroupID           string    `gorm:"primaryKey;size:64" json:"group_id"`
	UserID            string    `gorm:"primaryKey;size:64" json:"user_id"`
	LastReadTimestamp int64     `gorm:"not null;default:0" json:"last_read_timestamp"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
