package models

import "time"

// Profile is the user-profile record backing display-name resolution.
// The aggregation layer only ever point-reads it; profile writes happen
// through the profile endpoints.
type Profile struct {
	UserID      string    `gorm:"primaryKey;size:64" json:"user_id"`
	DisplayName string    `gorm:"size:100;not null" json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Online      bool      `gorm:"default:false" json:"online"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
