package models

import "time"

// PasswordReset is one forgot-password attempt. Token identifies the attempt
// to the client; Code is the value delivered by SMS.
type PasswordReset struct {
	BaseModel
	Phone     string     `gorm:"index" json:"-"`
	Token     string     `gorm:"uniqueIndex" json:"token"`
	Code      string     `json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	Verified  bool       `json:"verified"`
	UsedAt    *time.Time `json:"used_at"`
}
