package models

import (
	"time"
)

// Role is the authorization tier attached to a user and its session.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// IdentityKind separates placeholder identities created by an OTP request
// from accounts that completed signup.
type IdentityKind string

const (
	IdentityPending    IdentityKind = "PENDING"
	IdentityRegistered IdentityKind = "REGISTERED"
)

// User represents a customer or administrator.
type User struct {
	BaseModel
	Name          string       `json:"name"`
	Email         *string      `gorm:"uniqueIndex" json:"email"`
	PasswordHash  string       `json:"-"`
	Phone         *string      `gorm:"uniqueIndex" json:"phone"`
	PhoneVerified bool         `json:"phone_verified"`
	OTP           *string      `gorm:"column:otp" json:"-"`
	OTPExpiresAt  *time.Time   `gorm:"column:otp_expires_at" json:"-"`
	Role          Role         `gorm:"size:16;default:'USER'" json:"role"`
	Kind          IdentityKind `gorm:"size:16;default:'PENDING';index" json:"kind"`
	Address       string       `json:"address"`
	Orders        []Order      `json:"orders,omitempty"`
}

// IsAdmin reports whether the user carries the ADMIN role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsRegistered reports whether the user completed signup.
func (u *User) IsRegistered() bool {
	return u.Kind == IdentityRegistered
}

// DirectoryMember is a public directory entry.
type DirectoryMember struct {
	BaseModel
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Organization string `json:"organization"`
	City         string `json:"city"`
}
