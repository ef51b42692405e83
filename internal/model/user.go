package model

import "time"

// User is a registered account. OTP fields are only set while a password
// reset is in flight.
type User struct {
	ID           string     `json:"id" db:"id"`
	UserName     string     `json:"userName" db:"user_name"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	OTP          *string    `json:"-" db:"otp"`
	OTPExpiresAt *time.Time `json:"-" db:"otp_expires_at"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
}

// Summary returns the public projection of u.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, UserName: u.UserName, Email: u.Email}
}

// UserSummary is the subset of a user that other users may see.
type UserSummary struct {
	ID       string `json:"id"`
	UserName string `json:"userName"`
	Email    string `json:"email"`
}

// Identity is the caller resolved from a verified session credential.
// It is the only source of "current actor" for permission decisions.
type Identity struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Email    string `json:"email"`
}
