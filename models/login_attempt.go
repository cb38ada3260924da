package models

import "time"

// LoginAttempt is an append-only record of a failed login. Rows inside
// the trailing lockout window are counted to decide whether an
// identifier is locked; rows are deleted on successful login and on
// password-reset completion.
type LoginAttempt struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      string    `json:"user_id" gorm:"index;size:20;not null"`
	AttemptTime time.Time `json:"attempt_time" gorm:"index;not null"`
}

// PasswordReset stores an opaque reset token with a hard expiry. Used
// tokens stay in the table for audit; they can never be redeemed twice.
type PasswordReset struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"index;size:20;not null"`
	Token     string    `json:"-" gorm:"uniqueIndex;size:64;not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	Used      bool      `json:"used" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
}

// CountRecentAttempts returns how many of the given attempt times fall
// inside the trailing window ending at now.
func CountRecentAttempts(attempts []time.Time, now time.Time, window time.Duration) int {
	cutoff := now.Add(-window)
	n := 0
	for _, at := range attempts {
		if !at.Before(cutoff) && !at.After(now) {
			n++
		}
	}
	return n
}
