package entity

import "time"

// Purpose is what a verified code unlocks.
type Purpose string

const (
	PurposeLogin  Purpose = "login"
	PurposeSignup Purpose = "signup"
)

// State is the per-phone OTP bookkeeping row. Only the bcrypt hash of the
// current code is stored.
type State struct {
	Phone           string     `db:"phone"`
	Purpose         string     `db:"purpose"`
	RequestID       string     `db:"request_id"`
	CodeHash        string     `db:"code_hash"`
	ExpiresAt       *time.Time `db:"expires_at"`
	LastSentAt      *time.Time `db:"last_sent_at"`
	SendCount       int        `db:"send_count"`
	WindowStartedAt *time.Time `db:"window_started_at"`
	VerifyAttempts  int        `db:"verify_attempts"`
	LockedUntil     *time.Time `db:"locked_until"`
}
