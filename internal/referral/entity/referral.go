package entity

import "time"

// Referral records that RefereeID signed up with ReferrerID's code.
// A referee can be referred at most once.
type Referral struct {
	ID         int64     `db:"id" json:"id"`
	ReferrerID int64     `db:"referrer_id" json:"referrer_id"`
	RefereeID  int64     `db:"referee_id" json:"referee_id"`
	Code       string    `db:"code" json:"code"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Stats is the "invite friends" screen summary.
type Stats struct {
	Code         string `json:"code"`
	Referrals    int64  `json:"referrals"`
	MudrasEarned int64  `json:"mudras_earned"`
	ReferredBy   *int64 `json:"referred_by,omitempty"`
}
