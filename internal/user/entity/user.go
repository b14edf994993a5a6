package entity

import "time"

const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// User is a row of the `users` table. A user is identified by a verified
// mobile number; everything else is profile data edited in the app.
type User struct {
	ID           int64      `db:"id"`
	Name         string     `db:"name"`
	Email        *string    `db:"email"`
	Phone        string     `db:"phone"`
	Gender       *string    `db:"gender"`
	DateOfBirth  *time.Time `db:"date_of_birth"`
	PlaceOfBirth *string    `db:"place_of_birth"`
	Rashi        *string    `db:"rashi"`
	ReferralCode string     `db:"referral_code"`
	Status       string     `db:"status"`
	LastLoginAt  *time.Time `db:"last_login_at"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

// Complete reports whether every optional profile field has been filled in.
func (u *User) Complete() bool {
	return u.Name != "" && u.Email != nil && u.Gender != nil && u.DateOfBirth != nil &&
		u.PlaceOfBirth != nil && u.Rashi != nil
}

// Profile is the JSON view of a user returned to the app; the app caches it
// locally for session continuity.
type Profile struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone"`
	Gender       string    `json:"gender,omitempty"`
	DateOfBirth  string    `json:"date_of_birth,omitempty"`
	PlaceOfBirth string    `json:"place_of_birth,omitempty"`
	Rashi        string    `json:"rashi,omitempty"`
	ReferralCode string    `json:"referral_code"`
	MudraBalance int64     `json:"mudra_balance"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewProfile projects u with the given balance.
func NewProfile(u *User, balance int64) *Profile {
	p := &Profile{
		ID:           u.ID,
		Name:         u.Name,
		Phone:        u.Phone,
		ReferralCode: u.ReferralCode,
		MudraBalance: balance,
		CreatedAt:    u.CreatedAt,
	}
	if u.Email != nil {
		p.Email = *u.Email
	}
	if u.Gender != nil {
		p.Gender = *u.Gender
	}
	if u.DateOfBirth != nil {
		p.DateOfBirth = u.DateOfBirth.Format(time.DateOnly)
	}
	if u.PlaceOfBirth != nil {
		p.PlaceOfBirth = *u.PlaceOfBirth
	}
	if u.Rashi != nil {
		p.Rashi = *u.Rashi
	}
	return p
}
