package entity

import "time"

// Channels a reminder can be delivered on.
const (
	ChannelPush     = "push"
	ChannelSMS      = "sms"
	ChannelWhatsApp = "whatsapp"
)

// Subscriber is a user's special-day reminder subscription.
type Subscriber struct {
	UserID    int64     `db:"user_id" json:"user_id"`
	Channel   string    `db:"channel" json:"channel"`
	Enabled   bool      `db:"enabled" json:"enabled"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
