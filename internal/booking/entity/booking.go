package entity

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

// Provider is a pandit or temple that performs pujas.
type Provider struct {
	ID        int64          `db:"id" json:"id"`
	Name      string         `db:"name" json:"name"`
	Kind      string         `db:"kind" json:"kind"` // pandit / temple
	City      string         `db:"city" json:"city"`
	Languages pq.StringArray `db:"languages" json:"languages"`
	Services  pq.StringArray `db:"services" json:"services"`
	Rating    float64        `db:"rating" json:"rating"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// Offers reports whether the provider performs puja, ignoring case.
func (p *Provider) Offers(puja string) bool {
	for _, s := range p.Services {
		if strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(puja)) {
			return true
		}
	}
	return false
}

// Booking is a user's request for a puja on a date.
type Booking struct {
	ID           string    `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	ProviderID   int64     `db:"provider_id" json:"provider_id"`
	PujaName     string    `db:"puja_name" json:"puja_name"`
	ScheduledFor time.Time `db:"scheduled_for" json:"scheduled_for"`
	Notes        string    `db:"notes" json:"notes"`
	Status       string    `db:"status" json:"status"` // requested / confirmed / cancelled
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

const StatusRequested = "requested"
