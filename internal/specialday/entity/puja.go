package entity

import "time"

// Date mappings. Only fixed dates are resolved server side.
const (
	MappingFixed     = "fixed"
	MappingRecurring = "recurring"
)

// SpecialPuja is a festival or observance shown on the special days screen.
type SpecialPuja struct {
	ID          int64      `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Description string     `db:"description" json:"description"`
	DateMapping string     `db:"date_mapping" json:"date_mapping"`
	NextDate    *time.Time `db:"next_date" json:"next_date,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// UpcomingPuja is a fixed-date puja inside the lookahead window.
type UpcomingPuja struct {
	SpecialPuja
	DaysUntil int `json:"days_until"`
}
