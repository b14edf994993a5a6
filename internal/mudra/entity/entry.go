package entity

import "time"

// Entry is one append-only row of the mudra ledger. Balances are never
// stored; they are the sum of a user's entries.
type Entry struct {
	ID        string    `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Activity  string    `db:"activity" json:"activity"`
	Amount    int64     `db:"amount" json:"amount"`
	Note      string    `db:"note" json:"note,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ActivityTotal is the summed amount for one activity.
type ActivityTotal struct {
	Activity string `db:"activity" json:"activity"`
	Total    int64  `db:"total" json:"total"`
	Count    int64  `db:"count" json:"count"`
}
