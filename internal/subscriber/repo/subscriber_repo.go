package repo

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-puja/internal/subscriber/entity"
)

type SubscriberRepo struct {
	db *sqlx.DB
}

func NewSubscriberRepo(db *sqlx.DB) *SubscriberRepo {
	return &SubscriberRepo{db: db}
}

// EnsureTable creates the subscription and seen-flag tables if they do not already exist.
func (r *SubscriberRepo) EnsureTable(ctx context.Context) error {
	const tbl = `
	CREATE TABLE IF NOT EXISTS reminder_subscribers (
		user_id BIGINT PRIMARY KEY,
		channel varchar(16) NOT NULL DEFAULT 'push',
		enabled BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`
	if _, err := r.db.ExecContext(ctx, tbl); err != nil {
		return err
	}

	const idx = `
	CREATE INDEX IF NOT EXISTS idx_reminder_subscribers_enabled ON reminder_subscribers (enabled);
	`
	if _, err := r.db.ExecContext(ctx, idx); err != nil {
		return err
	}

	const seen = `
	CREATE TABLE IF NOT EXISTS reminder_seen (
		user_id BIGINT NOT NULL,
		day DATE NOT NULL,
		seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, day)
	);
	`
	if _, err := r.db.ExecContext(ctx, seen); err != nil {
		return err
	}
	return nil
}

// Upsert writes the subscription row for s.UserID.
func (r *SubscriberRepo) Upsert(ctx context.Context, s *entity.Subscriber) error {
	const q = `INSERT INTO reminder_subscribers (user_id, channel, enabled) VALUES ($1,$2,$3)
	ON CONFLICT (user_id) DO UPDATE SET channel=EXCLUDED.channel, enabled=EXCLUDED.enabled, updated_at=NOW()
	RETURNING created_at, updated_at`
	return r.db.QueryRowxContext(ctx, q, s.UserID, s.Channel, s.Enabled).Scan(&s.CreatedAt, &s.UpdatedAt)
}

// Get returns the subscription of userID or sql.ErrNoRows.
func (r *SubscriberRepo) Get(ctx context.Context, userID int64) (*entity.Subscriber, error) {
	var s entity.Subscriber
	const q = `SELECT user_id, channel, enabled, created_at, updated_at FROM reminder_subscribers WHERE user_id=$1`
	if err := r.db.GetContext(ctx, &s, q, userID); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListEnabled returns every enabled subscription ordered by user.
func (r *SubscriberRepo) ListEnabled(ctx context.Context) ([]entity.Subscriber, error) {
	const q = `SELECT user_id, channel, enabled, created_at, updated_at FROM reminder_subscribers
	WHERE enabled ORDER BY user_id`
	out := []entity.Subscriber{}
	if err := r.db.SelectContext(ctx, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkSeen records that userID saw the reminder for day. Repeated calls are no-ops.
func (r *SubscriberRepo) MarkSeen(ctx context.Context, userID int64, day time.Time) error {
	const q = `INSERT INTO reminder_seen (user_id, day) VALUES ($1,$2) ON CONFLICT (user_id, day) DO NOTHING`
	_, err := r.db.ExecContext(ctx, q, userID, day.Format(time.DateOnly))
	return err
}

// HasSeen reports whether userID already saw the reminder for day.
func (r *SubscriberRepo) HasSeen(ctx context.Context, userID int64, day time.Time) (bool, error) {
	var ok bool
	const q = `SELECT EXISTS (SELECT 1 FROM reminder_seen WHERE user_id=$1 AND day=$2)`
	err := r.db.GetContext(ctx, &ok, q, userID, day.Format(time.DateOnly))
	return ok, err
}
