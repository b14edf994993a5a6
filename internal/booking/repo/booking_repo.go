package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-puja/internal/booking/entity"
)

// BookingRepo stores providers and bookings.
type BookingRepo struct {
	db *sqlx.DB
}

func NewBookingRepo(db *sqlx.DB) *BookingRepo { return &BookingRepo{db: db} }

// EnsureTable creates the providers and bookings tables if not exists.
func (r *BookingRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS providers (
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  kind TEXT NOT NULL DEFAULT 'pandit',
  city TEXT NOT NULL DEFAULT '',
  languages TEXT[] NOT NULL DEFAULT '{}',
  services TEXT[] NOT NULL DEFAULT '{}',
  rating DOUBLE PRECISION NOT NULL DEFAULT 0,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS bookings (
  id TEXT PRIMARY KEY,
  user_id BIGINT NOT NULL,
  provider_id BIGINT NOT NULL REFERENCES providers(id),
  puja_name TEXT NOT NULL,
  scheduled_for DATE NOT NULL,
  notes TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'requested',
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings(user_id, scheduled_for DESC);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

const providerColumns = `SELECT id, name, kind, city, languages, services, rating, created_at FROM providers`

// ListProviders returns every provider, best rated first.
func (r *BookingRepo) ListProviders(ctx context.Context) ([]entity.Provider, error) {
	out := []entity.Provider{}
	if err := r.db.SelectContext(ctx, &out, providerColumns+` ORDER BY rating DESC, name`); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProvider returns the provider or sql.ErrNoRows.
func (r *BookingRepo) GetProvider(ctx context.Context, id int64) (*entity.Provider, error) {
	var p entity.Provider
	if err := r.db.GetContext(ctx, &p, providerColumns+` WHERE id=$1`, id); err != nil {
		return nil, err
	}
	return &p, nil
}

// SeedProviders inserts providers whose name is not present yet.
func (r *BookingRepo) SeedProviders(ctx context.Context, list []entity.Provider) (int64, error) {
	const q = `INSERT INTO providers (name, kind, city, languages, services, rating)
	VALUES (:name, :kind, :city, :languages, :services, :rating) ON CONFLICT (name) DO NOTHING`
	var added int64
	for i := range list {
		res, err := r.db.NamedExecContext(ctx, q, &list[i])
		if err != nil {
			return added, err
		}
		n, _ := res.RowsAffected()
		added += n
	}
	return added, nil
}

// CreateBooking inserts b and fills created_at.
func (r *BookingRepo) CreateBooking(ctx context.Context, b *entity.Booking) error {
	const q = `INSERT INTO bookings (id, user_id, provider_id, puja_name, scheduled_for, notes, status)
	VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING created_at`
	return r.db.QueryRowxContext(ctx, q, b.ID, b.UserID, b.ProviderID, b.PujaName,
		b.ScheduledFor.Format("2006-01-02"), b.Notes, b.Status).Scan(&b.CreatedAt)
}

// ListByUser returns a user's bookings, latest date first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]entity.Booking, error) {
	const q = `SELECT id, user_id, provider_id, puja_name, scheduled_for, notes, status, created_at FROM bookings
	WHERE user_id=$1 ORDER BY scheduled_for DESC, created_at DESC LIMIT $2 OFFSET $3`
	out := []entity.Booking{}
	if err := r.db.SelectContext(ctx, &out, q, userID, limit, offset); err != nil {
		return nil, err
	}
	return out, nil
}
