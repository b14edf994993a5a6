package repo

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ovaphlow/pitchfork/service-puja/internal/user/entity"
)

// DuplicateError reports a unique constraint violation on Field.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string { return "duplicate " + e.Field }

// UserRepo provides data access for users table using sqlx.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// EnsureTable creates the users table if not exists (idempotent).
// This is a convenience for early development; prefer migrations in production.
func (r *UserRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE EXTENSION IF NOT EXISTS citext;
CREATE TABLE IF NOT EXISTS users (
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL,
  email CITEXT UNIQUE,
  phone TEXT NOT NULL UNIQUE,
  gender TEXT,
  date_of_birth DATE,
  place_of_birth TEXT,
  rashi TEXT,
  referral_code TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'active',
  last_login_at TIMESTAMPTZ,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

const selectColumns = `SELECT id, name, email, phone, gender, date_of_birth, place_of_birth, rashi,
		referral_code, status, last_login_at, created_at, updated_at FROM users`

// Create inserts a new user row. Returns new ID.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) (int64, error) {
	q := `INSERT INTO users (name,email,phone,gender,date_of_birth,place_of_birth,rashi,referral_code,status)
		  VALUES (:name,:email,:phone,:gender,:date_of_birth,:place_of_birth,:rashi,:referral_code,:status) RETURNING id, created_at, updated_at`
	params := map[string]any{
		"name":           u.Name,
		"email":          u.Email,
		"phone":          u.Phone,
		"gender":         u.Gender,
		"date_of_birth":  u.DateOfBirth,
		"place_of_birth": u.PlaceOfBirth,
		"rashi":          u.Rashi,
		"referral_code":  u.ReferralCode,
		"status":         u.Status,
	}
	stmt, err := r.db.NamedQueryContext(ctx, q, params)
	if err != nil {
		return 0, mapUnique(err)
	}
	defer stmt.Close()
	if stmt.Next() {
		if err := stmt.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return 0, err
		}
		return u.ID, nil
	}
	if err := stmt.Err(); err != nil {
		return 0, mapUnique(err)
	}
	return 0, errors.New("no id returned")
}

func (r *UserRepo) get(ctx context.Context, where string, arg any) (*entity.User, error) {
	var row entity.User
	if err := r.db.GetContext(ctx, &row, selectColumns+" WHERE "+where, arg); err != nil {
		return nil, err
	}
	return &row, nil
}

// GetByID fetches a full user row or sql.ErrNoRows.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	return r.get(ctx, "id=$1", id)
}

// GetByPhone fetches by the normalized 10-digit phone.
func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (*entity.User, error) {
	return r.get(ctx, "phone=$1", phone)
}

// GetByReferralCode fetches the owner of a referral code.
func (r *UserRepo) GetByReferralCode(ctx context.Context, code string) (*entity.User, error) {
	return r.get(ctx, "referral_code=$1", code)
}

// UpdateProfile writes the editable profile columns.
func (r *UserRepo) UpdateProfile(ctx context.Context, u *entity.User) error {
	const q = `UPDATE users SET name=$2, email=$3, gender=$4, date_of_birth=$5, place_of_birth=$6, rashi=$7, updated_at=NOW()
		WHERE id=$1 RETURNING updated_at`
	if err := r.db.GetContext(ctx, &u.UpdatedAt, q, u.ID, u.Name, u.Email, u.Gender, u.DateOfBirth, u.PlaceOfBirth, u.Rashi); err != nil {
		return mapUnique(err)
	}
	return nil
}

// TouchLogin records a successful OTP login.
func (r *UserRepo) TouchLogin(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at=NOW() WHERE id=$1`, id)
	return err
}

// Deactivate marks a user as disabled.
func (r *UserRepo) Deactivate(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET status='disabled', updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// mapUnique turns a unique_violation into a *DuplicateError naming the column.
func mapUnique(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return err
	}
	switch {
	case strings.Contains(pqErr.Constraint, "phone"):
		return &DuplicateError{Field: "phone"}
	case strings.Contains(pqErr.Constraint, "email"):
		return &DuplicateError{Field: "email"}
	case strings.Contains(pqErr.Constraint, "referral_code"):
		return &DuplicateError{Field: "referral_code"}
	}
	return &DuplicateError{Field: pqErr.Constraint}
}
