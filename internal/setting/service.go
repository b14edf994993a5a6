package setting

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/ovaphlow/pitchfork/service-puja/internal/setting/entity"
	"github.com/ovaphlow/pitchfork/service-puja/internal/setting/repo"
	"github.com/ovaphlow/pitchfork/service-puja/pkg/utilities"
)

// Categories served by dedicated endpoints.
const (
	CategoryTemple = "temple"
	CategoryFlags  = "flags"
)

// Service encapsulates business logic for settings and depends on a repo.
type Service struct {
	repo *repo.Repo
	now  func() time.Time
}

// NewService constructs a Service over db.
func NewService(db *sqlx.DB) *Service {
	return &Service{repo: repo.NewRepo(db), now: time.Now}
}

// Repo exposes the settings repository for table setup.
func (s *Service) Repo() *repo.Repo { return s.repo }

// sentinel errors for common failure modes
var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrDuplicate       = errors.New("setting already exists")
	ErrInvalidInput    = errors.New("invalid input")
)

// List returns settings by category (optional) with pagination.
func (s *Service) List(ctx context.Context, category string, limit, offset int) ([]*entity.Setting, error) {
	return s.repo.List(ctx, strings.TrimSpace(category), limit, offset)
}

// Get returns a setting by id.
func (s *Service) Get(ctx context.Context, id string) (*entity.Setting, error) {
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return st, nil
}

// Create creates a new setting. It applies defaults when fields are omitted.
func (s *Service) Create(ctx context.Context, in *entity.Setting) (*entity.Setting, error) {
	in.Category = strings.TrimSpace(in.Category)
	in.Key = strings.TrimSpace(in.Key)
	if in.Category == "" || in.Key == "" {
		return nil, fmt.Errorf("%w: category and key are required", ErrInvalidInput)
	}
	if err := normalizeValue(in); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if in.ID == "" {
		in.ID = utilities.NewKSUID()
	}
	in.Version = 1
	if in.Status == "" {
		in.Status = "active"
	}
	in.CreatedAt = now
	in.UpdatedAt = now
	if err := s.repo.Create(ctx, in); err != nil {
		if errors.Is(err, repo.ErrDuplicateKey) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return in, nil
}

// Update replaces value and status using optimistic locking on version.
// in.Version is the version the caller last read; zero skips the check.
func (s *Service) Update(ctx context.Context, in *entity.Setting) (*entity.Setting, error) {
	existing, err := s.Get(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if in.Version != 0 && in.Version != existing.Version {
		return nil, ErrVersionConflict
	}
	if err := normalizeValue(in); err != nil {
		return nil, err
	}
	expected := existing.Version
	existing.Value = in.Value
	if in.Status != "" {
		existing.Status = in.Status
	}
	existing.Version = expected + 1
	existing.UpdatedAt = s.now().UTC()
	rows, err := s.repo.Update(ctx, existing, expected)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// existing was found, so 0 rows indicates a concurrent writer
		return nil, ErrVersionConflict
	}
	return existing, nil
}

// Delete removes a setting by id.
func (s *Service) Delete(ctx context.Context, id string) error {
	rows, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Values returns the active settings of category as key -> value.
func (s *Service) Values(ctx context.Context, category string) (map[string]json.RawMessage, error) {
	list, err := s.repo.List(ctx, category, 500, 0)
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(list))
	for _, st := range list {
		if st.Status != "active" {
			continue
		}
		out[st.Key] = json.RawMessage(st.Value)
	}
	return out, nil
}

// EnsureDefaults writes defaults that are not stored yet and returns how many were added.
func (s *Service) EnsureDefaults(ctx context.Context, defaults []*entity.Setting) (int, error) {
	added := 0
	now := s.now().UTC()
	for _, d := range defaults {
		if d.ID == "" {
			d.ID = utilities.NewKSUID()
		}
		d.CreatedAt, d.UpdatedAt = now, now
		ok, err := s.repo.CreateIfMissing(ctx, d)
		if err != nil {
			return added, fmt.Errorf("seed %s/%s: %w", d.Category, d.Key, err)
		}
		if ok {
			added++
		}
	}
	return added, nil
}

// Defaults is the temple profile and feature flags written on first start.
func Defaults() []*entity.Setting {
	raw := func(s string) types.JSONText { return types.JSONText(s) }
	return []*entity.Setting{
		entity.NewSetting("", CategoryTemple, "name", raw(`"Shri Mandir"`)),
		entity.NewSetting("", CategoryTemple, "darshan_timings", raw(`{"morning":"05:30-12:00","evening":"16:00-21:00"}`)),
		entity.NewSetting("", CategoryTemple, "live_darshan", raw(`{"enabled":true}`)),
		entity.NewSetting("", CategoryTemple, "contact", raw(`{"phone":"","email":""}`)),
		entity.NewSetting("", CategoryFlags, "referrals_enabled", raw(`true`)),
		entity.NewSetting("", CategoryFlags, "bookings_enabled", raw(`true`)),
	}
}

func normalizeValue(in *entity.Setting) error {
	if len(in.Value) == 0 {
		in.Value = types.JSONText("{}")
		return nil
	}
	if !json.Valid(in.Value) {
		return fmt.Errorf("%w: value must be JSON", ErrInvalidInput)
	}
	return nil
}
