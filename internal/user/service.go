package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-puja/internal/mudra"
	mudraentity "github.com/ovaphlow/pitchfork/service-puja/internal/mudra/entity"
	"github.com/ovaphlow/pitchfork/service-puja/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-puja/internal/user/repo"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrAlreadyExists = errors.New("user already exists")
	ErrDisabled      = errors.New("user disabled")
)

// Rewards is the part of the mudra service the user flows need.
type Rewards interface {
	Award(ctx context.Context, userID int64, activity mudra.Activity, note string) (*mudraentity.Entry, error)
	Balance(ctx context.Context, userID int64) (int64, error)
}

// SignupInput is the signup form after OTP verification.
type SignupInput struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Gender       string `json:"gender"`
	DateOfBirth  string `json:"date_of_birth"`
	PlaceOfBirth string `json:"place_of_birth"`
	Rashi        string `json:"rashi"`
}

// ProfileUpdate carries the edited fields; nil means unchanged and an empty
// string clears an optional field.
type ProfileUpdate struct {
	Name         *string `json:"name"`
	Email        *string `json:"email"`
	Gender       *string `json:"gender"`
	DateOfBirth  *string `json:"date_of_birth"`
	PlaceOfBirth *string `json:"place_of_birth"`
	Rashi        *string `json:"rashi"`
}

// UserService orchestrates signup and profile flows.
type UserService struct {
	repo    *userrepo.UserRepo
	rewards Rewards
	newCode func() string
	logger  *zap.SugaredLogger
	now     func() time.Time
}

func NewUserService(db *sqlx.DB, rewards Rewards, newCode func() string, logger *zap.SugaredLogger) *UserService {
	return &UserService{repo: userrepo.NewUserRepo(db), rewards: rewards, newCode: newCode, logger: logger, now: time.Now}
}

// Repo exposes the user repository for table setup and lookups by other features.
func (s *UserService) Repo() *userrepo.UserRepo { return s.repo }

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Signup validates and creates a user, then credits the signup bonus.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*entity.User, error) {
	fe := fieldErrors{}
	u := &entity.User{Name: strings.TrimSpace(in.Name), Status: entity.StatusActive}
	if !ValidName(in.Name) {
		fe.add("name", "must be at least 2 characters")
	}
	if phone, ok := NormalizePhone(in.Phone); ok {
		u.Phone = phone
	} else {
		fe.add("phone", "must be a 10 digit mobile number")
	}
	s.applyOptional(fe, u, ProfileUpdate{
		Email:        &in.Email,
		Gender:       &in.Gender,
		DateOfBirth:  &in.DateOfBirth,
		PlaceOfBirth: &in.PlaceOfBirth,
		Rashi:        &in.Rashi,
	})
	if err := fe.err(); err != nil {
		return nil, err
	}

	// referral codes are random; retry the rare collision
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		u.ReferralCode = s.newCode()
		if _, err = s.repo.Create(ctx, u); err == nil {
			break
		}
		var dup *userrepo.DuplicateError
		if !errors.As(err, &dup) {
			return nil, fmt.Errorf("create user: %w", err)
		}
		if dup.Field != "referral_code" {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, dup.Field)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.award(ctx, u.ID, mudra.SignupBonus)
	if u.Complete() {
		s.award(ctx, u.ID, mudra.ProfileComplete)
	}
	return u, nil
}

// award credits mudras best-effort; a failed bonus never fails the request.
func (s *UserService) award(ctx context.Context, userID int64, a mudra.Activity) {
	if s.rewards == nil {
		return
	}
	if _, err := s.rewards.Award(ctx, userID, a, ""); err != nil && !errors.Is(err, mudra.ErrAlreadyAwarded) {
		s.logger.Warnw("mudra award failed", "user_id", userID, "activity", a, "err", err)
	}
}

// applyOptional validates and copies the optional profile fields of p onto u.
func (s *UserService) applyOptional(fe fieldErrors, u *entity.User, p ProfileUpdate) {
	if p.Email != nil {
		if e := optional(*p.Email); e == nil {
			u.Email = nil
		} else if ValidEmail(*e) {
			lower := strings.ToLower(*e)
			u.Email = &lower
		} else {
			fe.add("email", "must be a valid email address")
		}
	}
	if p.Gender != nil {
		if g := optional(*p.Gender); g == nil {
			u.Gender = nil
		} else if lower := strings.ToLower(*g); genders[lower] {
			u.Gender = &lower
		} else {
			fe.add("gender", "must be male, female or other")
		}
	}
	if p.DateOfBirth != nil {
		if d := optional(*p.DateOfBirth); d == nil {
			u.DateOfBirth = nil
		} else if dob, ok := ParseDOB(*d, s.now()); ok {
			u.DateOfBirth = &dob
		} else {
			fe.add("date_of_birth", "must be a past date in YYYY-MM-DD format")
		}
	}
	if p.PlaceOfBirth != nil {
		u.PlaceOfBirth = optional(*p.PlaceOfBirth)
	}
	if p.Rashi != nil {
		if rs := optional(*p.Rashi); rs == nil {
			u.Rashi = nil
		} else if ValidRashi(*rs) {
			lower := strings.ToLower(*rs)
			u.Rashi = &lower
		} else {
			fe.add("rashi", "must be one of the twelve rashis")
		}
	}
}

// Get returns the user row or ErrUserNotFound.
func (s *UserService) Get(ctx context.Context, id int64) (*entity.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// GetByPhone looks up an active user by phone (already normalized).
func (s *UserService) GetByPhone(ctx context.Context, phone string) (*entity.User, error) {
	u, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if u.Status == entity.StatusDisabled {
		return nil, ErrDisabled
	}
	return u, nil
}

// GetByReferralCode returns the active owner of code or ErrUserNotFound.
func (s *UserService) GetByReferralCode(ctx context.Context, code string) (*entity.User, error) {
	u, err := s.repo.GetByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if u.Status == entity.StatusDisabled {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// active returns the user unless it is missing or disabled. Access tokens outlive
// a deactivation by up to their TTL, so profile operations check it again.
func (s *UserService) active(ctx context.Context, id int64) (*entity.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Status == entity.StatusDisabled {
		return nil, ErrDisabled
	}
	return u, nil
}

// Deactivate disables a user. A disabled phone can no longer log in or earn referrals.
func (s *UserService) Deactivate(ctx context.Context, id int64) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("deactivate user: %w", err)
	}
	s.logger.Infow("user deactivated", "user_id", id)
	return nil
}

// GetProfile returns the profile with its balance recomputed from the ledger.
func (s *UserService) GetProfile(ctx context.Context, id int64) (*entity.Profile, error) {
	u, err := s.active(ctx, id)
	if err != nil {
		return nil, err
	}
	var bal int64
	if s.rewards != nil {
		if bal, err = s.rewards.Balance(ctx, id); err != nil {
			return nil, fmt.Errorf("mudra balance: %w", err)
		}
	}
	return entity.NewProfile(u, bal), nil
}

// UpdateProfile applies a partial update. The first time the profile becomes
// complete the user earns the profile_complete reward.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, p ProfileUpdate) (*entity.Profile, error) {
	u, err := s.active(ctx, id)
	if err != nil {
		return nil, err
	}
	wasComplete := u.Complete()

	fe := fieldErrors{}
	if p.Name != nil {
		if ValidName(*p.Name) {
			u.Name = strings.TrimSpace(*p.Name)
		} else {
			fe.add("name", "must be at least 2 characters")
		}
	}
	s.applyOptional(fe, u, p)
	if err := fe.err(); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateProfile(ctx, u); err != nil {
		var dup *userrepo.DuplicateError
		if errors.As(err, &dup) {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, dup.Field)
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if !wasComplete && u.Complete() {
		s.award(ctx, u.ID, mudra.ProfileComplete)
	}
	return s.GetProfile(ctx, id)
}

// RecordLogin stamps last_login_at and credits the daily login reward.
func (s *UserService) RecordLogin(ctx context.Context, id int64) {
	if err := s.repo.TouchLogin(ctx, id); err != nil {
		s.logger.Warnw("touch login failed", "user_id", id, "err", err)
	}
	s.award(ctx, id, mudra.DailyLogin)
}
