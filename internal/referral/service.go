package referral

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-puja/internal/mudra"
	mudraentity "github.com/ovaphlow/pitchfork/service-puja/internal/mudra/entity"
	"github.com/ovaphlow/pitchfork/service-puja/internal/referral/entity"
	"github.com/ovaphlow/pitchfork/service-puja/internal/referral/repo"
	"github.com/ovaphlow/pitchfork/service-puja/internal/user"
	userentity "github.com/ovaphlow/pitchfork/service-puja/internal/user/entity"
)

var (
	ErrInvalidCode     = errors.New("invalid referral code")
	ErrSelfReferral    = errors.New("cannot use your own referral code")
	ErrAlreadyReferred = errors.New("already referred")
)

// Users looks up referral code owners; satisfied by *user.UserService.
type Users interface {
	Get(ctx context.Context, id int64) (*userentity.User, error)
	GetByReferralCode(ctx context.Context, code string) (*userentity.User, error)
}

// Rewards credits referral mudras inside the referral's transaction; satisfied by *mudra.Service.
type Rewards interface {
	AwardTx(ctx context.Context, tx *sqlx.Tx, userID int64, activity mudra.Activity, note string) (*mudraentity.Entry, error)
}

// VerifyResult tells the signup form whether a typed code is usable.
type VerifyResult struct {
	Code         string `json:"code"`
	Valid        bool   `json:"valid"`
	ReferrerName string `json:"referrer_name,omitempty"`
}

type Service struct {
	repo    *repo.ReferralRepo
	users   Users
	rewards Rewards
	logger  *zap.SugaredLogger
}

func NewService(db *sqlx.DB, users Users, rewards Rewards, logger *zap.SugaredLogger) *Service {
	return &Service{repo: repo.NewReferralRepo(db), users: users, rewards: rewards, logger: logger}
}

// Repo exposes the referral repository for table setup.
func (s *Service) Repo() *repo.ReferralRepo { return s.repo }

// Verify reports whether code belongs to an active user and returns the
// owner's first name for display.
func (s *Service) Verify(ctx context.Context, raw string) (*VerifyResult, error) {
	code, ok := NormalizeCode(raw)
	if !ok {
		return &VerifyResult{Code: strings.ToUpper(strings.TrimSpace(raw))}, nil
	}
	owner, err := s.users.GetByReferralCode(ctx, code)
	if errors.Is(err, user.ErrUserNotFound) {
		return &VerifyResult{Code: code}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup referral code: %w", err)
	}
	return &VerifyResult{Code: code, Valid: true, ReferrerName: firstName(owner.Name)}, nil
}

// Process links refereeID to the owner of code and credits both sides.
func (s *Service) Process(ctx context.Context, refereeID int64, raw string) error {
	_, err := s.Apply(ctx, refereeID, raw)
	return err
}

// Apply is Process returning the stored referral.
func (s *Service) Apply(ctx context.Context, refereeID int64, raw string) (*entity.Referral, error) {
	code, ok := NormalizeCode(raw)
	if !ok {
		return nil, ErrInvalidCode
	}
	owner, err := s.users.GetByReferralCode(ctx, code)
	if errors.Is(err, user.ErrUserNotFound) {
		return nil, ErrInvalidCode
	}
	if err != nil {
		return nil, fmt.Errorf("lookup referral code: %w", err)
	}
	if owner.ID == refereeID {
		return nil, ErrSelfReferral
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin referral: %w", err)
	}
	defer tx.Rollback()

	ref := &entity.Referral{ReferrerID: owner.ID, RefereeID: refereeID, Code: code}
	if err := s.repo.Create(ctx, tx, ref); err != nil {
		if errors.Is(err, repo.ErrDuplicateReferee) {
			return nil, ErrAlreadyReferred
		}
		return nil, fmt.Errorf("create referral: %w", err)
	}

	awards := []struct {
		userID   int64
		activity mudra.Activity
		note     string
	}{
		{owner.ID, mudra.ReferralReferrer, "referred user " + strconv.FormatInt(refereeID, 10)},
		{refereeID, mudra.ReferralReferee, "joined with code " + code},
	}
	// ledger locks are taken in user id order so crossing referrals cannot deadlock
	sort.Slice(awards, func(i, j int) bool { return awards[i].userID < awards[j].userID })
	entries := make([]*mudraentity.Entry, 0, len(awards))
	for _, a := range awards {
		e, err := s.rewards.AwardTx(ctx, tx, a.userID, a.activity, a.note)
		if errors.Is(err, mudra.ErrAlreadyAwarded) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("award %s: %w", a.activity, err)
		}
		entries = append(entries, e)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit referral: %w", err)
	}
	for _, e := range entries {
		mudra.RecordAward(e)
	}
	s.logger.Infow("referral processed", "referrer_id", owner.ID, "referee_id", refereeID)
	return ref, nil
}

// Stats returns the user's own code and how many people joined with it.
func (s *Service) Stats(ctx context.Context, userID int64) (*entity.Stats, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	n, err := s.repo.CountByReferrer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count referrals: %w", err)
	}
	rule, _ := mudra.RuleFor(mudra.ReferralReferrer)
	st := &entity.Stats{Code: u.ReferralCode, Referrals: n, MudrasEarned: n * rule.Amount}

	ref, err := s.repo.GetByReferee(ctx, userID)
	switch {
	case err == nil:
		st.ReferredBy = &ref.ReferrerID
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("lookup referee: %w", err)
	}
	return st, nil
}

func firstName(name string) string {
	if f := strings.Fields(name); len(f) > 0 {
		return f[0]
	}
	return ""
}
