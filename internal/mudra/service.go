package mudra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-puja/internal/mudra/entity"
	"github.com/ovaphlow/pitchfork/service-puja/internal/mudra/repo"
	"github.com/ovaphlow/pitchfork/service-puja/pkg/metrics"
	"github.com/ovaphlow/pitchfork/service-puja/pkg/utilities"
)

var (
	ErrUnknownActivity = errors.New("unknown activity")
	ErrAlreadyAwarded  = errors.New("already awarded")
)

// Summary is the balance view shown on the rewards screen.
type Summary struct {
	UserID  int64                  `json:"user_id"`
	Balance int64                  `json:"balance"`
	Totals  []entity.ActivityTotal `json:"totals"`
}

// Service awards and reads mudras.
type Service struct {
	repo  *repo.LedgerRepo
	now   func() time.Time
	newID func() string
}

func NewService(db *sqlx.DB) *Service {
	return &Service{repo: repo.NewLedgerRepo(db), now: time.Now, newID: utilities.NewSnowflakeID}
}

// Repo exposes the ledger repository for table setup.
func (s *Service) Repo() *repo.LedgerRepo { return s.repo }

// Award appends the fixed amount for activity to the user's ledger.
// Capped activities that already paid out in their window return ErrAlreadyAwarded.
func (s *Service) Award(ctx context.Context, userID int64, activity Activity, note string) (*entity.Entry, error) {
	e, check, err := s.entry(userID, activity, note)
	if err != nil {
		return nil, err
	}
	written, err := s.repo.Append(ctx, e, check)
	if err != nil {
		return nil, fmt.Errorf("append ledger entry: %w", err)
	}
	if !written {
		return nil, ErrAlreadyAwarded
	}
	RecordAward(e)
	return e, nil
}

// AwardTx is Award inside the caller's transaction, so the entry commits or rolls
// back with the caller's own writes. Call RecordAward for each entry after commit.
func (s *Service) AwardTx(ctx context.Context, tx *sqlx.Tx, userID int64, activity Activity, note string) (*entity.Entry, error) {
	e, check, err := s.entry(userID, activity, note)
	if err != nil {
		return nil, err
	}
	written, err := s.repo.AppendTx(ctx, tx, e, check)
	if err != nil {
		return nil, fmt.Errorf("append ledger entry: %w", err)
	}
	if !written {
		return nil, ErrAlreadyAwarded
	}
	return e, nil
}

// RecordAward counts a committed ledger entry in the award metrics.
func RecordAward(e *entity.Entry) { metrics.RecordMudraAward(e.Activity, e.Amount) }

func (s *Service) entry(userID int64, activity Activity, note string) (*entity.Entry, repo.CapCheck, error) {
	rule, ok := RuleFor(activity)
	if !ok {
		return nil, repo.CapCheck{}, ErrUnknownActivity
	}
	now := s.now().UTC()
	e := &entity.Entry{
		ID:        s.newID(),
		UserID:    userID,
		Activity:  string(activity),
		Amount:    rule.Amount,
		Note:      note,
		CreatedAt: now,
	}
	var check repo.CapCheck
	switch rule.Cap {
	case CapDaily:
		check = repo.CapCheck{Enabled: true, Since: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)}
	case CapOnce:
		check = repo.CapCheck{Enabled: true}
	}
	return e, check, nil
}

// History lists the user's ledger entries, newest first.
func (s *Service) History(ctx context.Context, userID int64, limit, offset int) ([]*entity.Entry, error) {
	return s.repo.History(ctx, userID, limit, offset)
}

// Balance recomputes the user's balance from the ledger.
func (s *Service) Balance(ctx context.Context, userID int64) (int64, error) {
	return s.repo.Balance(ctx, userID)
}

// Summary returns the balance and per-activity totals.
func (s *Service) Summary(ctx context.Context, userID int64) (*Summary, error) {
	totals, err := s.repo.Totals(ctx, userID)
	if err != nil {
		return nil, err
	}
	var bal int64
	for _, t := range totals {
		bal += t.Total
	}
	return &Summary{UserID: userID, Balance: bal, Totals: totals}, nil
}
