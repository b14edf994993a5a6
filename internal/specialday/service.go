package specialday

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-puja/internal/specialday/entity"
	"github.com/ovaphlow/pitchfork/service-puja/internal/specialday/repo"
	subentity "github.com/ovaphlow/pitchfork/service-puja/internal/subscriber/entity"
	"github.com/ovaphlow/pitchfork/service-puja/pkg/metrics"
)

var ErrInvalidInput = errors.New("invalid input")

// Audience lists users who want reminders; satisfied by *subscriber.Service.
type Audience interface {
	ListEnabled(ctx context.Context) ([]subentity.Subscriber, error)
}

// Notifier delivers today's pujas to one subscriber.
type Notifier interface {
	Notify(ctx context.Context, sub subentity.Subscriber, pujas []entity.UpcomingPuja) error
}

// LogNotifier only logs; push delivery lives in the mobile backend.
type LogNotifier struct {
	Logger *zap.SugaredLogger
}

func (n LogNotifier) Notify(_ context.Context, sub subentity.Subscriber, pujas []entity.UpcomingPuja) error {
	names := make([]string, len(pujas))
	for i, p := range pujas {
		names[i] = p.Name
	}
	n.Logger.Infow("special day reminder", "user_id", sub.UserID, "channel", sub.Channel, "pujas", names)
	return nil
}

type Service struct {
	repo     *repo.PujaRepo
	audience Audience
	notifier Notifier
	logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewService(db *sqlx.DB, audience Audience, notifier Notifier, logger *zap.SugaredLogger) *Service {
	return &Service{repo: repo.NewPujaRepo(db), audience: audience, notifier: notifier, logger: logger, now: time.Now}
}

// Repo exposes the puja repository for table setup and seeding.
func (s *Service) Repo() *repo.PujaRepo { return s.repo }

func (s *Service) List(ctx context.Context) ([]entity.SpecialPuja, error) {
	return s.repo.List(ctx)
}

// Create validates and stores a new special puja. Fixed pujas need a date.
func (s *Service) Create(ctx context.Context, p *entity.SpecialPuja) error {
	p.Name = strings.TrimSpace(p.Name)
	p.DateMapping = strings.ToLower(strings.TrimSpace(p.DateMapping))
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case p.DateMapping != entity.MappingFixed && p.DateMapping != entity.MappingRecurring:
		return fmt.Errorf("%w: date_mapping must be fixed or recurring", ErrInvalidInput)
	case p.DateMapping == entity.MappingFixed && (p.NextDate == nil || p.NextDate.IsZero()):
		return fmt.Errorf("%w: fixed pujas need next_date", ErrInvalidInput)
	}
	if p.NextDate != nil {
		d := Day(*p.NextDate)
		p.NextDate = &d
	}
	return s.repo.Create(ctx, p)
}

// Upcoming lists fixed pujas within the next days days.
func (s *Service) Upcoming(ctx context.Context, days int) ([]entity.UpcomingPuja, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return Upcoming(list, s.now(), days), nil
}

// Today lists pujas falling on the current UTC day.
func (s *Service) Today(ctx context.Context) ([]entity.UpcomingPuja, error) {
	return s.Upcoming(ctx, 0)
}

// RunReminders notifies every enabled subscriber about today's pujas and
// returns how many were notified. Nothing is sent on a day without pujas.
func (s *Service) RunReminders(ctx context.Context) (int, error) {
	today, err := s.Today(ctx)
	if err != nil {
		metrics.RecordReminderRun(false)
		return 0, fmt.Errorf("load today's pujas: %w", err)
	}
	if len(today) == 0 {
		metrics.RecordReminderRun(true)
		return 0, nil
	}
	subs, err := s.audience.ListEnabled(ctx)
	if err != nil {
		metrics.RecordReminderRun(false)
		return 0, fmt.Errorf("list subscribers: %w", err)
	}
	sent := 0
	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			metrics.RecordReminderRun(false)
			return sent, err
		}
		if err := s.notifier.Notify(ctx, sub, today); err != nil {
			s.logger.Warnw("reminder delivery failed", "user_id", sub.UserID, "err", err)
			continue
		}
		sent++
	}
	metrics.RecordReminderRun(true)
	return sent, nil
}
