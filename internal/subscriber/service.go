package subscriber

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
	dayentity "github.com/ovaphlow/pitchfork/service-puja/internal/specialday/entity"
	"github.com/ovaphlow/pitchfork/service-puja/internal/subscriber/entity"
	"github.com/ovaphlow/pitchfork/service-puja/internal/subscriber/repo"
)

var ErrInvalidChannel = errors.New("invalid channel")

// Calendar lists the pujas falling today; satisfied by *specialday.Service.
type Calendar interface {
	Today(ctx context.Context) ([]dayentity.UpcomingPuja, error)
}

// Rewards credits the special-day mudra; satisfied by *mudra.Service.
type Rewards interface {
	Award(ctx context.Context, userID int64, activity mudra.Activity, note string) (*mudraentity.Entry, error)
}

// TodayView is the reminder banner state for one user.
type TodayView struct {
	Day        string                   `json:"day"`
	Pujas      []dayentity.UpcomingPuja `json:"pujas"`
	Seen       bool                     `json:"seen"`
	Subscribed bool                     `json:"subscribed"`
}

type Service struct {
	repo     *repo.SubscriberRepo
	calendar Calendar
	rewards  Rewards
	logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewService(db *sqlx.DB, calendar Calendar, rewards Rewards, logger *zap.SugaredLogger) *Service {
	return &Service{repo: repo.NewSubscriberRepo(db), calendar: calendar, rewards: rewards, logger: logger, now: time.Now}
}

// Repo exposes the subscriber repository for table setup.
func (s *Service) Repo() *repo.SubscriberRepo { return s.repo }

// SetCalendar wires the special-day calendar after both services exist.
func (s *Service) SetCalendar(c Calendar) { s.calendar = c }

func parseChannel(raw string) (string, error) {
	switch c := strings.ToLower(strings.TrimSpace(raw)); c {
	case "":
		return entity.ChannelPush, nil
	case entity.ChannelPush, entity.ChannelSMS, entity.ChannelWhatsApp:
		return c, nil
	}
	return "", ErrInvalidChannel
}

// Subscribe enables reminders for userID on channel (push by default).
func (s *Service) Subscribe(ctx context.Context, userID int64, channel string) (*entity.Subscriber, error) {
	c, err := parseChannel(channel)
	if err != nil {
		return nil, err
	}
	sub := &entity.Subscriber{UserID: userID, Channel: c, Enabled: true}
	if err := s.repo.Upsert(ctx, sub); err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	return sub, nil
}

// Unsubscribe disables reminders but keeps the chosen channel.
func (s *Service) Unsubscribe(ctx context.Context, userID int64) (*entity.Subscriber, error) {
	sub, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	sub.Enabled = false
	if err := s.repo.Upsert(ctx, sub); err != nil {
		return nil, fmt.Errorf("unsubscribe: %w", err)
	}
	return sub, nil
}

// Get returns the subscription, or a disabled push subscription when none exists.
func (s *Service) Get(ctx context.Context, userID int64) (*entity.Subscriber, error) {
	sub, err := s.repo.Get(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return &entity.Subscriber{UserID: userID, Channel: entity.ChannelPush}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

func (s *Service) ListEnabled(ctx context.Context) ([]entity.Subscriber, error) {
	return s.repo.ListEnabled(ctx)
}

func (s *Service) MarkSeen(ctx context.Context, userID int64, day time.Time) error {
	return s.repo.MarkSeen(ctx, userID, day.UTC())
}

func (s *Service) HasSeen(ctx context.Context, userID int64, day time.Time) (bool, error) {
	return s.repo.HasSeen(ctx, userID, day.UTC())
}

// Today builds the reminder banner for userID.
func (s *Service) Today(ctx context.Context, userID int64) (*TodayView, error) {
	now := s.now().UTC()
	pujas, err := s.calendar.Today(ctx)
	if err != nil {
		return nil, fmt.Errorf("today's pujas: %w", err)
	}
	seen, err := s.HasSeen(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("seen flag: %w", err)
	}
	sub, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &TodayView{Day: now.Format(time.DateOnly), Pujas: pujas, Seen: seen, Subscribed: sub.Enabled}, nil
}

// AcknowledgeToday marks today's reminder seen. On a special day the user
// also earns the special_day_puja reward, at most once per day.
func (s *Service) AcknowledgeToday(ctx context.Context, userID int64) (*TodayView, error) {
	now := s.now().UTC()
	if err := s.MarkSeen(ctx, userID, now); err != nil {
		return nil, fmt.Errorf("mark seen: %w", err)
	}
	view, err := s.Today(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(view.Pujas) > 0 && s.rewards != nil {
		if _, err := s.rewards.Award(ctx, userID, mudra.SpecialDayPuja, view.Pujas[0].Name); err != nil &&
			!errors.Is(err, mudra.ErrAlreadyAwarded) {
			s.logger.Warnw("special day award failed", "user_id", userID, "err", err)
		}
	}
	return view, nil
}
