package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-puja/internal/booking/entity"
	"github.com/ovaphlow/pitchfork/service-puja/internal/booking/repo"
	"github.com/ovaphlow/pitchfork/service-puja/internal/mudra"
	mudraentity "github.com/ovaphlow/pitchfork/service-puja/internal/mudra/entity"
	"github.com/ovaphlow/pitchfork/service-puja/internal/search"
	"github.com/ovaphlow/pitchfork/service-puja/internal/user"
	"github.com/ovaphlow/pitchfork/service-puja/pkg/utilities"
)

var ErrProviderNotFound = errors.New("provider not found")

// Rewards credits the booking mudra; satisfied by *mudra.Service.
type Rewards interface {
	Award(ctx context.Context, userID int64, activity mudra.Activity, note string) (*mudraentity.Entry, error)
}

// BookingInput is the booking form.
type BookingInput struct {
	ProviderID   int64  `json:"provider_id"`
	PujaName     string `json:"puja_name"`
	ScheduledFor string `json:"scheduled_for"` // YYYY-MM-DD
	Notes        string `json:"notes"`
}

type Service struct {
	repo    *repo.BookingRepo
	rewards Rewards
	logger  *zap.SugaredLogger
	now     func() time.Time
	newID   func() string
}

func NewService(db *sqlx.DB, rewards Rewards, logger *zap.SugaredLogger) *Service {
	return &Service{
		repo:    repo.NewBookingRepo(db),
		rewards: rewards,
		logger:  logger,
		now:     time.Now,
		newID:   utilities.NewSnowflakeID,
	}
}

// Repo exposes the booking repository for table setup and seeding.
func (s *Service) Repo() *repo.BookingRepo { return s.repo }

// ListProviders returns providers offering service (any when empty) that
// match the free-text query over name, city and services.
func (s *Service) ListProviders(ctx context.Context, query, service string) ([]entity.Provider, error) {
	all, err := s.repo.ListProviders(ctx)
	if err != nil {
		return nil, err
	}
	if service = strings.TrimSpace(service); service != "" {
		kept := all[:0]
		for _, p := range all {
			if p.Offers(service) {
				kept = append(kept, p)
			}
		}
		all = kept
	}
	return search.Filter(all, query, func(p entity.Provider) []string {
		return append([]string{p.Name, p.City}, p.Services...)
	}), nil
}

// Create books a puja with a provider for a future or current date.
func (s *Service) Create(ctx context.Context, userID int64, in BookingInput) (*entity.Booking, error) {
	fields := map[string]string{}
	puja := strings.TrimSpace(in.PujaName)
	if puja == "" {
		fields["puja_name"] = "is required"
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	date, err := time.Parse(time.DateOnly, strings.TrimSpace(in.ScheduledFor))
	if err != nil {
		fields["scheduled_for"] = "must be a date in YYYY-MM-DD format"
	} else if date.Before(today) {
		fields["scheduled_for"] = "must not be in the past"
	}
	if in.ProviderID <= 0 {
		fields["provider_id"] = "is required"
	}
	if len(fields) > 0 {
		return nil, &user.ValidationError{Fields: fields}
	}

	p, err := s.repo.GetProvider(ctx, in.ProviderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProviderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get provider: %w", err)
	}

	b := &entity.Booking{
		ID:           s.newID(),
		UserID:       userID,
		ProviderID:   p.ID,
		PujaName:     puja,
		ScheduledFor: date,
		Notes:        strings.TrimSpace(in.Notes),
		Status:       entity.StatusRequested,
	}
	if err := s.repo.CreateBooking(ctx, b); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	if s.rewards != nil {
		// one paid booking per day; later bookings still go through
		if _, err := s.rewards.Award(ctx, userID, mudra.PujaBooking, b.ID); err != nil && !errors.Is(err, mudra.ErrAlreadyAwarded) {
			s.logger.Warnw("booking award failed", "user_id", userID, "booking_id", b.ID, "err", err)
		}
	}
	s.logger.Infow("puja booked", "user_id", userID, "provider_id", p.ID, "booking_id", b.ID)
	return b, nil
}

func (s *Service) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]entity.Booking, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}
