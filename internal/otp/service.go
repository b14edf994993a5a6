package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-puja/internal/oidc"
	"github.com/ovaphlow/pitchfork/service-puja/internal/otp/entity"
	"github.com/ovaphlow/pitchfork/service-puja/internal/otp/repo"
	"github.com/ovaphlow/pitchfork/service-puja/internal/user"
	userentity "github.com/ovaphlow/pitchfork/service-puja/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-puja/pkg/metrics"
	"github.com/ovaphlow/pitchfork/service-puja/pkg/utilities"
)

var (
	ErrInvalidPhone      = errors.New("invalid phone number")
	ErrInvalidPurpose    = errors.New("invalid purpose")
	ErrLocked            = errors.New("too many attempts")
	ErrResendTooSoon     = errors.New("resend too soon")
	ErrNoActiveCode      = errors.New("no active code")
	ErrCodeExpired       = errors.New("code expired")
	ErrInvalidCode       = errors.New("invalid code")
	ErrNotRegistered     = errors.New("phone not registered")
	ErrAlreadyRegistered = errors.New("phone already registered")
)

// RetryError tells the caller when the phone may try again. Lockouts map to HTTP 429.
type RetryError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("%v: retry after %s", e.Err, e.RetryAfter.Round(time.Second))
}

func (e *RetryError) Unwrap() error { return e.Err }

// InvalidCodeError reports a wrong code and how many tries remain.
type InvalidCodeError struct {
	Remaining int
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("invalid code, %d attempts left", e.Remaining)
}

func (e *InvalidCodeError) Unwrap() error { return ErrInvalidCode }

// Users is the part of the user service OTP login needs.
type Users interface {
	GetByPhone(ctx context.Context, phone string) (*userentity.User, error)
	RecordLogin(ctx context.Context, id int64)
}

// Sessions issues tokens and signup tickets; satisfied by *oidc.OIDCService.
type Sessions interface {
	IssueTokens(ctx context.Context, userID int64, clientID string) (*oidc.TokenPair, error)
	IssueSignupTicket(phone string) (string, error)
}

// SendResult is returned after a code was dispatched.
type SendResult struct {
	RequestID         string `json:"request_id"`
	ExpiresInSeconds  int64  `json:"expires_in_seconds"`
	ResendAfterSecond int64  `json:"resend_after_seconds"`
	SendsRemaining    int    `json:"sends_remaining"`
	DevCode           string `json:"dev_code,omitempty"`
}

// VerifyResult carries tokens for a login, or a signup ticket for a new number.
type VerifyResult struct {
	Verified     bool            `json:"verified"`
	Purpose      entity.Purpose  `json:"purpose"`
	Phone        string          `json:"phone"`
	UserID       int64           `json:"user_id,omitempty"`
	Tokens       *oidc.TokenPair `json:"tokens,omitempty"`
	SignupTicket string          `json:"signup_ticket,omitempty"`
}

// Service implements OTP send and verify with resend cooldown and lockout.
type Service struct {
	repo     *repo.OTPRepo
	cfg      Config
	sender   Sender
	users    Users
	sessions Sessions
	logger   *zap.SugaredLogger
	now      func() time.Time
	hashCost int
}

func NewService(db *sqlx.DB, cfg Config, sender Sender, users Users, sessions Sessions, logger *zap.SugaredLogger) *Service {
	if cfg.Length < 4 {
		cfg.Length = 6
	}
	return &Service{
		repo:     repo.NewOTPRepo(db),
		cfg:      cfg,
		sender:   sender,
		users:    users,
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
		hashCost: bcrypt.DefaultCost,
	}
}

// Repo exposes the OTP repository for table setup.
func (s *Service) Repo() *repo.OTPRepo { return s.repo }

func parsePurpose(p string) (entity.Purpose, error) {
	switch entity.Purpose(strings.ToLower(strings.TrimSpace(p))) {
	case "", entity.PurposeLogin:
		return entity.PurposeLogin, nil
	case entity.PurposeSignup:
		return entity.PurposeSignup, nil
	}
	return "", ErrInvalidPurpose
}

func (s *Service) lockedFor(st *entity.State, now time.Time) time.Duration {
	if st.LockedUntil != nil && st.LockedUntil.After(now) {
		return st.LockedUntil.Sub(now)
	}
	return 0
}

// lock starts the fixed lockout on st and returns the error to report.
func (s *Service) lock(st *entity.State, now time.Time) error {
	until := now.Add(s.cfg.Lockout)
	st.LockedUntil = &until
	st.CodeHash = ""
	st.VerifyAttempts = 0
	return &RetryError{Err: ErrLocked, RetryAfter: s.cfg.Lockout}
}

// Send generates and delivers a fresh code for phone.
func (s *Service) Send(ctx context.Context, rawPhone, rawPurpose string) (*SendResult, error) {
	phone, ok := user.NormalizePhone(rawPhone)
	if !ok {
		return nil, ErrInvalidPhone
	}
	purpose, err := parsePurpose(rawPurpose)
	if err != nil {
		return nil, err
	}
	if err := s.checkRegistration(ctx, phone, purpose); err != nil {
		return nil, err
	}

	now := s.now()
	var code string
	res := &SendResult{
		ExpiresInSeconds:  int64(s.cfg.TTL.Seconds()),
		ResendAfterSecond: int64(s.cfg.ResendCooldown.Seconds()),
	}
	err = s.repo.Mutate(ctx, phone, func(st *entity.State) (bool, error) {
		if d := s.lockedFor(st, now); d > 0 {
			metrics.RecordOTP("send", "locked")
			return false, &RetryError{Err: ErrLocked, RetryAfter: d}
		}
		if st.WindowStartedAt == nil || now.Sub(*st.WindowStartedAt) >= s.cfg.Lockout {
			st.SendCount = 0
			st.WindowStartedAt = &now
		}
		if st.LastSentAt != nil {
			if wait := s.cfg.ResendCooldown - now.Sub(*st.LastSentAt); wait > 0 {
				metrics.RecordOTP("send", "cooldown")
				return false, &RetryError{Err: ErrResendTooSoon, RetryAfter: wait}
			}
		}
		if st.SendCount >= s.cfg.MaxSends {
			metrics.RecordOTP("send", "locked")
			s.logger.Infow("otp sends exhausted, locking phone", "phone", MaskPhone(phone))
			return true, s.lock(st, now)
		}

		var err error
		if code, err = generateCode(s.cfg.Length); err != nil {
			return false, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(code), s.hashCost)
		if err != nil {
			return false, err
		}
		expires := now.Add(s.cfg.TTL)
		st.Purpose = string(purpose)
		st.RequestID = utilities.NewKSUID()
		st.CodeHash = string(hash)
		st.ExpiresAt = &expires
		st.LastSentAt = &now
		st.SendCount++
		st.VerifyAttempts = 0
		st.LockedUntil = nil
		res.RequestID = st.RequestID
		res.SendsRemaining = s.cfg.MaxSends - st.SendCount
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("%s is your verification code. It expires in %d minutes.", code, int(s.cfg.TTL.Minutes()))
	if err := s.sender.Send(ctx, phone, msg); err != nil {
		metrics.RecordOTP("send", "delivery_failed")
		return nil, fmt.Errorf("deliver otp: %w", err)
	}
	metrics.RecordOTP("send", "ok")

	if s.cfg.DevEcho {
		res.DevCode = code
	}
	return res, nil
}

func (s *Service) checkRegistration(ctx context.Context, phone string, purpose entity.Purpose) error {
	_, err := s.users.GetByPhone(ctx, phone)
	switch {
	case err == nil && purpose == entity.PurposeSignup:
		return ErrAlreadyRegistered
	case errors.Is(err, user.ErrUserNotFound) && purpose == entity.PurposeLogin:
		return ErrNotRegistered
	case err != nil && !errors.Is(err, user.ErrUserNotFound):
		return err
	}
	return nil
}

// Verify checks code for phone and completes the login or signup step.
func (s *Service) Verify(ctx context.Context, rawPhone, code, clientID string) (*VerifyResult, error) {
	phone, ok := user.NormalizePhone(rawPhone)
	if !ok {
		return nil, ErrInvalidPhone
	}
	now := s.now()
	var purpose entity.Purpose
	err := s.repo.Mutate(ctx, phone, func(st *entity.State) (bool, error) {
		if d := s.lockedFor(st, now); d > 0 {
			metrics.RecordOTP("verify", "locked")
			return false, &RetryError{Err: ErrLocked, RetryAfter: d}
		}
		if st.CodeHash == "" {
			return false, ErrNoActiveCode
		}
		if st.ExpiresAt == nil || !now.Before(*st.ExpiresAt) {
			metrics.RecordOTP("verify", "expired")
			return false, ErrCodeExpired
		}
		if bcrypt.CompareHashAndPassword([]byte(st.CodeHash), []byte(strings.TrimSpace(code))) != nil {
			st.VerifyAttempts++
			if st.VerifyAttempts >= s.cfg.MaxVerifyAttempts {
				metrics.RecordOTP("verify", "locked")
				s.logger.Infow("otp verify attempts exhausted, locking phone", "phone", MaskPhone(phone))
				return true, s.lock(st, now)
			}
			metrics.RecordOTP("verify", "invalid")
			return true, &InvalidCodeError{Remaining: s.cfg.MaxVerifyAttempts - st.VerifyAttempts}
		}

		// consume the code; a verified phone starts a fresh send window
		purpose = entity.Purpose(st.Purpose)
		st.CodeHash = ""
		st.ExpiresAt = nil
		st.VerifyAttempts = 0
		st.SendCount = 0
		st.WindowStartedAt = nil
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordOTP("verify", "ok")

	res := &VerifyResult{Verified: true, Purpose: purpose, Phone: phone}
	if res.Purpose == entity.PurposeSignup {
		ticket, err := s.sessions.IssueSignupTicket(phone)
		if err != nil {
			return nil, err
		}
		res.SignupTicket = ticket
		return res, nil
	}

	u, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, err
	}
	tokens, err := s.sessions.IssueTokens(ctx, u.ID, clientID)
	if err != nil {
		return nil, err
	}
	s.users.RecordLogin(ctx, u.ID)
	res.UserID = u.ID
	res.Tokens = tokens
	return res, nil
}

// generateCode returns n uniformly random decimal digits.
func generateCode(n int) (string, error) {
	var b strings.Builder
	ten := big.NewInt(10)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}
