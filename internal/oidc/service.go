package oidc

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"

	repo "github.com/ovaphlow/pitchfork/service-puja/internal/oidc/repo"
	"github.com/ovaphlow/pitchfork/service-puja/pkg/utilities"
)

const (
	purposeAccess = "access"
	purposeSignup = "signup"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrInvalidRefresh = errors.New("invalid refresh token")
)

type Config struct {
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// SignupTicketTTL bounds the gap between OTP verification and the signup form submit.
	SignupTicketTTL time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		Issuer:          utilities.EnvOr("TOKEN_ISSUER", "http://localhost:8431/puja-api"),
		AccessTTL:       utilities.EnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTTL:      utilities.EnvDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),
		SignupTicketTTL: utilities.EnvDuration("SIGNUP_TICKET_TTL", 15*time.Minute),
	}
}

// claims carried by both access tokens and signup tickets; Purpose tells them apart.
type claims struct {
	Purpose string `json:"purpose"`
	Phone   string `json:"phone,omitempty"`
	jwt.RegisteredClaims
}

// OIDCService manages the signing key and token issuance.
type OIDCService struct {
	key         *rsa.PrivateKey
	kid         string
	cfg         Config
	refreshRepo *repo.RefreshRepo
}

func NewOIDCService(db *sqlx.DB, cfg Config) (*OIDCService, error) {
	k, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	return newWithKey(db, cfg, k), nil
}

func newWithKey(db *sqlx.DB, cfg Config, k *rsa.PrivateKey) *OIDCService {
	// kid is the base64 of the first 8 bytes of SHA256(PKIX public key)
	der, _ := x509.MarshalPKIXPublicKey(&k.PublicKey)
	h := sha256.Sum256(der)
	kid := base64.RawURLEncoding.EncodeToString(h[:8])
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}
	if cfg.SignupTicketTTL <= 0 {
		cfg.SignupTicketTTL = 15 * time.Minute
	}
	return &OIDCService{key: k, kid: kid, cfg: cfg, refreshRepo: repo.NewRefreshRepo(db)}
}

// Repo exposes the refresh repository for table setup and cleanup.
func (s *OIDCService) Repo() *repo.RefreshRepo { return s.refreshRepo }

func (s *OIDCService) Issuer() string { return s.cfg.Issuer }

// JWKS returns a minimal JWKS containing the public key.
func (s *OIDCService) JWKS() map[string]any {
	pub := s.key.PublicKey
	n := base64.RawURLEncoding.EncodeToString(pub.N.Bytes())
	e := base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes())
	jwk := map[string]any{
		"kty": "RSA",
		"use": "sig",
		"alg": "RS256",
		"kid": s.kid,
		"n":   n,
		"e":   e,
	}
	return map[string]any{"keys": []any{jwk}}
}

// PublicKey returns the RSA public key for verification.
func (s *OIDCService) PublicKey() *rsa.PublicKey {
	return &s.key.PublicKey
}

func (s *OIDCService) sign(c claims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, c)
	tok.Header["kid"] = s.kid
	return tok.SignedString(s.key)
}

// IssueTokens creates an access token and a persisted opaque refresh token for the user.
func (s *OIDCService) IssueTokens(ctx context.Context, userID int64, clientID string) (*TokenPair, error) {
	now := time.Now()
	access, err := s.sign(claims{
		Purpose: purposeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   strconv.FormatInt(userID, 10),
			Audience:  jwt.ClaimStrings{clientID},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	rtBytes := make([]byte, 32)
	if _, err := rand.Read(rtBytes); err != nil {
		return nil, err
	}
	refresh := base64.RawURLEncoding.EncodeToString(rtBytes)
	if _, err := s.refreshRepo.Save(ctx, refresh, userID, clientID, now.Add(s.cfg.RefreshTTL)); err != nil {
		return nil, fmt.Errorf("save refresh session: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.cfg.AccessTTL.Seconds()),
	}, nil
}

func (s *OIDCService) parse(token, purpose string) (*claims, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return s.PublicKey(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}), jwt.WithIssuer(s.cfg.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Purpose != purpose {
		return nil, ErrInvalidToken
	}
	return &c, nil
}

// ParseAccessToken verifies an access token and returns its user id.
func (s *OIDCService) ParseAccessToken(token string) (int64, error) {
	c, err := s.parse(token, purposeAccess)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// IssueSignupTicket proves that phone passed OTP verification for signup.
func (s *OIDCService) IssueSignupTicket(phone string) (string, error) {
	now := time.Now()
	return s.sign(claims{
		Purpose: purposeSignup,
		Phone:   phone,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   phone,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.SignupTicketTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
}

// VerifySignupTicket returns the verified phone carried by a signup ticket.
func (s *OIDCService) VerifySignupTicket(ticket string) (string, error) {
	c, err := s.parse(ticket, purposeSignup)
	if err != nil {
		return "", err
	}
	if c.Phone == "" {
		return "", ErrInvalidToken
	}
	return c.Phone, nil
}

// ValidateRefreshToken checks an opaque refresh token and returns the session if valid.
func (s *OIDCService) ValidateRefreshToken(ctx context.Context, token string) (*RefreshSession, error) {
	id, userID, clientID, expiresAt, err := s.refreshRepo.Get(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}
	rs := RefreshSession{ID: id, UserID: userID, ClientID: clientID, ExpiresAt: expiresAt}
	if rs.ExpiresAt.Before(time.Now()) {
		return nil, ErrInvalidRefresh
	}
	return &rs, nil
}

// Rotate spends a refresh token and issues a fresh pair for its owner.
// Of two concurrent rotations of the same token only one gets a pair.
func (s *OIDCService) Rotate(ctx context.Context, token string) (*TokenPair, error) {
	userID, clientID, err := s.refreshRepo.Consume(ctx, token, time.Now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}
	return s.IssueTokens(ctx, userID, clientID)
}

// RevokeRefreshToken removes a refresh token from store.
func (s *OIDCService) RevokeRefreshToken(ctx context.Context, token string) error {
	return s.refreshRepo.Delete(ctx, token)
}

// RevokeAll removes every refresh session of the user.
func (s *OIDCService) RevokeAll(ctx context.Context, userID int64) error {
	_, err := s.refreshRepo.DeleteByUser(ctx, userID)
	return err
}
