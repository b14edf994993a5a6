package oidc

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	repo "github.com/ovaphlow/pitchfork/service-puja/internal/oidc/repo"
)

var testKey = func() *rsa.PrivateKey {
	k, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic(err)
	}
	return k
}()

func newTestService(t *testing.T) (*OIDCService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	cfg := Config{Issuer: "https://puja.test", AccessTTL: time.Minute, RefreshTTL: time.Hour}
	return newWithKey(sqlx.NewDb(db, "postgres"), cfg, testKey), mock
}

func TestIssueAndParseAccessToken(t *testing.T) {
	svc, mock := newTestService(t)
	mock.ExpectQuery(`INSERT INTO refresh_sessions`).
		WithArgs(sqlmock.AnyArg(), int64(7), "android", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	pair, err := svc.IssueTokens(context.Background(), 7, "android")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, int64(60), pair.ExpiresIn)
	assert.NotEmpty(t, pair.RefreshToken)

	id, err := svc.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSignupTicketIsNotAnAccessToken(t *testing.T) {
	svc, _ := newTestService(t)
	ticket, err := svc.IssueSignupTicket("9876543210")
	require.NoError(t, err)

	phone, err := svc.VerifySignupTicket(ticket)
	require.NoError(t, err)
	assert.Equal(t, "9876543210", phone)

	_, err = svc.ParseAccessToken(ticket)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessTokenRejectsForeignIssuer(t *testing.T) {
	svc, _ := newTestService(t)
	other := newWithKey(svc.refreshRepo.DB(), Config{Issuer: "https://evil.test"}, testKey)
	ticket, err := other.IssueSignupTicket("9876543210")
	require.NoError(t, err)
	_, err = svc.VerifySignupTicket(ticket)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRotate(t *testing.T) {
	svc, mock := newTestService(t)
	hash := repo.HashToken("old-token")

	mock.ExpectQuery(`DELETE FROM refresh_sessions WHERE token_hash = \$1 AND expires_at > \$2 RETURNING user_id, client_id`).
		WithArgs(hash, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "client_id"}).AddRow(int64(9), "ios"))
	mock.ExpectQuery(`INSERT INTO refresh_sessions`).
		WithArgs(sqlmock.AnyArg(), int64(9), "ios", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(4)))

	pair, err := svc.Rotate(context.Background(), "old-token")
	require.NoError(t, err)
	assert.NotEqual(t, "old-token", pair.RefreshToken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRotateSpentTokenIssuesNothing(t *testing.T) {
	svc, mock := newTestService(t)
	hash := repo.HashToken("old-token")

	// first rotation wins
	mock.ExpectQuery(`DELETE FROM refresh_sessions WHERE token_hash`).
		WithArgs(hash, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "client_id"}).AddRow(int64(9), "ios"))
	mock.ExpectQuery(`INSERT INTO refresh_sessions`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(4)))
	// second rotation finds nothing left to delete
	mock.ExpectQuery(`DELETE FROM refresh_sessions WHERE token_hash`).
		WithArgs(hash, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "client_id"}))

	_, err := svc.Rotate(context.Background(), "old-token")
	require.NoError(t, err)
	pair, err := svc.Rotate(context.Background(), "old-token")
	assert.ErrorIs(t, err, ErrInvalidRefresh)
	assert.Nil(t, pair)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRotateExpiredOrUnknown(t *testing.T) {
	svc, mock := newTestService(t)
	mock.ExpectQuery(`DELETE FROM refresh_sessions WHERE token_hash`).
		WillReturnError(sql.ErrNoRows)

	_, err := svc.Rotate(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrInvalidRefresh)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateRefreshTokenExpired(t *testing.T) {
	svc, mock := newTestService(t)
	mock.ExpectQuery(`SELECT id, user_id, client_id, expires_at FROM refresh_sessions`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "client_id", "expires_at"}).
			AddRow(int64(3), int64(9), "ios", time.Now().Add(-time.Minute)))

	_, err := svc.ValidateRefreshToken(context.Background(), "old-token")
	assert.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestJWKS(t *testing.T) {
	svc, _ := newTestService(t)
	keys := svc.JWKS()["keys"].([]any)
	require.Len(t, keys, 1)
	jwk := keys[0].(map[string]any)
	assert.Equal(t, "RS256", jwk["alg"])
	assert.Equal(t, "AQAB", jwk["e"])
	assert.Equal(t, svc.kid, jwk["kid"])
}

func TestRequireAuth(t *testing.T) {
	svc, mock := newTestService(t)
	mock.ExpectQuery(`INSERT INTO refresh_sessions`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	pair, err := svc.IssueTokens(context.Background(), 11, "")
	require.NoError(t, err)

	var got int64
	h := RequireAuth(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = UserIDFrom(r.Context())
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(11), got)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshHandlerInvalidGrant(t *testing.T) {
	svc, mock := newTestService(t)
	mock.ExpectQuery(`DELETE FROM refresh_sessions WHERE token_hash`).
		WillReturnError(sql.ErrNoRows)
	h := NewHandler(svc, zap.NewNop().Sugar())

	rec := httptest.NewRecorder()
	h.Refresh(rec, httptest.NewRequest(http.MethodPost, "/auth/token/refresh", strings.NewReader(`{"refresh_token":"x"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid_grant"}`, rec.Body.String())
}

func TestLogoutAlwaysOK(t *testing.T) {
	svc, mock := newTestService(t)
	mock.ExpectExec(`DELETE FROM refresh_sessions WHERE token_hash`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	h := NewHandler(svc, zap.NewNop().Sugar())

	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", strings.NewReader(`{"refresh_token":"unknown"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
