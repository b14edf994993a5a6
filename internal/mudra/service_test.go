package mudra

import (
	"context"
	"errors"
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

	"github.com/ovaphlow/pitchfork/service-puja/internal/mudra/repo"
	"github.com/ovaphlow/pitchfork/service-puja/internal/oidc"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Service{
		repo:  repo.NewLedgerRepo(sqlx.NewDb(db, "postgres")),
		now:   func() time.Time { return fixedNow },
		newID: func() string { return "1001" },
	}, mock
}

func TestAwardDailyChecksSinceMidnight(t *testing.T) {
	svc, mock := newTestService(t)
	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(\$1\)`).WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COUNT\(1\) FROM mudra_ledger WHERE user_id=\$1 AND activity=\$2 AND created_at >= \$3`).
		WithArgs(int64(5), "daily_login", time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO mudra_ledger`).
		WithArgs("1001", int64(5), "daily_login", int64(5), "", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	e, err := svc.Award(context.Background(), 5, DailyLogin, "")
	require.NoError(t, err)
	assert.Equal(t, int64(5), e.Amount)
	assert.Equal(t, "daily_login", e.Activity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAwardOnceAlreadyAwarded(t *testing.T) {
	svc, mock := newTestService(t)
	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COUNT\(1\) FROM mudra_ledger WHERE user_id=\$1 AND activity=\$2$`).
		WithArgs(int64(5), "profile_complete").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := svc.Award(context.Background(), 5, ProfileComplete, "")
	assert.ErrorIs(t, err, ErrAlreadyAwarded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAwardUncappedSkipsCount(t *testing.T) {
	svc, mock := newTestService(t)
	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO mudra_ledger`).
		WithArgs("1001", int64(5), "referral_referrer", int64(100), "referred user 9", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := svc.Award(context.Background(), 5, ReferralReferrer, "referred user 9")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPujaBookingPaysOncePerDay(t *testing.T) {
	svc, mock := newTestService(t)
	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COUNT\(1\) FROM mudra_ledger WHERE user_id=\$1 AND activity=\$2 AND created_at >= \$3`).
		WithArgs(int64(5), "puja_booking", time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := svc.Award(context.Background(), 5, PujaBooking, "booking 43")
	assert.ErrorIs(t, err, ErrAlreadyAwarded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAwardUnknownActivity(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Award(context.Background(), 5, Activity("meditation"), "")
	assert.ErrorIs(t, err, ErrUnknownActivity)
}

func TestAwardInsertErrorRollsBack(t *testing.T) {
	svc, mock := newTestService(t)
	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO mudra_ledger`).WillReturnError(errors.New("db down"))
	mock.ExpectRollback()

	_, err := svc.Award(context.Background(), 5, ReferralReferrer, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSummarySumsTotals(t *testing.T) {
	svc, mock := newTestService(t)
	mock.ExpectQuery(`SELECT activity, COALESCE\(SUM\(amount\),0\) AS total, COUNT\(1\) AS count FROM mudra_ledger`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"activity", "total", "count"}).
			AddRow("daily_login", 15, 3).
			AddRow("signup_bonus", 50, 1))

	sum, err := svc.Summary(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(65), sum.Balance)
	assert.Len(t, sum.Totals, 2)
}

func TestRulesCopy(t *testing.T) {
	rs := Rules()
	rs[0].Amount = 9999
	r, ok := RuleFor(rs[0].Activity)
	require.True(t, ok)
	assert.NotEqual(t, int64(9999), r.Amount)
}

func TestClaimRejectsServerOnlyActivity(t *testing.T) {
	svc, _ := newTestService(t)
	h := NewHandler(svc, zap.NewNop().Sugar())
	req := httptest.NewRequest(http.MethodPost, "/me/mudras", strings.NewReader(`{"activity":"referral_referrer"}`))
	req = req.WithContext(oidc.WithUserID(req.Context(), 5))
	rec := httptest.NewRecorder()
	h.Claim(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClaimConflictWhenAlreadyClaimed(t *testing.T) {
	svc, mock := newTestService(t)
	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COUNT\(1\) FROM mudra_ledger`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	h := NewHandler(svc, zap.NewNop().Sugar())
	req := httptest.NewRequest(http.MethodPost, "/me/mudras", strings.NewReader(`{"activity":"darshan_view"}`))
	req = req.WithContext(oidc.WithUserID(req.Context(), 5))
	rec := httptest.NewRecorder()
	h.Claim(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAwardTxLeavesCommitToCaller(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	xdb := sqlx.NewDb(db, "postgres")
	svc := &Service{repo: repo.NewLedgerRepo(xdb), now: func() time.Time { return fixedNow }, newID: func() string { return "2002" }}

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COUNT\(1\) FROM mudra_ledger`).WithArgs(int64(9), "referral_referee").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO mudra_ledger`).
		WithArgs("2002", int64(9), "referral_referee", int64(50), "joined", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	tx, err := xdb.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	e, err := svc.AwardTx(context.Background(), tx, 9, ReferralReferee, "joined")
	require.NoError(t, err)
	assert.Equal(t, int64(50), e.Amount)
	// the caller decides; rolling back drops the entry with the rest of its writes
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}
