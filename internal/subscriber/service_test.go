package subscriber

import (
	"context"
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

	"github.com/ovaphlow/pitchfork/service-puja/internal/mudra"
	mudraentity "github.com/ovaphlow/pitchfork/service-puja/internal/mudra/entity"
	"github.com/ovaphlow/pitchfork/service-puja/internal/oidc"
	dayentity "github.com/ovaphlow/pitchfork/service-puja/internal/specialday/entity"
	"github.com/ovaphlow/pitchfork/service-puja/internal/subscriber/repo"
)

var subCols = []string{"user_id", "channel", "enabled", "created_at", "updated_at"}

type fakeCalendar []dayentity.UpcomingPuja

func (f fakeCalendar) Today(context.Context) ([]dayentity.UpcomingPuja, error) { return f, nil }

type fakeRewards struct{ awarded []mudra.Activity }

func (f *fakeRewards) Award(_ context.Context, _ int64, a mudra.Activity, _ string) (*mudraentity.Entry, error) {
	f.awarded = append(f.awarded, a)
	return &mudraentity.Entry{}, nil
}

func newTestService(t *testing.T, cal Calendar, rw Rewards) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Service{
		repo:     repo.NewSubscriberRepo(sqlx.NewDb(db, "postgres")),
		calendar: cal,
		rewards:  rw,
		logger:   zap.NewNop().Sugar(),
		now:      func() time.Time { return time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC) },
	}, mock
}

func TestSubscribeDefaultsToPush(t *testing.T) {
	svc, mock := newTestService(t, fakeCalendar{}, nil)
	now := time.Now()
	mock.ExpectQuery(`INSERT INTO reminder_subscribers`).WithArgs(int64(5), "push", true).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	sub, err := svc.Subscribe(context.Background(), 5, "")
	require.NoError(t, err)
	assert.True(t, sub.Enabled)
	assert.Equal(t, "push", sub.Channel)

	_, err = svc.Subscribe(context.Background(), 5, "pigeon")
	assert.ErrorIs(t, err, ErrInvalidChannel)
}

func TestUnsubscribeKeepsChannel(t *testing.T) {
	svc, mock := newTestService(t, fakeCalendar{}, nil)
	now := time.Now()
	mock.ExpectQuery(`FROM reminder_subscribers WHERE user_id`).WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(subCols).AddRow(int64(5), "sms", true, now, now))
	mock.ExpectQuery(`INSERT INTO reminder_subscribers`).WithArgs(int64(5), "sms", false).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	sub, err := svc.Unsubscribe(context.Background(), 5)
	require.NoError(t, err)
	assert.False(t, sub.Enabled)
	assert.Equal(t, "sms", sub.Channel)
}

func TestGetWithoutRow(t *testing.T) {
	svc, mock := newTestService(t, fakeCalendar{}, nil)
	mock.ExpectQuery(`FROM reminder_subscribers`).WillReturnError(sql.ErrNoRows)

	sub, err := svc.Get(context.Background(), 8)
	require.NoError(t, err)
	assert.False(t, sub.Enabled)
}

func TestAcknowledgeTodayAwardsOnSpecialDay(t *testing.T) {
	rw := &fakeRewards{}
	cal := fakeCalendar{{SpecialPuja: dayentity.SpecialPuja{Name: "Holi"}}}
	svc, mock := newTestService(t, cal, rw)
	mock.ExpectExec(`INSERT INTO reminder_seen`).WithArgs(int64(5), "2026-03-04").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs(int64(5), "2026-03-04").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`FROM reminder_subscribers`).WillReturnError(sql.ErrNoRows)

	view, err := svc.AcknowledgeToday(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, view.Seen)
	assert.Equal(t, "2026-03-04", view.Day)
	assert.Equal(t, []mudra.Activity{mudra.SpecialDayPuja}, rw.awarded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAcknowledgeQuietDayNoAward(t *testing.T) {
	rw := &fakeRewards{}
	svc, mock := newTestService(t, fakeCalendar{}, rw)
	mock.ExpectExec(`INSERT INTO reminder_seen`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`FROM reminder_subscribers`).WillReturnError(sql.ErrNoRows)

	_, err := svc.AcknowledgeToday(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, rw.awarded)
}

func TestUpdateSubscriptionHandler(t *testing.T) {
	svc, _ := newTestService(t, fakeCalendar{}, nil)
	h := NewHandler(svc, zap.NewNop().Sugar())

	req := httptest.NewRequest(http.MethodPut, "/me/reminders/subscription", strings.NewReader(`{"channel":"sms"}`))
	req = req.WithContext(oidc.WithUserID(req.Context(), 5))
	rec := httptest.NewRecorder()
	h.UpdateSubscription(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPut, "/me/reminders/subscription", strings.NewReader(`{"enabled":true,"channel":"fax"}`))
	req = req.WithContext(oidc.WithUserID(req.Context(), 5))
	rec = httptest.NewRecorder()
	h.UpdateSubscription(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "channel must be")
}
