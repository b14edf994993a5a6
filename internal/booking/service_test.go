package booking

import (
	"context"
	"database/sql"
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

	"github.com/ovaphlow/pitchfork/service-puja/internal/booking/repo"
	"github.com/ovaphlow/pitchfork/service-puja/internal/mudra"
	mudraentity "github.com/ovaphlow/pitchfork/service-puja/internal/mudra/entity"
	"github.com/ovaphlow/pitchfork/service-puja/internal/oidc"
	"github.com/ovaphlow/pitchfork/service-puja/internal/user"
)

var providerCols = []string{"id", "name", "kind", "city", "languages", "services", "rating", "created_at"}

type fakeRewards struct {
	awarded []mudra.Activity
	err     error
}

func (f *fakeRewards) Award(_ context.Context, _ int64, a mudra.Activity, _ string) (*mudraentity.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.awarded = append(f.awarded, a)
	return &mudraentity.Entry{}, nil
}

func newTestService(t *testing.T, rw Rewards) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Service{
		repo:    repo.NewBookingRepo(sqlx.NewDb(db, "postgres")),
		rewards: rw,
		logger:  zap.NewNop().Sugar(),
		now:     func() time.Time { return time.Date(2026, 6, 10, 15, 0, 0, 0, time.UTC) },
		newID:   func() string { return "b-1" },
	}, mock
}

func providerRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(providerCols).
		AddRow(int64(1), "Pandit Ramesh Sharma", "pandit", "Varanasi", []byte(`{hindi}`), []byte(`{Rudrabhishek,"Griha Pravesh"}`), 4.8, now).
		AddRow(int64(2), "Acharya Vinod Joshi", "pandit", "Pune", []byte(`{marathi}`), []byte(`{"Ganesh Puja",Vivah}`), 4.6, now).
		AddRow(int64(3), "Pandit Suresh Mishra", "pandit", "Pune", []byte(`{hindi}`), []byte(`{Rudrabhishek}`), 4.5, now)
}

func TestListProvidersByService(t *testing.T) {
	svc, mock := newTestService(t, nil)
	mock.ExpectQuery(`FROM providers ORDER BY rating DESC`).WillReturnRows(providerRows())

	list, err := svc.ListProviders(context.Background(), "", "rudrabhishek")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(1), list[0].ID)
	assert.Equal(t, int64(3), list[1].ID)
}

func TestListProvidersByQuery(t *testing.T) {
	svc, mock := newTestService(t, nil)
	mock.ExpectQuery(`FROM providers`).WillReturnRows(providerRows())

	list, err := svc.ListProviders(context.Background(), "pune ganesh", "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Acharya Vinod Joshi", list[0].Name)
	assert.Equal(t, []string{"Ganesh Puja", "Vivah"}, []string(list[0].Services))
}

func TestCreateBookingValidation(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.Create(context.Background(), 4, BookingInput{ScheduledFor: "2026-06-09"})
	var verr *user.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "must not be in the past", verr.Fields["scheduled_for"])
	assert.Contains(t, verr.Fields, "puja_name")
	assert.Contains(t, verr.Fields, "provider_id")
}

func TestCreateBookingToday(t *testing.T) {
	rw := &fakeRewards{}
	svc, mock := newTestService(t, rw)
	mock.ExpectQuery(`FROM providers WHERE id`).WithArgs(int64(1)).WillReturnRows(providerRows())
	mock.ExpectQuery(`INSERT INTO bookings`).
		WithArgs("b-1", int64(4), int64(1), "Rudrabhishek", "2026-06-10", "", "requested").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	b, err := svc.Create(context.Background(), 4, BookingInput{ProviderID: 1, PujaName: " Rudrabhishek ", ScheduledFor: "2026-06-10"})
	require.NoError(t, err)
	assert.Equal(t, "requested", b.Status)
	assert.Equal(t, []mudra.Activity{mudra.PujaBooking}, rw.awarded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingAfterDailyAward(t *testing.T) {
	rw := &fakeRewards{err: mudra.ErrAlreadyAwarded}
	svc, mock := newTestService(t, rw)
	mock.ExpectQuery(`FROM providers WHERE id`).WithArgs(int64(1)).WillReturnRows(providerRows())
	mock.ExpectQuery(`INSERT INTO bookings`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	b, err := svc.Create(context.Background(), 4, BookingInput{ProviderID: 1, PujaName: "Rudrabhishek", ScheduledFor: "2026-06-12"})
	require.NoError(t, err)
	assert.Equal(t, "b-1", b.ID)
	assert.Empty(t, rw.awarded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingUnknownProvider(t *testing.T) {
	svc, mock := newTestService(t, nil)
	mock.ExpectQuery(`FROM providers WHERE id`).WillReturnError(sql.ErrNoRows)

	_, err := svc.Create(context.Background(), 4, BookingInput{ProviderID: 9, PujaName: "Vivah", ScheduledFor: "2026-07-01"})
	assert.ErrorIs(t, err, ErrProviderNotFound)
}

func TestCreateHandlerValidation(t *testing.T) {
	svc, _ := newTestService(t, nil)
	h := NewHandler(svc, zap.NewNop().Sugar())
	req := httptest.NewRequest(http.MethodPost, "/me/bookings", strings.NewReader(`{"provider_id":1,"puja_name":"Vivah","scheduled_for":"soon"}`))
	req = req.WithContext(oidc.WithUserID(req.Context(), 4))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid input","fields":{"scheduled_for":"must be a date in YYYY-MM-DD format"}}`, rec.Body.String())
}
