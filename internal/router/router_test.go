package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-puja/internal/i18n"
	"github.com/ovaphlow/pitchfork/service-puja/internal/search"
)

type fakeParser struct{}

func (fakeParser) ParseAccessToken(token string) (int64, error) {
	if token == "good" {
		return 1, nil
	}
	return 0, errors.New("bad token")
}

func testConfig() Config {
	return Config{Prefix: "/puja-api", CORSOrigins: []string{"https://app.example.com"}, AdminToken: "s3cret"}
}

func newTestRouter(cfg Config, ping func(context.Context) error, limiter *RateLimiter) http.Handler {
	return RegisterRoutes(zap.NewNop().Sugar(), cfg, Handlers{
		Auth:   fakeParser{},
		Search: search.NewHandler(nil),
		I18n:   i18n.NewHandler(),
		Ping:   ping,
	}, limiter)
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h := newTestRouter(testConfig(), nil, nil)
	rec := do(h, httptest.NewRequest(http.MethodGet, "/puja-api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	h = newTestRouter(testConfig(), func(context.Context) error { return errors.New("down") }, nil)
	rec = do(h, httptest.NewRequest(http.MethodGet, "/puja-api/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPublicRoutes(t *testing.T) {
	h := newTestRouter(testConfig(), nil, nil)
	rec := do(h, httptest.NewRequest(http.MethodGet, "/puja-api/i18n/hi", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, httptest.NewRequest(http.MethodGet, "/puja-api/search/suggestions?q=puja", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, httptest.NewRequest(http.MethodGet, "/puja-api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPrivateRoutesNeedToken(t *testing.T) {
	h := newTestRouter(testConfig(), nil, nil)
	rec := do(h, httptest.NewRequest(http.MethodGet, "/puja-api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"missing_token"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/puja-api/me/mudras", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec = do(h, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoutes(t *testing.T) {
	h := newTestRouter(testConfig(), nil, nil)
	rec := do(h, httptest.NewRequest(http.MethodDelete, "/puja-api/settings/abc", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodDelete, "/puja-api/users/5", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec = do(h, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "a user token is not an admin token")

	cfg := testConfig()
	cfg.AdminToken = ""
	h = newTestRouter(cfg, nil, nil)
	req = httptest.NewRequest(http.MethodPost, "/puja-api/special-pujas", nil)
	req.Header.Set("X-Admin-Token", "anything")
	rec = do(h, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(testConfig(), nil, nil)
	req := httptest.NewRequest(http.MethodOptions, "/puja-api/auth/otp/send", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := do(h, req)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/puja-api/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = do(h, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	rl := NewRateLimiter(1, 1, zap.NewNop().Sugar())
	h := newTestRouter(testConfig(), nil, rl)

	req := func() *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/puja-api/health", nil)
		r.RemoteAddr = "10.0.0.1:5000"
		return r
	}
	assert.Equal(t, http.StatusOK, do(h, req()).Code)
	rec := do(h, req())
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	other := httptest.NewRequest(http.MethodGet, "/puja-api/health", nil)
	other.RemoteAddr = "10.0.0.2:5000"
	assert.Equal(t, http.StatusOK, do(h, other).Code)
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(5, 5, zap.NewNop().Sugar())
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return base }
	rl.get("a")
	rl.now = func() time.Time { return base.Add(9 * time.Minute) }
	rl.get("b")
	require.Equal(t, 2, rl.size())

	rl.now = func() time.Time { return base.Add(15 * time.Minute) }
	rl.Cleanup()
	assert.Equal(t, 1, rl.size())
}

func TestStartCleanupRunsInBackground(t *testing.T) {
	rl := NewRateLimiter(5, 5, zap.NewNop().Sugar())
	rl.get("10.0.0.1")
	base := time.Now()
	rl.now = func() time.Time { return base.Add(time.Hour) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	returned := make(chan struct{})
	go func() {
		rl.StartCleanup(ctx, 5*time.Millisecond)
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("StartCleanup blocked the caller")
	}
	assert.Eventually(t, func() bool { return rl.size() == 0 }, time.Second, 5*time.Millisecond)
}
