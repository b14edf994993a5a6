package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentHandlerCountsByPattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /things/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := InstrumentHandler(mux)

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "GET /things/{id}", "418"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things/42", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "GET /things/{id}", "418"))
	assert.Equal(t, before+1, after)
}

func TestRecordMudraAwardIgnoresNonPositive(t *testing.T) {
	before := testutil.ToFloat64(mudrasAwarded.WithLabelValues("darshan_view"))
	RecordMudraAward("darshan_view", 0)
	RecordMudraAward("darshan_view", 2)
	assert.Equal(t, before+2, testutil.ToFloat64(mudrasAwarded.WithLabelValues("darshan_view")))
}

func TestHandlerServesRegistry(t *testing.T) {
	RecordOTP("send", "ok")
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "puja_otp_events_total")
}
