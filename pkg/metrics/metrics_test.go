package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "/api/v1/djs/id/:id/status", RouteLabel("/api/v1/djs/id/65f0c0ffee/status"))
	assert.Equal(t, "/api/v1/djs/slug/:slug", RouteLabel("/api/v1/djs/slug/dj-nova"))
	assert.Equal(t, "/inquiries", RouteLabel("/inquiries"))
}

func TestMiddleware_RecordsStatus(t *testing.T) {
	m := New("agency-test")
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/trade-requests", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	got := testutil.ToFloat64(m.httpRequests.WithLabelValues(http.MethodPost, "/trade-requests", "201"))
	assert.Equal(t, 1.0, got)
}

func TestCounters(t *testing.T) {
	m := New("agency_test")

	m.Submission("inquiry", OutcomeSuccess)
	m.Submission("inquiry", OutcomeSuccess)
	m.Transition("booking", "pending", "confirmed")
	m.Notification("log", OutcomeFailure)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.submissions.WithLabelValues("inquiry", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("booking", "pending", "confirmed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("log", OutcomeFailure)))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	m.Submission("inquiry", OutcomeSuccess)
	m.Transition("booking", "pending", "confirmed")
	m.KafkaMessage("t", "produce", OutcomeSuccess)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := m.Middleware(next)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestHandler_Exposition(t *testing.T) {
	m := New("agency_test")
	m.Submission("trade_request", OutcomeSuccess)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "agency_test_submissions_total"))
}
