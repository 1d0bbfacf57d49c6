package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveDecision(t *testing.T) {
	m := New()
	m.ObserveDecision(TransportHTTP, "default")
	m.ObserveDecision(TransportHTTP, "default")
	m.ObserveDecision(TransportMessage, "job")

	if got := testutil.ToFloat64(m.decisions.WithLabelValues(TransportHTTP, "default")); got != 2 {
		t.Errorf("http/default = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.decisions.WithLabelValues(TransportMessage, "job")); got != 1 {
		t.Errorf("message/job = %v, want 1", got)
	}
}

func TestObserveTransportError(t *testing.T) {
	m := New()
	m.ObserveTransportError(TransportMessage)

	if got := testutil.ToFloat64(m.transportErrors.WithLabelValues(TransportMessage)); got != 1 {
		t.Errorf("transport errors = %v, want 1", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveDecision(TransportHTTP, "none")
	m.ObserveTransportError(TransportHTTP)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("nil handler status = %d, want 404", rec.Code)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveDecision(TransportHTTP, "process_instance")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	want := `kie_redirect_decisions_total{strategy="process_instance",transport="http"} 1`
	if !strings.Contains(body, want) {
		t.Errorf("body missing %q", want)
	}
}
