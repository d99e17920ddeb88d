package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecording(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	m.SessionStarted("acme", true)
	m.SessionStarted("acme", false)
	m.TurnHandled("acme", "advanced", 10*time.Millisecond)
	m.BookingAttempt("acme", "created")
	m.AIRequest("error")
	m.Notification("booking", true)

	if got := testutil.ToFloat64(m.sessionsActive); got != 1 {
		t.Errorf("expected 1 active session, got %v", got)
	}
	if got := testutil.ToFloat64(m.sessionsStarted.WithLabelValues("acme", "config_error")); got != 1 {
		t.Errorf("expected 1 config_error start, got %v", got)
	}
	if got := testutil.ToFloat64(m.turnsTotal.WithLabelValues("acme", "advanced")); got != 1 {
		t.Errorf("expected 1 advanced turn, got %v", got)
	}
	m.SessionClosed()
	if got := testutil.ToFloat64(m.sessionsActive); got != 0 {
		t.Errorf("expected 0 active sessions, got %v", got)
	}
}

func TestMetricsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := New(reg); err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := New(reg); err == nil {
		t.Error("expected error registering collectors twice")
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.SessionStarted("acme", true)
	m.SessionClosed()
	m.TurnHandled("acme", "advanced", time.Millisecond)
	m.BookingAttempt("acme", "failed")
	m.AIRequest("ok")
	m.Notification("complaint", false)
}
