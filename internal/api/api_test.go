package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/BTreeMap/SiteBot/internal/booking"
	"github.com/BTreeMap/SiteBot/internal/metrics"
	"github.com/BTreeMap/SiteBot/internal/models"
	"github.com/BTreeMap/SiteBot/internal/store"
	"github.com/BTreeMap/SiteBot/internal/testutil"
)

type testServer struct {
	store    *store.InMemoryStore
	bookings *booking.Service
	handler  http.Handler
}

func newTestServer(t *testing.T, capacity int) *testServer {
	t.Helper()
	st := store.NewInMemoryStore()
	testutil.SeedTenant(t, st, testutil.BookingFlow(), capacity)

	checker := booking.NewChecker(st, st, booking.WithBusinessHours([]string{"09:00", "10:00", "11:00"}))
	n := 0
	svc := booking.NewService(st, checker,
		booking.WithServiceClock(func() time.Time { return time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC) }),
		booking.WithIDGenerator(func() string { n++; return fmt.Sprintf("bk-%d", n) }),
	)

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		t.Fatal(err)
	}
	m.SessionStarted(testutil.TenantCode, true)

	srv := NewServer(Dependencies{Store: st, Bookings: svc, Checker: checker, Gatherer: reg})
	return &testServer{store: st, bookings: svc, handler: srv.Handler()}
}

func (ts *testServer) do(t *testing.T, method, url string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, testutil.CreateHTTPRequest(t, method, url, body))
	return rr
}

func (ts *testServer) createBooking(t *testing.T, slot string) *models.BookingRecord {
	t.Helper()
	b, err := ts.bookings.Create(context.Background(), models.BookingRecord{
		Name:            "Ann",
		Phone:           "5551234567",
		SelectedService: testutil.ServiceName,
		ServiceDate:     "2030-01-02",
		TimeSlot:        slot,
		TenantCode:      testutil.TenantCode,
	})
	if err != nil {
		t.Fatalf("failed to create booking: %v", err)
	}
	return b
}

func TestHealthHandler(t *testing.T) {
	ts := newTestServer(t, 1)
	rr := ts.do(t, "GET", "/healthz", nil)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "healthz")
	testutil.AssertJSONResponse(t, rr, "ok")
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, 1)
	rr := ts.do(t, "GET", "/metrics", nil)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "metrics")
	if !strings.Contains(rr.Body.String(), "sitebot_chat_sessions_started_total") {
		t.Errorf("metrics output missing session counter:\n%s", rr.Body.String())
	}
}

func TestGetBooking(t *testing.T) {
	ts := newTestServer(t, 2)
	b := ts.createBooking(t, "09:00")

	rr := ts.do(t, "GET", "/bookings/"+b.ID, nil)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "get booking")
	resp := testutil.AssertJSONResponse(t, rr, "ok")
	result, ok := resp["result"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected result object, got %v", resp["result"])
	}
	if result["status"] != string(models.BookingPending) {
		t.Errorf("expected pending status, got %v", result["status"])
	}

	rr = ts.do(t, "GET", "/bookings/nope", nil)
	testutil.AssertHTTPStatus(t, http.StatusNotFound, rr.Code, "missing booking")
	testutil.AssertJSONResponse(t, rr, "error")
}

func TestBookingLifecycle(t *testing.T) {
	ts := newTestServer(t, 2)
	b := ts.createBooking(t, "09:00")

	rr := ts.do(t, "POST", "/bookings/"+b.ID+"/confirm", nil)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "confirm")

	// Confirmed bookings cannot be completed or deleted.
	rr = ts.do(t, "POST", "/bookings/"+b.ID+"/complete", nil)
	testutil.AssertHTTPStatus(t, http.StatusConflict, rr.Code, "complete after confirm")
	resp := testutil.AssertJSONResponse(t, rr, "error")
	if msg, _ := resp["message"].(string); !strings.Contains(msg, "confirmed") {
		t.Errorf("expected current status in message, got %q", msg)
	}
	rr = ts.do(t, "DELETE", "/bookings/"+b.ID, nil)
	testutil.AssertHTTPStatus(t, http.StatusConflict, rr.Code, "delete confirmed")

	rr = ts.do(t, "POST", "/bookings/"+b.ID+"/cancel", map[string]string{"reason": "customer called"})
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "cancel")
	got, err := ts.bookings.Get(context.Background(), b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.BookingCancelled || got.CancelReason != "customer called" {
		t.Errorf("unexpected booking after cancel: %+v", got)
	}

	rr = ts.do(t, "DELETE", "/bookings/"+b.ID, nil)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "delete cancelled")
	rr = ts.do(t, "GET", "/bookings/"+b.ID, nil)
	testutil.AssertHTTPStatus(t, http.StatusNotFound, rr.Code, "get deleted")
}

func TestCancelWithoutBody(t *testing.T) {
	ts := newTestServer(t, 2)
	b := ts.createBooking(t, "09:00")

	rr := ts.do(t, "POST", "/bookings/"+b.ID+"/cancel", nil)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "cancel without body")
	got, _ := ts.bookings.Get(context.Background(), b.ID)
	if got.CancelReason != booking.DefaultCancelReason {
		t.Errorf("expected default reason, got %q", got.CancelReason)
	}
}

func TestUpdateBooking(t *testing.T) {
	ts := newTestServer(t, 1)
	b := ts.createBooking(t, "")

	tests := []struct {
		name   string
		body   interface{}
		status int
	}{
		{"empty update", map[string]string{}, http.StatusBadRequest},
		{"bad date", map[string]string{"serviceDate": "someday"}, http.StatusBadRequest},
		{"bad phone", map[string]string{"phone": "12"}, http.StatusBadRequest},
		{"rename", map[string]string{"name": "Ann Lee"}, http.StatusOK},
		{"reschedule", map[string]string{"serviceDate": "2030-01-05"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(t, "PATCH", "/bookings/"+b.ID, tt.body)
			testutil.AssertHTTPStatus(t, tt.status, rr.Code, tt.name)
		})
	}

	got, _ := ts.bookings.Get(context.Background(), b.ID)
	if got.Name != "Ann Lee" || got.ServiceDate != "2030-01-05" {
		t.Errorf("unexpected booking after updates: %+v", got)
	}
}

func TestUpdateBooking_RescheduleIntoFullDay(t *testing.T) {
	ts := newTestServer(t, 1)
	b := ts.createBooking(t, "")
	if _, err := ts.bookings.Create(context.Background(), models.BookingRecord{
		Name: "Bob", Phone: "5550000000", SelectedService: testutil.ServiceName,
		ServiceDate: "2030-01-03", TenantCode: testutil.TenantCode,
	}); err != nil {
		t.Fatal(err)
	}

	rr := ts.do(t, "PATCH", "/bookings/"+b.ID, map[string]string{"serviceDate": "2030-01-03"})
	testutil.AssertHTTPStatus(t, http.StatusConflict, rr.Code, "reschedule into full day")
}

func TestAvailabilityHandlers(t *testing.T) {
	ts := newTestServer(t, 1)
	ts.createBooking(t, "10:00")

	rr := ts.do(t, "GET", "/availability?tenant=acme&service=AC+Repair&date=2030-01-02&time=10:00", nil)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "availability")
	resp := testutil.AssertJSONResponse(t, rr, "ok")
	result := resp["result"].(map[string]interface{})
	if result["available"] != false {
		t.Errorf("expected 10:00 to be full, got %v", result)
	}

	rr = ts.do(t, "GET", "/availability/slots?tenant=acme&service=AC+Repair&date=2030-01-02", nil)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "slots")
	resp = testutil.AssertJSONResponse(t, rr, "ok")
	slots := resp["result"].([]interface{})
	if len(slots) != 2 || slots[0] != "09:00" || slots[1] != "11:00" {
		t.Errorf("unexpected free slots %v", slots)
	}

	rr = ts.do(t, "GET", "/availability?tenant=acme", nil)
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "missing params")
}

func TestValidateFlowHandler(t *testing.T) {
	ts := newTestServer(t, 1)

	rr := ts.do(t, "POST", "/flows/validate", testutil.BranchFlow())
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "valid flow")
	resp := testutil.AssertJSONResponse(t, rr, "ok")
	result := resp["result"].(map[string]interface{})
	if result["valid"] != true {
		t.Errorf("expected valid flow, got %v", result)
	}
	if m, _ := result["mermaid"].(string); !strings.HasPrefix(m, "graph TD") {
		t.Errorf("expected mermaid diagram, got %q", m)
	}

	broken := testutil.BranchFlow()
	broken.Steps = broken.Steps[:1]
	rr = ts.do(t, "POST", "/flows/validate", broken)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "invalid flow")
	resp = testutil.AssertJSONResponse(t, rr, "ok")
	result = resp["result"].(map[string]interface{})
	if result["valid"] != false {
		t.Errorf("expected invalid flow, got %v", result)
	}
	if issues, _ := result["issues"].([]interface{}); len(issues) == 0 {
		t.Error("expected issues for a flow without an end step")
	}
}

func TestPublishFlowHandler(t *testing.T) {
	ts := newTestServer(t, 1)

	def := testutil.PhoneFlow()
	def.TenantCode = "ignored"
	rr := ts.do(t, "PUT", "/flows/acme", def)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "publish")

	got, err := ts.store.GetFlow(context.Background(), testutil.TenantCode)
	if err != nil {
		t.Fatal(err)
	}
	if got.Steps[0].StepID != testutil.PhoneFlow().Steps[0].StepID {
		t.Errorf("expected published flow to replace the booking flow, got first step %q", got.Steps[0].StepID)
	}

	rr = ts.do(t, "GET", "/flows/acme", nil)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "get flow")

	broken := testutil.PhoneFlow()
	broken.Steps = nil
	rr = ts.do(t, "PUT", "/flows/acme", broken)
	testutil.AssertHTTPStatus(t, http.StatusUnprocessableEntity, rr.Code, "publish broken flow")
	testutil.AssertJSONResponse(t, rr, "error")

	rr = ts.do(t, "PUT", "/flows/ghost", testutil.PhoneFlow())
	testutil.AssertHTTPStatus(t, http.StatusNotFound, rr.Code, "unknown tenant")
}

func TestPublishFlowHandler_BadJSON(t *testing.T) {
	ts := newTestServer(t, 1)
	req := httptest.NewRequest("PUT", "/flows/acme", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "bad json")
}

func TestTranscriptHandler(t *testing.T) {
	ts := newTestServer(t, 1)
	ctx := context.Background()
	if err := ts.store.CreateTranscript(ctx, models.Transcript{
		ChatID:     "chat-1",
		TenantCode: testutil.TenantCode,
		Status:     models.TranscriptActive,
	}); err != nil {
		t.Fatal(err)
	}
	if err := ts.store.AppendMessage(ctx, "chat-1", models.TranscriptEntry{Sender: models.SenderUser, Message: "hello"}); err != nil {
		t.Fatal(err)
	}

	rr := ts.do(t, "GET", "/transcripts/chat-1", nil)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "transcript")
	resp := testutil.AssertJSONResponse(t, rr, "ok")
	result := resp["result"].(map[string]interface{})
	if msgs, _ := result["messages"].([]interface{}); len(msgs) != 1 {
		t.Errorf("expected one message, got %v", result["messages"])
	}

	rr = ts.do(t, "GET", "/transcripts/chat-404", nil)
	testutil.AssertHTTPStatus(t, http.StatusNotFound, rr.Code, "missing transcript")
}
