package models

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		status  BookingStatus
		op      string
		allowed bool
	}{
		{BookingPending, OpConfirm, true},
		{BookingConfirmed, OpConfirm, false},
		{BookingPending, OpCancel, true},
		{BookingConfirmed, OpCancel, true},
		{BookingCompleted, OpCancel, false},
		{BookingCancelled, OpCancel, false},
		{BookingPending, OpComplete, true},
		{BookingConfirmed, OpComplete, false},
		{BookingPending, OpDelete, true},
		{BookingCancelled, OpDelete, true},
		{BookingConfirmed, OpDelete, false},
		{BookingCompleted, OpDelete, false},
		{BookingPending, OpUpdate, true},
		{BookingConfirmed, OpUpdate, false},
	}

	for _, tt := range tests {
		err := CheckTransition(tt.status, tt.op)
		if tt.allowed && err != nil {
			t.Errorf("%s from %s: unexpected error %v", tt.op, tt.status, err)
		}
		if !tt.allowed {
			if err == nil {
				t.Errorf("%s from %s: expected rejection", tt.op, tt.status)
				continue
			}
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("%s from %s: expected ErrInvalidTransition, got %v", tt.op, tt.status, err)
			}
			if !strings.Contains(err.Error(), string(tt.status)) {
				t.Errorf("error %q should name current status %s", err.Error(), tt.status)
			}
		}
	}
}

func TestTranscriptStatusTransitions(t *testing.T) {
	if !TranscriptActive.CanTransition(TranscriptCompleted) {
		t.Error("active -> completed should be allowed")
	}
	if !TranscriptActive.CanTransition(TranscriptAbandoned) {
		t.Error("active -> abandoned should be allowed")
	}
	if TranscriptCompleted.CanTransition(TranscriptActive) {
		t.Error("completed -> active must be rejected")
	}
	if TranscriptCompleted.CanTransition(TranscriptAbandoned) {
		t.Error("completed -> abandoned must be rejected")
	}
	if TranscriptAbandoned.CanTransition(TranscriptCompleted) {
		t.Error("abandoned -> completed must be rejected")
	}
}

func TestEffectiveFieldType(t *testing.T) {
	tests := []struct {
		step Step
		want FieldType
	}{
		{Step{StepID: "step-name"}, FieldName},
		{Step{StepID: "step-phone"}, FieldPhone},
		{Step{StepID: "step-unknown"}, ""},
		{Step{StepID: "who", FieldType: FieldName}, FieldName},
		{Step{StepID: "step-phone", FieldType: FieldEmail}, FieldEmail},
		{Step{StepID: "step-"}, ""},
	}
	for _, tt := range tests {
		if got := tt.step.EffectiveFieldType(); got != tt.want {
			t.Errorf("EffectiveFieldType(%q) = %q, want %q", tt.step.StepID, got, tt.want)
		}
	}
}

func TestSessionStateResponseOrder(t *testing.T) {
	s := NewSessionState("sid", "acme", time.Now())
	s.SetResponse("a", "1")
	s.SetResponse("b", "2")
	s.SetResponse("a", "3")

	if len(s.ResponseOrder) != 2 || s.ResponseOrder[0] != "a" || s.ResponseOrder[1] != "b" {
		t.Errorf("unexpected response order: %v", s.ResponseOrder)
	}
	if v, _ := s.Response("a"); v != "3" {
		t.Errorf("expected latest answer 3, got %q", v)
	}
}

func TestBookingFilterMatches(t *testing.T) {
	f := BookingFilter{TenantCode: "acme", Service: "clean", ServiceDate: "2030-01-02"}
	b := BookingRecord{ID: "1", TenantCode: "acme", SelectedService: "clean", ServiceDate: "2030-01-02", Status: BookingPending}

	if !f.Matches(b) {
		t.Error("pending booking should match")
	}
	b.Status = BookingCancelled
	if f.Matches(b) {
		t.Error("cancelled booking must not be counted")
	}
	b.Status = BookingConfirmed
	f.ExcludeID = "1"
	if f.Matches(b) {
		t.Error("excluded booking must not be counted")
	}
	f.ExcludeID = ""
	f.TimeSlot = "10:00"
	b.TimeSlot = "11:00"
	if f.Matches(b) {
		t.Error("different time slot must not match")
	}
}

func TestResponseBuilders(t *testing.T) {
	ok := Success(map[string]int{"n": 1})
	if ok.Status != "ok" || ok.Message != "" || ok.Result == nil {
		t.Errorf("unexpected success response %+v", ok)
	}
	failed := Error("boom")
	if failed.Status != "error" || failed.Message != "boom" || failed.Result != nil {
		t.Errorf("unexpected error response %+v", failed)
	}
	detailed := ErrorWithResult("rejected", []string{"issue"})
	if detailed.Status != "error" || detailed.Result == nil {
		t.Errorf("expected error response with result, got %+v", detailed)
	}
}
