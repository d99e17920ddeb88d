package models

import "time"

// SessionState is the ephemeral conversation state of one connection.
// It is mutated only by the flow engine while holding the session lock.
type SessionState struct {
	SessionID         string
	TenantCode        string
	ChatID            string
	Flow              *FlowDefinition
	Website           *Website
	CurrentStep       *Step
	Responses         map[string]string
	ResponseOrder     []string
	NeedsAIResponse   bool
	BookingInProgress bool
	LastBookingID     string
	Fields            CollectedFields
	Completed         bool
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// BookingPending is set while a completing step's booking has failed
	// to persist and may be retried.
	BookingPending bool
}

// NewSessionState creates an empty session bound to a tenant.
func NewSessionState(sessionID, tenantCode string, now time.Time) *SessionState {
	return &SessionState{
		SessionID:  sessionID,
		TenantCode: tenantCode,
		Responses:  make(map[string]string),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// SetResponse records an answer. Re-answering a step keeps its original
// position in ResponseOrder.
func (s *SessionState) SetResponse(stepID, value string) {
	if s.Responses == nil {
		s.Responses = make(map[string]string)
	}
	if _, exists := s.Responses[stepID]; !exists {
		s.ResponseOrder = append(s.ResponseOrder, stepID)
	}
	s.Responses[stepID] = value
}

// Response returns the answer recorded for stepID.
func (s *SessionState) Response(stepID string) (string, bool) {
	v, ok := s.Responses[stepID]
	return v, ok
}
