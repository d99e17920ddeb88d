// Package models defines the core data structures for SiteBot.
//
// It includes the tenant-authored flow definitions, per-connection session state,
// persisted transcripts and bookings, and the event envelopes shared across modules.
package models

import (
	"errors"
	"fmt"
)

// Error variables for better error handling and testability
var (
	ErrNoActiveSession     = errors.New("no active session")
	ErrConfiguration       = errors.New("configuration error")
	ErrTenantNotFound      = errors.New("tenant not found")
	ErrFlowNotFound        = errors.New("flow not found")
	ErrServiceNotFound     = errors.New("service not found")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrTranscriptNotFound  = errors.New("transcript not found")
	ErrSlotUnavailable     = errors.New("slot unavailable")
	ErrInvalidTransition   = errors.New("invalid booking status transition")
	ErrTranscriptFinalized = errors.New("transcript already finalized")
	ErrEmptyTenantCode     = errors.New("tenant code cannot be empty")
	ErrEmptyReason         = errors.New("cancel reason cannot be empty")
)

// TransitionError reports a rejected booking status change together with the
// status the booking currently holds.
type TransitionError struct {
	Op      string
	Current BookingStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s booking: booking is %s", e.Op, e.Current)
}

// Unwrap lets callers match TransitionError with errors.Is(err, ErrInvalidTransition).
func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// APIResponseBuilder provides a fluent interface for building API responses.
type APIResponseBuilder struct {
	response APIResponse
}

// NewAPIResponseBuilder creates a new APIResponseBuilder instance.
func NewAPIResponseBuilder() *APIResponseBuilder {
	return &APIResponseBuilder{
		response: APIResponse{},
	}
}

// WithStatus sets the status of the API response.
func (b *APIResponseBuilder) WithStatus(status APIStatus) *APIResponseBuilder {
	b.response.Status = string(status)
	return b
}

// WithMessage sets the message of the API response.
func (b *APIResponseBuilder) WithMessage(message string) *APIResponseBuilder {
	b.response.Message = message
	return b
}

// WithResult sets the result data of the API response.
func (b *APIResponseBuilder) WithResult(result interface{}) *APIResponseBuilder {
	b.response.Result = result
	return b
}

// Build constructs and returns the final APIResponse.
func (b *APIResponseBuilder) Build() APIResponse {
	return b.response
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithResult(result).
		Build()
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithMessage(message).
		WithResult(result).
		Build()
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusError).
		WithMessage(message).
		Build()
}

// ErrorWithResult creates an error response that still carries details,
// such as the issues found in a rejected flow.
func ErrorWithResult(message string, result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusError).
		WithMessage(message).
		WithResult(result).
		Build()
}
