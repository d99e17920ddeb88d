package models

import (
	"errors"
	"time"
)

// BookingStatus represents the lifecycle status of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// IsValidBookingStatus checks if the given booking status is valid.
func IsValidBookingStatus(status BookingStatus) bool {
	switch status {
	case BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled:
		return true
	default:
		return false
	}
}

// Booking operations guarded by the status machine.
const (
	OpConfirm  = "confirm"
	OpCancel   = "cancel"
	OpComplete = "complete"
	OpDelete   = "delete"
	OpUpdate   = "update"
)

// CheckTransition validates that op is permitted from status.
//
//	pending   -confirm->  confirmed
//	pending|confirmed -cancel-> cancelled
//	pending   -complete-> completed
//	delete allowed from pending or cancelled, update only while pending
func CheckTransition(status BookingStatus, op string) error {
	allowed := false
	switch op {
	case OpConfirm, OpComplete, OpUpdate:
		allowed = status == BookingPending
	case OpCancel:
		allowed = status == BookingPending || status == BookingConfirmed
	case OpDelete:
		allowed = status == BookingPending || status == BookingCancelled
	}
	if !allowed {
		return &TransitionError{Op: op, Current: status}
	}
	return nil
}

// BookingRecord is a reservation created when a booking flow completes.
type BookingRecord struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Phone            string        `json:"phone"`
	Email            string        `json:"email,omitempty"`
	SelectedCategory string        `json:"selectedCategory,omitempty"`
	SelectedService  string        `json:"selectedService"`
	Address          string        `json:"address,omitempty"`
	ServiceDate      string        `json:"serviceDate"`
	TimeSlot         string        `json:"timeSlot,omitempty"`
	TenantCode       string        `json:"tenantCode"`
	ChatID           string        `json:"chatId,omitempty"`
	Status           BookingStatus `json:"status"`
	CancelReason     string        `json:"cancelReason,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// BookingFilter selects bookings counted against a service capacity.
// Cancelled bookings are never counted.
type BookingFilter struct {
	TenantCode  string
	Service     string
	ServiceDate string
	TimeSlot    string
	ExcludeID   string
}

// Matches reports whether b is counted by the filter.
func (f BookingFilter) Matches(b BookingRecord) bool {
	if b.Status == BookingCancelled {
		return false
	}
	if b.TenantCode != f.TenantCode || b.SelectedService != f.Service || b.ServiceDate != f.ServiceDate {
		return false
	}
	if f.TimeSlot != "" && b.TimeSlot != f.TimeSlot {
		return false
	}
	return f.ExcludeID == "" || b.ID != f.ExcludeID
}

// BookingDetailsUpdate is a partial edit of a pending booking.
type BookingDetailsUpdate struct {
	Name        *string `json:"name,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Address     *string `json:"address,omitempty"`
	ServiceDate *string `json:"serviceDate,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u BookingDetailsUpdate) IsEmpty() bool {
	return u.Name == nil && u.Phone == nil && u.Address == nil && u.ServiceDate == nil
}

// Validate checks the booking has the fields required to count against capacity.
func (b *BookingRecord) Validate() error {
	if b.TenantCode == "" {
		return ErrEmptyTenantCode
	}
	if b.SelectedService == "" {
		return errors.New("selected service is required")
	}
	if b.ServiceDate == "" {
		return errors.New("service date is required")
	}
	return nil
}
