package booking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/BTreeMap/SiteBot/internal/models"
	"github.com/BTreeMap/SiteBot/internal/store"
	"github.com/BTreeMap/SiteBot/internal/util"
	"github.com/BTreeMap/SiteBot/internal/validation"
)

// DefaultCancelReason is stored when a cancellation carries no reason.
const DefaultCancelReason = "No reason provided"

// Service owns the BookingRecord lifecycle.
type Service struct {
	bookings store.BookingStore
	checker  *Checker
	now      func() time.Time
	newID    func() string

	// mu serializes read-check-write status transitions in this process.
	mu sync.Mutex
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithServiceClock overrides the timestamp source.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides booking id generation.
func WithIDGenerator(newID func() string) ServiceOption {
	return func(s *Service) { s.newID = newID }
}

// NewService creates a booking Service.
func NewService(bookings store.BookingStore, checker *Checker, opts ...ServiceOption) *Service {
	s := &Service{
		bookings: bookings,
		checker:  checker,
		now:      time.Now,
		newID:    util.GenerateBookingReference,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create persists a new pending booking if the slot has room. The capacity
// check and the insert are one atomic store operation.
func (s *Service) Create(ctx context.Context, b models.BookingRecord) (*models.BookingRecord, error) {
	b.ServiceDate = validation.CanonicalDate(b.ServiceDate)
	if err := b.Validate(); err != nil {
		return nil, err
	}
	capacity, err := s.checker.Capacity(ctx, b.TenantCode, b.SelectedService)
	if err != nil {
		return nil, fmt.Errorf("failed to look up capacity for %s: %w", b.SelectedService, err)
	}
	now := s.now().UTC()
	b.ID = s.newID()
	b.Status = models.BookingPending
	b.CancelReason = ""
	b.CreatedAt = now
	b.UpdatedAt = now
	if err := s.bookings.CreateBookingIfAvailable(ctx, b, capacity); err != nil {
		return nil, err
	}
	slog.Info("Booking created", "bookingID", b.ID, "tenantCode", b.TenantCode, "service", b.SelectedService, "date", b.ServiceDate, "slot", b.TimeSlot)
	return &b, nil
}

// Get returns a booking by id.
func (s *Service) Get(ctx context.Context, id string) (*models.BookingRecord, error) {
	return s.bookings.GetBooking(ctx, id)
}

// Confirm moves a pending booking to confirmed.
func (s *Service) Confirm(ctx context.Context, id string) (*models.BookingRecord, error) {
	return s.transition(ctx, id, models.OpConfirm, func(b *models.BookingRecord) {
		b.Status = models.BookingConfirmed
	})
}

// Complete moves a pending booking to completed.
func (s *Service) Complete(ctx context.Context, id string) (*models.BookingRecord, error) {
	return s.transition(ctx, id, models.OpComplete, func(b *models.BookingRecord) {
		b.Status = models.BookingCompleted
	})
}

// Cancel moves a pending or confirmed booking to cancelled. A blank reason
// is replaced by DefaultCancelReason.
func (s *Service) Cancel(ctx context.Context, id, reason string) (*models.BookingRecord, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultCancelReason
	}
	return s.transition(ctx, id, models.OpCancel, func(b *models.BookingRecord) {
		b.Status = models.BookingCancelled
		b.CancelReason = reason
	})
}

func (s *Service) transition(ctx context.Context, id, op string, apply func(*models.BookingRecord)) (*models.BookingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := models.CheckTransition(b.Status, op); err != nil {
		slog.Warn("Booking transition rejected", "bookingID", id, "op", op, "status", b.Status)
		return nil, err
	}
	apply(b)
	b.UpdatedAt = s.now().UTC()
	if err := s.bookings.UpdateBooking(ctx, *b); err != nil {
		return nil, err
	}
	slog.Info("Booking transitioned", "bookingID", id, "op", op, "status", b.Status)
	return b, nil
}

// Delete removes a pending or cancelled booking.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	if err := models.CheckTransition(b.Status, models.OpDelete); err != nil {
		return err
	}
	if err := s.bookings.DeleteBooking(ctx, id); err != nil {
		return err
	}
	slog.Info("Booking deleted", "bookingID", id)
	return nil
}

// UpdateDetails edits a pending booking. A changed service date is
// re-checked against capacity, not counting the booking itself.
func (s *Service) UpdateDetails(ctx context.Context, id string, upd models.BookingDetailsUpdate) (*models.BookingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := models.CheckTransition(b.Status, models.OpUpdate); err != nil {
		return nil, err
	}
	if upd.Name != nil {
		b.Name = *upd.Name
	}
	if upd.Phone != nil {
		b.Phone = *upd.Phone
	}
	if upd.Address != nil {
		b.Address = *upd.Address
	}
	b.UpdatedAt = s.now().UTC()

	if upd.ServiceDate == nil || validation.CanonicalDate(*upd.ServiceDate) == b.ServiceDate {
		if err := s.bookings.UpdateBooking(ctx, *b); err != nil {
			return nil, err
		}
		return b, nil
	}

	newDate := validation.CanonicalDate(*upd.ServiceDate)
	if _, err := validation.ParseDate(newDate); err != nil {
		return nil, fmt.Errorf("invalid service date %q: %w", *upd.ServiceDate, err)
	}
	capacity, err := s.checker.Capacity(ctx, b.TenantCode, b.SelectedService)
	if err != nil {
		return nil, fmt.Errorf("failed to look up capacity for %s: %w", b.SelectedService, err)
	}
	b.ServiceDate = newDate
	if err := s.bookings.RescheduleBookingIfAvailable(ctx, *b, capacity); err != nil {
		return nil, err
	}
	slog.Info("Booking rescheduled", "bookingID", id, "date", newDate)
	return b, nil
}
