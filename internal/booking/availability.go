// Package booking implements the availability checker and the booking
// lifecycle service.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BTreeMap/SiteBot/internal/models"
	"github.com/BTreeMap/SiteBot/internal/store"
	"github.com/BTreeMap/SiteBot/internal/validation"
)

// DefaultBusinessHours is the slot list used when none is configured.
var DefaultBusinessHours = []string{
	"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00", "17:00",
}

// ParseBusinessHours parses a comma-separated slot list such as
// "09:00,10:00,11:00". An empty string yields DefaultBusinessHours.
func ParseBusinessHours(s string) []string {
	var hours []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			hours = append(hours, p)
		}
	}
	if len(hours) == 0 {
		return append([]string(nil), DefaultBusinessHours...)
	}
	return hours
}

// Availability is the result of a capacity check.
type Availability struct {
	Available      bool   `json:"available"`
	Message        string `json:"message,omitempty"`
	SlotsRemaining int    `json:"slotsRemaining"`
	Booked         int    `json:"booked"`
	Capacity       int    `json:"capacity"`
}

// Checker answers capacity questions from the tenant directory and the
// booking store.
type Checker struct {
	tenants  store.TenantStore
	bookings store.BookingStore
	hours    []string
}

// CheckerOption configures the Checker.
type CheckerOption func(*Checker)

// WithBusinessHours sets the slot list offered for time steps.
func WithBusinessHours(hours []string) CheckerOption {
	return func(c *Checker) {
		if len(hours) > 0 {
			c.hours = append([]string(nil), hours...)
		}
	}
}

// NewChecker creates a Checker.
func NewChecker(tenants store.TenantStore, bookings store.BookingStore, opts ...CheckerOption) *Checker {
	c := &Checker{
		tenants:  tenants,
		bookings: bookings,
		hours:    append([]string(nil), DefaultBusinessHours...),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BusinessHours returns the configured slot list.
func (c *Checker) BusinessHours() []string {
	return append([]string(nil), c.hours...)
}

// Capacity returns the booking cap for a tenant's service.
func (c *Checker) Capacity(ctx context.Context, tenantCode, service string) (int, error) {
	sc, err := c.tenants.GetServiceCapacity(ctx, tenantCode, service)
	if err != nil {
		return 0, err
	}
	return sc.HowManyBookingsAllowed, nil
}

// CheckAvailability reports whether another booking fits the service on
// date (and timeSlot, when given). An unknown service or a slot outside
// business hours is reported as unavailable, not as an error.
func (c *Checker) CheckAvailability(ctx context.Context, tenantCode, service, date, timeSlot string) (*Availability, error) {
	return c.check(ctx, models.BookingFilter{
		TenantCode:  tenantCode,
		Service:     service,
		ServiceDate: validation.CanonicalDate(date),
		TimeSlot:    CanonicalSlot(timeSlot),
	})
}

func (c *Checker) check(ctx context.Context, filter models.BookingFilter) (*Availability, error) {
	if filter.TimeSlot != "" && !c.IsBusinessHour(filter.TimeSlot) {
		slog.Debug("Checker.CheckAvailability: slot outside business hours", "tenantCode", filter.TenantCode, "slot", filter.TimeSlot)
		return &Availability{
			Available: false,
			Message:   fmt.Sprintf("Sorry, %s is outside our business hours.", filter.TimeSlot),
		}, nil
	}
	capacity, err := c.Capacity(ctx, filter.TenantCode, filter.Service)
	if errors.Is(err, models.ErrServiceNotFound) {
		slog.Warn("Checker.CheckAvailability: service has no capacity configured", "tenantCode", filter.TenantCode, "service", filter.Service)
		return &Availability{
			Available: false,
			Message:   fmt.Sprintf("Sorry, we couldn't find the service %q.", filter.Service),
		}, nil
	}
	if err != nil {
		return nil, err
	}
	booked, err := c.bookings.CountBookings(ctx, filter)
	if err != nil {
		return nil, err
	}
	a := &Availability{Booked: booked, Capacity: capacity}
	if booked < capacity {
		a.Available = true
		a.SlotsRemaining = capacity - booked
		return a, nil
	}
	when := filter.ServiceDate
	if filter.TimeSlot != "" {
		when += " at " + filter.TimeSlot
	}
	a.Message = fmt.Sprintf("Sorry, %s is fully booked on %s (%d/%d bookings).", filter.Service, when, booked, capacity)
	slog.Debug("Checker.CheckAvailability: unavailable", "tenantCode", filter.TenantCode, "service", filter.Service, "date", filter.ServiceDate, "slot", filter.TimeSlot, "booked", booked, "capacity", capacity)
	return a, nil
}

// AvailableTimeSlots returns the business hours that still have room for
// the service on date, in business-hours order. Each slot is its own
// capacity bucket, matching CheckAvailability.
func (c *Checker) AvailableTimeSlots(ctx context.Context, tenantCode, service, date string) ([]string, error) {
	capacity, err := c.Capacity(ctx, tenantCode, service)
	if errors.Is(err, models.ErrServiceNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	counts, err := c.bookings.BookedSlotCounts(ctx, tenantCode, service, validation.CanonicalDate(date))
	if err != nil {
		return nil, err
	}
	free := make([]string, 0, len(c.hours))
	for _, h := range c.hours {
		if counts[h] < capacity {
			free = append(free, h)
		}
	}
	return free, nil
}

// IsBusinessHour reports whether slot is one of the configured slots.
func (c *Checker) IsBusinessHour(slot string) bool {
	for _, h := range c.hours {
		if h == slot {
			return true
		}
	}
	return false
}

var slotLayouts = []string{"15:04", "3:04PM", "3:04 PM", "3PM", "3 PM", "15"}

// CanonicalSlot rewrites a time such as "9:00", "2pm" or "2:30 PM" to the
// HH:MM form used by business hours. Unparseable input is returned trimmed.
func CanonicalSlot(slot string) string {
	slot = strings.TrimSpace(slot)
	upper := strings.ToUpper(slot)
	for _, layout := range slotLayouts {
		if t, err := time.Parse(layout, upper); err == nil {
			return t.Format("15:04")
		}
	}
	return slot
}
