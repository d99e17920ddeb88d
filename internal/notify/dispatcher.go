// Package notify sends best-effort templated notifications when a booking
// or complaint is filed. Sends run in the background after the triggering
// write has committed; failures are logged and never retried.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/BTreeMap/SiteBot/internal/metrics"
	"github.com/BTreeMap/SiteBot/internal/models"
	"github.com/BTreeMap/SiteBot/internal/validation"
)

// Notification kinds, used as the metrics label.
const (
	KindBooking   = "booking"
	KindComplaint = "complaint"
)

// DefaultSendTimeout bounds a single send.
const DefaultSendTimeout = 15 * time.Second

// DispatcherOpts holds configuration options for the Dispatcher.
type DispatcherOpts struct {
	BookingTemplate   string
	ComplaintTemplate string
	Timeout           time.Duration
	Metrics           *metrics.Metrics
}

// DispatcherOption defines a configuration option for the Dispatcher.
type DispatcherOption func(*DispatcherOpts)

// WithBookingTemplate sets the content template for booking confirmations.
func WithBookingTemplate(id string) DispatcherOption {
	return func(o *DispatcherOpts) { o.BookingTemplate = id }
}

// WithComplaintTemplate sets the content template for complaint receipts.
func WithComplaintTemplate(id string) DispatcherOption {
	return func(o *DispatcherOpts) { o.ComplaintTemplate = id }
}

// WithTimeout bounds each send.
func WithTimeout(d time.Duration) DispatcherOption {
	return func(o *DispatcherOpts) { o.Timeout = d }
}

// WithMetrics enables send counters.
func WithMetrics(m *metrics.Metrics) DispatcherOption {
	return func(o *DispatcherOpts) { o.Metrics = m }
}

// Dispatcher fans notifications out to a Sender in the background.
type Dispatcher struct {
	sender Sender
	opts   DispatcherOpts
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher over sender.
func NewDispatcher(sender Sender, opts ...DispatcherOption) *Dispatcher {
	cfg := DispatcherOpts{Timeout: DefaultSendTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Dispatcher{sender: sender, opts: cfg}
}

// Dispatch sends templateID to the given number in the background and
// returns immediately. Missing recipients or templates are skipped.
func (d *Dispatcher) Dispatch(kind, to, templateID string, params ...string) {
	if to == "" || templateID == "" {
		slog.Debug("Dispatcher.Dispatch: skipped", "kind", kind, "hasRecipient", to != "", "hasTemplate", templateID != "")
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.opts.Timeout)
		defer cancel()

		err := d.sender.SendTemplate(ctx, to, templateID, params)
		d.opts.Metrics.Notification(kind, err == nil)
		if err != nil {
			slog.Error("Dispatcher.Dispatch: send failed", "kind", kind, "to", to, "templateID", templateID, "error", err)
			return
		}
		slog.Info("Dispatcher.Dispatch: sent", "kind", kind, "to", to)
	}()
}

// Wait blocks until every in-flight send has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// BookingCreated notifies the customer of a new booking. Template
// variables: name, service, date, time slot, booking id.
func (d *Dispatcher) BookingCreated(b models.BookingRecord) {
	d.Dispatch(KindBooking, b.Phone, d.opts.BookingTemplate,
		b.Name, b.SelectedService, b.ServiceDate, b.TimeSlot, b.ID)
}

// ComplaintFiled acknowledges a complaint to the customer. Template
// variables: name, tenant code, chat id.
func (d *Dispatcher) ComplaintFiled(tenantCode, chatID string, fields models.CollectedFields) {
	d.Dispatch(KindComplaint, validation.NormalizePhone(fields.Contact), d.opts.ComplaintTemplate,
		fields.Name, tenantCode, chatID)
}
