// Package store provides storage backends for SiteBot.
//
// It includes an in-memory store and SQL-backed stores (SQLite, PostgreSQL) for the
// tenant directory, flow configurations, chat transcripts and bookings.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BTreeMap/SiteBot/internal/models"
)

// TenantStore resolves tenant display metadata and service capacities.
type TenantStore interface {
	GetWebsite(ctx context.Context, tenantCode string) (*models.Website, error)
	SaveWebsite(ctx context.Context, w models.Website) error
	GetServiceCapacity(ctx context.Context, tenantCode, service string) (*models.ServiceCapacity, error)
	SaveServiceCapacity(ctx context.Context, c models.ServiceCapacity) error
}

// FlowStore supplies tenant flow definitions.
type FlowStore interface {
	GetFlow(ctx context.Context, tenantCode string) (*models.FlowDefinition, error)
	SaveFlow(ctx context.Context, def models.FlowDefinition) error
}

// TranscriptStore is the append-only chat transcript writer.
type TranscriptStore interface {
	CreateTranscript(ctx context.Context, t models.Transcript) error
	AppendMessage(ctx context.Context, chatID string, entry models.TranscriptEntry) error
	SetCollectedField(ctx context.Context, chatID string, field models.FieldType, value string) error
	// SetTranscriptStatus returns models.ErrTranscriptFinalized when the
	// transcript is no longer active.
	SetTranscriptStatus(ctx context.Context, chatID string, status models.TranscriptStatus) error
	GetTranscript(ctx context.Context, chatID string) (*models.Transcript, error)
	// ListTranscriptIDs returns the ids of transcripts in status last
	// updated before the cutoff, oldest first.
	ListTranscriptIDs(ctx context.Context, status models.TranscriptStatus, updatedBefore time.Time) ([]string, error)
}

// BookingStore persists bookings and answers capacity queries.
type BookingStore interface {
	// CreateBookingIfAvailable inserts b only if fewer than capacity
	// non-cancelled bookings match it; otherwise models.ErrSlotUnavailable.
	// The check and the insert are a single atomic operation.
	CreateBookingIfAvailable(ctx context.Context, b models.BookingRecord, capacity int) error
	// RescheduleBookingIfAvailable replaces b (matched by ID) if the new slot,
	// excluding b itself, still has room.
	RescheduleBookingIfAvailable(ctx context.Context, b models.BookingRecord, capacity int) error
	GetBooking(ctx context.Context, id string) (*models.BookingRecord, error)
	UpdateBooking(ctx context.Context, b models.BookingRecord) error
	DeleteBooking(ctx context.Context, id string) error
	CountBookings(ctx context.Context, filter models.BookingFilter) (int, error)
	// BookedSlotCounts returns the number of non-cancelled bookings per time
	// slot for the service on serviceDate. Day-level bookings are not listed.
	BookedSlotCounts(ctx context.Context, tenantCode, service, serviceDate string) (map[string]int, error)
}

// Store is the full persistence surface used by SiteBot.
type Store interface {
	TenantStore
	FlowStore
	TranscriptStore
	BookingStore
	Close() error
}

// Opts holds configuration options for SQL stores.
type Opts struct {
	DSN string
}

// Option defines a configuration option for store constructors.
type Option func(*Opts)

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType returns "postgres" for PostgreSQL connection strings and
// "sqlite3" for everything else.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite3"
}

// New opens the store matching the DSN; an empty DSN yields an InMemoryStore.
func New(dsn string) (Store, error) {
	switch {
	case dsn == "":
		return NewInMemoryStore(), nil
	case DetectDSNType(dsn) == "postgres":
		return NewPostgresStore(WithPostgresDSN(dsn))
	default:
		return NewSQLiteStore(WithSQLiteDSN(dsn))
	}
}

type capacityKey struct {
	tenant  string
	service string
}

// InMemoryStore is a simple in-memory Store. A single mutex makes the
// capacity check and insert atomic.
type InMemoryStore struct {
	mu          sync.RWMutex
	websites    map[string]models.Website
	capacities  map[capacityKey]models.ServiceCapacity
	flows       map[string]models.FlowDefinition
	transcripts map[string]*models.Transcript
	bookings    map[string]models.BookingRecord
}

// NewInMemoryStore creates an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		websites:    make(map[string]models.Website),
		capacities:  make(map[capacityKey]models.ServiceCapacity),
		flows:       make(map[string]models.FlowDefinition),
		transcripts: make(map[string]*models.Transcript),
		bookings:    make(map[string]models.BookingRecord),
	}
}

func (s *InMemoryStore) GetWebsite(ctx context.Context, tenantCode string) (*models.Website, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.websites[tenantCode]
	if !ok {
		return nil, models.ErrTenantNotFound
	}
	return &w, nil
}

func (s *InMemoryStore) SaveWebsite(ctx context.Context, w models.Website) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.websites[w.TenantCode] = w
	return nil
}

func (s *InMemoryStore) GetServiceCapacity(ctx context.Context, tenantCode, service string) (*models.ServiceCapacity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.capacities[capacityKey{tenantCode, service}]
	if !ok {
		return nil, models.ErrServiceNotFound
	}
	return &c, nil
}

func (s *InMemoryStore) SaveServiceCapacity(ctx context.Context, c models.ServiceCapacity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capacities[capacityKey{c.TenantCode, c.Service}] = c
	return nil
}

func (s *InMemoryStore) GetFlow(ctx context.Context, tenantCode string) (*models.FlowDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.flows[tenantCode]
	if !ok {
		return nil, models.ErrFlowNotFound
	}
	return &def, nil
}

func (s *InMemoryStore) SaveFlow(ctx context.Context, def models.FlowDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[def.TenantCode] = def
	return nil
}

func (s *InMemoryStore) CreateTranscript(ctx context.Context, t models.Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.Status == "" {
		t.Status = models.TranscriptActive
	}
	t.Messages = append([]models.TranscriptEntry(nil), t.Messages...)
	s.transcripts[t.ChatID] = &t
	return nil
}

func (s *InMemoryStore) AppendMessage(ctx context.Context, chatID string, entry models.TranscriptEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transcripts[chatID]
	if !ok {
		return models.ErrTranscriptNotFound
	}
	t.Messages = append(t.Messages, entry)
	t.UpdatedAt = entry.Timestamp
	return nil
}

func (s *InMemoryStore) SetCollectedField(ctx context.Context, chatID string, field models.FieldType, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transcripts[chatID]
	if !ok {
		return models.ErrTranscriptNotFound
	}
	t.Fields.Set(field, value)
	t.UpdatedAt = time.Now()
	return nil
}

func (s *InMemoryStore) SetTranscriptStatus(ctx context.Context, chatID string, status models.TranscriptStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transcripts[chatID]
	if !ok {
		return models.ErrTranscriptNotFound
	}
	if !t.Status.CanTransition(status) {
		return models.ErrTranscriptFinalized
	}
	t.Status = status
	t.UpdatedAt = time.Now()
	return nil
}

func (s *InMemoryStore) GetTranscript(ctx context.Context, chatID string) (*models.Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transcripts[chatID]
	if !ok {
		return nil, models.ErrTranscriptNotFound
	}
	cp := *t
	cp.Messages = append([]models.TranscriptEntry(nil), t.Messages...)
	return &cp, nil
}

func (s *InMemoryStore) ListTranscriptIDs(ctx context.Context, status models.TranscriptStatus, updatedBefore time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*models.Transcript
	for _, t := range s.transcripts {
		if t.Status == status && t.UpdatedAt.Before(updatedBefore) {
			matched = append(matched, t)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].UpdatedAt.Before(matched[j].UpdatedAt) })
	ids := make([]string, len(matched))
	for i, t := range matched {
		ids[i] = t.ChatID
	}
	return ids, nil
}

// countLocked counts matching bookings; the caller holds s.mu.
func (s *InMemoryStore) countLocked(filter models.BookingFilter) int {
	n := 0
	for _, b := range s.bookings {
		if filter.Matches(b) {
			n++
		}
	}
	return n
}

func filterFor(b models.BookingRecord) models.BookingFilter {
	return models.BookingFilter{
		TenantCode:  b.TenantCode,
		Service:     b.SelectedService,
		ServiceDate: b.ServiceDate,
		TimeSlot:    b.TimeSlot,
	}
}

func (s *InMemoryStore) CreateBookingIfAvailable(ctx context.Context, b models.BookingRecord, capacity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countLocked(filterFor(b)) >= capacity {
		return models.ErrSlotUnavailable
	}
	s.bookings[b.ID] = b
	return nil
}

func (s *InMemoryStore) RescheduleBookingIfAvailable(ctx context.Context, b models.BookingRecord, capacity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[b.ID]; !ok {
		return models.ErrBookingNotFound
	}
	filter := filterFor(b)
	filter.ExcludeID = b.ID
	if s.countLocked(filter) >= capacity {
		return models.ErrSlotUnavailable
	}
	s.bookings[b.ID] = b
	return nil
}

func (s *InMemoryStore) GetBooking(ctx context.Context, id string) (*models.BookingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, models.ErrBookingNotFound
	}
	return &b, nil
}

func (s *InMemoryStore) UpdateBooking(ctx context.Context, b models.BookingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[b.ID]; !ok {
		return models.ErrBookingNotFound
	}
	s.bookings[b.ID] = b
	return nil
}

func (s *InMemoryStore) DeleteBooking(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[id]; !ok {
		return models.ErrBookingNotFound
	}
	delete(s.bookings, id)
	return nil
}

func (s *InMemoryStore) CountBookings(ctx context.Context, filter models.BookingFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countLocked(filter), nil
}

func (s *InMemoryStore) BookedSlotCounts(ctx context.Context, tenantCode, service, serviceDate string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	filter := models.BookingFilter{TenantCode: tenantCode, Service: service, ServiceDate: serviceDate}
	counts := make(map[string]int)
	for _, b := range s.bookings {
		if b.TimeSlot != "" && filter.Matches(b) {
			counts[b.TimeSlot]++
		}
	}
	return counts, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
