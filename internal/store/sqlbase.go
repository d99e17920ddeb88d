// This file holds the SQL implementation shared by the SQLite and PostgreSQL stores.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BTreeMap/SiteBot/internal/models"
)

// sqlStore holds the queries common to both SQL dialects. Queries are written
// with '?' placeholders and rebound for the target driver.
type sqlStore struct {
	db   *sql.DB
	name string
	// rebind converts '?' placeholders for the driver.
	rebind func(query string) string
	// lockSlot serializes capacity-checked writes for one service day inside tx.
	// Nil when the driver already serializes writers.
	lockSlot func(ctx context.Context, tx *sql.Tx, key string) error
}

func applyOpts(opts []Option) Opts {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// openDB connects, applies pool settings, verifies the connection and runs
// the embedded schema. The schema is idempotent and runs on every start.
func openDB(name, driver, dsn, migrations string, configure func(*sql.DB)) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		slog.Error(name+": open failed", "error", err)
		return nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}
	if configure != nil {
		configure(db)
	}
	if err := db.Ping(); err != nil {
		slog.Error(name+": ping failed", "error", err)
		db.Close()
		return nil, fmt.Errorf("failed to reach %s: %w", driver, err)
	}
	if _, err := db.Exec(migrations); err != nil {
		slog.Error(name+": migrations failed", "error", err)
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug(name+": ready", "driver", driver)
	return db, nil
}

const bookingColumns = `id, name, phone, email, selected_category, selected_service, address, service_date, time_slot, tenant_code, chat_id, status, cancel_reason, created_at, updated_at`

const countMatchingSQL = `SELECT COUNT(*) FROM bookings
	WHERE tenant_code = ? AND selected_service = ? AND service_date = ? AND status <> 'cancelled'
	AND (CAST(? AS TEXT) = '' OR time_slot = ?) AND id <> ?`

func (s *sqlStore) GetWebsite(ctx context.Context, tenantCode string) (*models.Website, error) {
	var w models.Website
	var logo, hours, phone, email, address sql.NullString
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT tenant_code, title, logo_url, hours, contact_phone, contact_email, address FROM websites WHERE tenant_code = ?`), tenantCode).
		Scan(&w.TenantCode, &w.Title, &logo, &hours, &phone, &email, &address)
	if errors.Is(err, sql.ErrNoRows) {
		slog.Debug(s.name+" GetWebsite not found", "tenantCode", tenantCode)
		return nil, models.ErrTenantNotFound
	}
	if err != nil {
		slog.Error(s.name+" GetWebsite failed", "error", err, "tenantCode", tenantCode)
		return nil, fmt.Errorf("failed to get website %s: %w", tenantCode, err)
	}
	w.LogoURL, w.Hours, w.ContactPhone, w.ContactEmail, w.Address = logo.String, hours.String, phone.String, email.String, address.String
	return &w, nil
}

func (s *sqlStore) SaveWebsite(ctx context.Context, w models.Website) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO websites (tenant_code, title, logo_url, hours, contact_phone, contact_email, address)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tenant_code) DO UPDATE SET title = excluded.title, logo_url = excluded.logo_url, hours = excluded.hours,
		contact_phone = excluded.contact_phone, contact_email = excluded.contact_email, address = excluded.address`),
		w.TenantCode, w.Title, nilIfEmpty(w.LogoURL), nilIfEmpty(w.Hours), nilIfEmpty(w.ContactPhone), nilIfEmpty(w.ContactEmail), nilIfEmpty(w.Address))
	if err != nil {
		slog.Error(s.name+" SaveWebsite failed", "error", err, "tenantCode", w.TenantCode)
		return fmt.Errorf("failed to save website %s: %w", w.TenantCode, err)
	}
	slog.Debug(s.name+" SaveWebsite succeeded", "tenantCode", w.TenantCode)
	return nil
}

func (s *sqlStore) GetServiceCapacity(ctx context.Context, tenantCode, service string) (*models.ServiceCapacity, error) {
	c := models.ServiceCapacity{TenantCode: tenantCode, Service: service}
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT how_many_bookings_allowed FROM service_capacities WHERE tenant_code = ? AND service = ?`), tenantCode, service).
		Scan(&c.HowManyBookingsAllowed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrServiceNotFound
	}
	if err != nil {
		slog.Error(s.name+" GetServiceCapacity failed", "error", err, "tenantCode", tenantCode, "service", service)
		return nil, fmt.Errorf("failed to get capacity for %s/%s: %w", tenantCode, service, err)
	}
	return &c, nil
}

func (s *sqlStore) SaveServiceCapacity(ctx context.Context, c models.ServiceCapacity) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO service_capacities (tenant_code, service, how_many_bookings_allowed) VALUES (?, ?, ?)
		ON CONFLICT (tenant_code, service) DO UPDATE SET how_many_bookings_allowed = excluded.how_many_bookings_allowed`),
		c.TenantCode, c.Service, c.HowManyBookingsAllowed)
	if err != nil {
		slog.Error(s.name+" SaveServiceCapacity failed", "error", err, "tenantCode", c.TenantCode, "service", c.Service)
		return fmt.Errorf("failed to save capacity for %s/%s: %w", c.TenantCode, c.Service, err)
	}
	return nil
}

func (s *sqlStore) GetFlow(ctx context.Context, tenantCode string) (*models.FlowDefinition, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT definition FROM flows WHERE tenant_code = ?`), tenantCode).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrFlowNotFound
	}
	if err != nil {
		slog.Error(s.name+" GetFlow failed", "error", err, "tenantCode", tenantCode)
		return nil, fmt.Errorf("failed to get flow %s: %w", tenantCode, err)
	}
	var def models.FlowDefinition
	if err := json.Unmarshal([]byte(raw), &def); err != nil {
		slog.Error(s.name+" GetFlow JSON unmarshal failed", "error", err, "tenantCode", tenantCode)
		return nil, fmt.Errorf("failed to decode flow %s: %w", tenantCode, err)
	}
	return &def, nil
}

func (s *sqlStore) SaveFlow(ctx context.Context, def models.FlowDefinition) error {
	raw, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to encode flow %s: %w", def.TenantCode, err)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`INSERT INTO flows (tenant_code, definition, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (tenant_code) DO UPDATE SET definition = excluded.definition, updated_at = excluded.updated_at`),
		def.TenantCode, string(raw), time.Now().UTC())
	if err != nil {
		slog.Error(s.name+" SaveFlow failed", "error", err, "tenantCode", def.TenantCode)
		return fmt.Errorf("failed to save flow %s: %w", def.TenantCode, err)
	}
	slog.Debug(s.name+" SaveFlow succeeded", "tenantCode", def.TenantCode, "steps", len(def.Steps))
	return nil
}

func (s *sqlStore) CreateTranscript(ctx context.Context, t models.Transcript) error {
	if t.Status == "" {
		t.Status = models.TranscriptActive
	}
	fields, err := json.Marshal(t.Fields)
	if err != nil {
		return fmt.Errorf("failed to encode transcript fields: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO transcripts (chat_id, session_id, tenant_code, fields, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		t.ChatID, nilIfEmpty(t.SessionID), t.TenantCode, string(fields), string(t.Status), t.CreatedAt, t.UpdatedAt); err != nil {
		slog.Error(s.name+" CreateTranscript failed", "error", err, "chatID", t.ChatID)
		return fmt.Errorf("failed to create transcript %s: %w", t.ChatID, err)
	}
	for _, m := range t.Messages {
		if err := s.insertMessage(ctx, tx, t.ChatID, m); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transcript %s: %w", t.ChatID, err)
	}
	slog.Debug(s.name+" CreateTranscript succeeded", "chatID", t.ChatID, "tenantCode", t.TenantCode)
	return nil
}

func (s *sqlStore) insertMessage(ctx context.Context, tx *sql.Tx, chatID string, m models.TranscriptEntry) error {
	if _, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO transcript_messages (chat_id, sender, message, timestamp) VALUES (?, ?, ?, ?)`),
		chatID, string(m.Sender), m.Message, m.Timestamp); err != nil {
		slog.Error(s.name+" insert message failed", "error", err, "chatID", chatID)
		return fmt.Errorf("failed to append message to %s: %w", chatID, err)
	}
	return nil
}

func (s *sqlStore) AppendMessage(ctx context.Context, chatID string, entry models.TranscriptEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, s.rebind(`UPDATE transcripts SET updated_at = ? WHERE chat_id = ?`), entry.Timestamp, chatID)
	if err != nil {
		slog.Error(s.name+" AppendMessage touch failed", "error", err, "chatID", chatID)
		return fmt.Errorf("failed to update transcript %s: %w", chatID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrTranscriptNotFound
	}
	if err := s.insertMessage(ctx, tx, chatID, entry); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *sqlStore) SetCollectedField(ctx context.Context, chatID string, field models.FieldType, value string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx, s.rebind(`SELECT fields FROM transcripts WHERE chat_id = ?`), chatID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrTranscriptNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read transcript fields %s: %w", chatID, err)
	}
	var fields models.CollectedFields
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			slog.Error(s.name+" SetCollectedField JSON unmarshal failed", "error", err, "chatID", chatID)
			// Continue with empty projection rather than failing
			fields = models.CollectedFields{}
		}
	}
	if !fields.Set(field, value) {
		return nil
	}
	encoded, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode transcript fields: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.rebind(`UPDATE transcripts SET fields = ?, updated_at = ? WHERE chat_id = ?`), string(encoded), time.Now().UTC(), chatID); err != nil {
		slog.Error(s.name+" SetCollectedField failed", "error", err, "chatID", chatID, "field", field)
		return fmt.Errorf("failed to update transcript fields %s: %w", chatID, err)
	}
	return tx.Commit()
}

func (s *sqlStore) SetTranscriptStatus(ctx context.Context, chatID string, status models.TranscriptStatus) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE transcripts SET status = ?, updated_at = ? WHERE chat_id = ? AND status = 'active'`),
		string(status), time.Now().UTC(), chatID)
	if err != nil {
		slog.Error(s.name+" SetTranscriptStatus failed", "error", err, "chatID", chatID, "status", status)
		return fmt.Errorf("failed to set transcript status %s: %w", chatID, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		slog.Debug(s.name+" SetTranscriptStatus succeeded", "chatID", chatID, "status", status)
		return nil
	}
	var exists int
	err = s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM transcripts WHERE chat_id = ?`), chatID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check transcript %s: %w", chatID, err)
	}
	if exists == 0 {
		return models.ErrTranscriptNotFound
	}
	return models.ErrTranscriptFinalized
}

func (s *sqlStore) GetTranscript(ctx context.Context, chatID string) (*models.Transcript, error) {
	var t models.Transcript
	var sessionID sql.NullString
	var fields, status string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT chat_id, session_id, tenant_code, fields, status, created_at, updated_at FROM transcripts WHERE chat_id = ?`), chatID).
		Scan(&t.ChatID, &sessionID, &t.TenantCode, &fields, &status, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrTranscriptNotFound
	}
	if err != nil {
		slog.Error(s.name+" GetTranscript failed", "error", err, "chatID", chatID)
		return nil, fmt.Errorf("failed to get transcript %s: %w", chatID, err)
	}
	t.SessionID = sessionID.String
	t.Status = models.TranscriptStatus(status)
	if fields != "" {
		if err := json.Unmarshal([]byte(fields), &t.Fields); err != nil {
			slog.Error(s.name+" GetTranscript fields unmarshal failed", "error", err, "chatID", chatID)
		}
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT sender, message, timestamp FROM transcript_messages WHERE chat_id = ? ORDER BY id`), chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transcript messages %s: %w", chatID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var m models.TranscriptEntry
		var sender string
		if err := rows.Scan(&sender, &m.Message, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan transcript message: %w", err)
		}
		m.Sender = models.Sender(sender)
		t.Messages = append(t.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transcript messages: %w", err)
	}
	return &t, nil
}

func (s *sqlStore) ListTranscriptIDs(ctx context.Context, status models.TranscriptStatus, updatedBefore time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT chat_id FROM transcripts WHERE status = ? AND updated_at < ? ORDER BY updated_at`),
		string(status), updatedBefore.UTC())
	if err != nil {
		slog.Error(s.name+" ListTranscriptIDs failed", "error", err, "status", status)
		return nil, fmt.Errorf("failed to list %s transcripts: %w", status, err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan transcript id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// capacityLockKey names the lock taken around capacity-checked writes. It
// covers the whole service day: a day-level booking counts every slot of
// that day, so slotted and day-level writers must contend for one lock.
func capacityLockKey(b models.BookingRecord) string {
	return b.TenantCode + "|" + b.SelectedService + "|" + b.ServiceDate
}

// withSlotLock runs fn in a transaction that holds the dialect's capacity lock.
func (s *sqlStore) withSlotLock(ctx context.Context, key string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	if s.lockSlot != nil {
		if err := s.lockSlot(ctx, tx, key); err != nil {
			return fmt.Errorf("failed to lock slot %s: %w", key, err)
		}
	}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *sqlStore) CreateBookingIfAvailable(ctx context.Context, b models.BookingRecord, capacity int) error {
	query := `INSERT INTO bookings (` + bookingColumns + `)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		WHERE (` + countMatchingSQL + `) < ?`
	err := s.withSlotLock(ctx, capacityLockKey(b), func(tx *sql.Tx) error {
		args := append(bookingArgs(b), b.TenantCode, b.SelectedService, b.ServiceDate, b.TimeSlot, b.TimeSlot, "", capacity)
		res, err := tx.ExecContext(ctx, s.rebind(query), args...)
		if err != nil {
			return fmt.Errorf("failed to insert booking %s: %w", b.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return models.ErrSlotUnavailable
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrSlotUnavailable) {
			slog.Debug(s.name+" CreateBookingIfAvailable slot full", "tenantCode", b.TenantCode, "service", b.SelectedService, "date", b.ServiceDate)
		} else {
			slog.Error(s.name+" CreateBookingIfAvailable failed", "error", err, "bookingID", b.ID)
		}
		return err
	}
	slog.Debug(s.name+" CreateBookingIfAvailable succeeded", "bookingID", b.ID)
	return nil
}

func (s *sqlStore) RescheduleBookingIfAvailable(ctx context.Context, b models.BookingRecord, capacity int) error {
	query := `UPDATE bookings SET name = ?, phone = ?, email = ?, selected_category = ?, selected_service = ?, address = ?,
		service_date = ?, time_slot = ?, status = ?, cancel_reason = ?, updated_at = ?
		WHERE id = ? AND (` + countMatchingSQL + `) < ?`
	return s.withSlotLock(ctx, capacityLockKey(b), func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.rebind(query),
			b.Name, b.Phone, nilIfEmpty(b.Email), nilIfEmpty(b.SelectedCategory), b.SelectedService, nilIfEmpty(b.Address),
			b.ServiceDate, b.TimeSlot, string(b.Status), nilIfEmpty(b.CancelReason), b.UpdatedAt,
			b.ID, b.TenantCode, b.SelectedService, b.ServiceDate, b.TimeSlot, b.TimeSlot, b.ID, capacity)
		if err != nil {
			slog.Error(s.name+" RescheduleBookingIfAvailable failed", "error", err, "bookingID", b.ID)
			return fmt.Errorf("failed to reschedule booking %s: %w", b.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return nil
		}
		var exists int
		if err := tx.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM bookings WHERE id = ?`), b.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check booking %s: %w", b.ID, err)
		}
		if exists == 0 {
			return models.ErrBookingNotFound
		}
		return models.ErrSlotUnavailable
	})
}

func bookingArgs(b models.BookingRecord) []interface{} {
	return []interface{}{
		b.ID, b.Name, b.Phone, nilIfEmpty(b.Email), nilIfEmpty(b.SelectedCategory), b.SelectedService, nilIfEmpty(b.Address),
		b.ServiceDate, b.TimeSlot, b.TenantCode, nilIfEmpty(b.ChatID), string(b.Status), nilIfEmpty(b.CancelReason), b.CreatedAt, b.UpdatedAt,
	}
}

func (s *sqlStore) GetBooking(ctx context.Context, id string) (*models.BookingRecord, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`), id)
	b, err := scanBookingRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrBookingNotFound
	}
	if err != nil {
		slog.Error(s.name+" GetBooking failed", "error", err, "bookingID", id)
		return nil, fmt.Errorf("failed to get booking %s: %w", id, err)
	}
	return &b, nil
}

func (s *sqlStore) UpdateBooking(ctx context.Context, b models.BookingRecord) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE bookings SET name = ?, phone = ?, email = ?, selected_category = ?, selected_service = ?,
		address = ?, service_date = ?, time_slot = ?, status = ?, cancel_reason = ?, updated_at = ? WHERE id = ?`),
		b.Name, b.Phone, nilIfEmpty(b.Email), nilIfEmpty(b.SelectedCategory), b.SelectedService,
		nilIfEmpty(b.Address), b.ServiceDate, b.TimeSlot, string(b.Status), nilIfEmpty(b.CancelReason), b.UpdatedAt, b.ID)
	if err != nil {
		slog.Error(s.name+" UpdateBooking failed", "error", err, "bookingID", b.ID)
		return fmt.Errorf("failed to update booking %s: %w", b.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrBookingNotFound
	}
	slog.Debug(s.name+" UpdateBooking succeeded", "bookingID", b.ID, "status", b.Status)
	return nil
}

func (s *sqlStore) DeleteBooking(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM bookings WHERE id = ?`), id)
	if err != nil {
		slog.Error(s.name+" DeleteBooking failed", "error", err, "bookingID", id)
		return fmt.Errorf("failed to delete booking %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrBookingNotFound
	}
	return nil
}

func (s *sqlStore) CountBookings(ctx context.Context, f models.BookingFilter) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(countMatchingSQL), f.TenantCode, f.Service, f.ServiceDate, f.TimeSlot, f.TimeSlot, f.ExcludeID).Scan(&n)
	if err != nil {
		slog.Error(s.name+" CountBookings failed", "error", err, "tenantCode", f.TenantCode, "service", f.Service)
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return n, nil
}

func (s *sqlStore) BookedSlotCounts(ctx context.Context, tenantCode, service, serviceDate string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT time_slot, COUNT(*) FROM bookings
		WHERE tenant_code = ? AND selected_service = ? AND service_date = ? AND status <> 'cancelled' AND time_slot <> ''
		GROUP BY time_slot`), tenantCode, service, serviceDate)
	if err != nil {
		slog.Error(s.name+" BookedSlotCounts query failed", "error", err, "tenantCode", tenantCode)
		return nil, fmt.Errorf("failed to query booked slots: %w", err)
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var slot string
		var n int
		if err := rows.Scan(&slot, &n); err != nil {
			return nil, fmt.Errorf("failed to scan booked slot: %w", err)
		}
		counts[slot] = n
	}
	return counts, rows.Err()
}

// Close closes the database connection.
func (s *sqlStore) Close() error {
	slog.Debug("Closing " + s.name + " database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close "+s.name+" database", "error", err)
	}
	return err
}
