package store

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/BTreeMap/SiteBot/internal/models"
)

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// identity leaves '?' placeholders untouched (SQLite).
func identity(query string) string {
	return query
}

// rebindDollar rewrites '?' placeholders as $1, $2, ... (PostgreSQL).
func rebindDollar(query string) string {
	var sb strings.Builder
	sb.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// scanBookingRow scans a BookingRecord from a single sql.Row.
func scanBookingRow(row *sql.Row) (models.BookingRecord, error) {
	var b models.BookingRecord
	var email, category, address, chatID, cancelReason sql.NullString
	var status string
	err := row.Scan(
		&b.ID, &b.Name, &b.Phone, &email, &category, &b.SelectedService, &address,
		&b.ServiceDate, &b.TimeSlot, &b.TenantCode, &chatID, &status, &cancelReason, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return b, err
	}
	b.Email = email.String
	b.SelectedCategory = category.String
	b.Address = address.String
	b.ChatID = chatID.String
	b.Status = models.BookingStatus(status)
	b.CancelReason = cancelReason.String
	return b, nil
}
