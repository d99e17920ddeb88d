// Package validation implements the per-field input validators used by the flow engine.
//
// Every validator is a pure predicate over a raw input string and an optional
// tenant-configured rule. Callers pick the user-facing message: a step's
// configured error message wins over DefaultMessage.
package validation

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BTreeMap/SiteBot/internal/models"
)

// DateLayout is the canonical date format stored on bookings.
const DateLayout = "2006-01-02"

var (
	emailRegex      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRegex      = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	phoneStripRegex = regexp.MustCompile(`[\s()\-]`)
)

// dateLayouts are tried in order when parsing a date answer.
var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"Mon Jan 2 2006",
}

// Default user-facing messages per field type.
const (
	MsgRequired = "This field is required."
	MsgText     = "Please enter a valid response."
	MsgEmail    = "Please enter a valid email address."
	MsgPhone    = "Please enter a valid phone number (10-15 digits)."
	MsgDate     = "Please enter a valid date."
	MsgNumber   = "Please enter a valid number."
)

func isBlank(value string) bool {
	return strings.TrimSpace(value) == ""
}

// emptyAllowed handles the shared required/empty rule. The second result
// reports whether the caller should stop and return the first.
func emptyAllowed(value string, rule *models.ValidationRule) (bool, bool) {
	if !isBlank(value) {
		return false, false
	}
	if rule != nil && rule.Required {
		return false, true
	}
	return true, true
}

// Text validates free text. Without a rule everything passes. An invalid
// pattern is logged and skipped.
func Text(value string, rule *models.ValidationRule) bool {
	if rule == nil {
		return true
	}
	if ok, done := emptyAllowed(value, rule); done {
		return ok
	}
	if rule.Pattern == "" {
		return true
	}
	re, err := regexp.Compile(rule.Pattern)
	if err != nil {
		slog.Warn("validation.Text: invalid pattern, skipping check", "pattern", rule.Pattern, "error", err)
		return true
	}
	return re.MatchString(value)
}

// Email validates an email address.
func Email(value string, rule *models.ValidationRule) bool {
	if ok, done := emptyAllowed(value, rule); done {
		return ok
	}
	return emailRegex.MatchString(strings.TrimSpace(value))
}

// NormalizePhone strips spaces, parentheses and hyphens.
func NormalizePhone(value string) string {
	return phoneStripRegex.ReplaceAllString(strings.TrimSpace(value), "")
}

// Phone validates a phone number of 10 to 15 digits with an optional leading plus.
func Phone(value string, rule *models.ValidationRule) bool {
	if ok, done := emptyAllowed(value, rule); done {
		return ok
	}
	return phoneRegex.MatchString(NormalizePhone(value))
}

// ParseDate parses a date answer using the accepted layouts.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Date validates that the value is a real calendar date.
func Date(value string, rule *models.ValidationRule) bool {
	if ok, done := emptyAllowed(value, rule); done {
		return ok
	}
	_, err := ParseDate(value)
	return err == nil
}

// Number validates a numeric answer and then applies the text rule.
func Number(value string, rule *models.ValidationRule) bool {
	if ok, done := emptyAllowed(value, rule); done {
		return ok
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err != nil {
		return false
	}
	return Text(value, rule)
}

// Validate dispatches to the validator for a step type. Types without a
// dedicated validator use Text.
func Validate(stepType models.StepType, value string, rule *models.ValidationRule) bool {
	switch stepType {
	case models.StepTypeEmail:
		return Email(value, rule)
	case models.StepTypePhone:
		return Phone(value, rule)
	case models.StepTypeDate:
		return Date(value, rule)
	case models.StepTypeNumber:
		return Number(value, rule)
	default:
		return Text(value, rule)
	}
}

// ValidateField applies the validator for a booking field type.
func ValidateField(field models.FieldType, value string, rule *models.ValidationRule) bool {
	switch field {
	case models.FieldEmail:
		return Email(value, rule)
	case models.FieldPhone:
		return Phone(value, rule)
	case models.FieldDate:
		return Date(value, rule)
	default:
		return Text(value, rule)
	}
}

// DefaultMessage returns the generic error text for a step type.
func DefaultMessage(stepType models.StepType) string {
	switch stepType {
	case models.StepTypeEmail:
		return MsgEmail
	case models.StepTypePhone:
		return MsgPhone
	case models.StepTypeDate:
		return MsgDate
	case models.StepTypeNumber:
		return MsgNumber
	default:
		return MsgText
	}
}

// Message selects the user-facing error for a failed step.
func Message(step *models.Step) string {
	if step.Validation != nil && step.Validation.ErrorMessage != "" {
		return step.Validation.ErrorMessage
	}
	return DefaultMessage(step.Type)
}

// NotBefore reports whether the date answer is on or after the day of now.
func NotBefore(value string, now time.Time) bool {
	d, err := ParseDate(value)
	if err != nil {
		return false
	}
	y, m, day := now.Date()
	today := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	dy, dm, dd := d.Date()
	return !time.Date(dy, dm, dd, 0, 0, 0, 0, time.UTC).Before(today)
}

// CanonicalDate formats a date answer as DateLayout, or returns it unchanged
// when it cannot be parsed.
func CanonicalDate(value string) string {
	d, err := ParseDate(value)
	if err != nil {
		return strings.TrimSpace(value)
	}
	return d.Format(DateLayout)
}
