package validation

import (
	"testing"
	"time"

	"github.com/BTreeMap/SiteBot/internal/models"
)

func TestText(t *testing.T) {
	required := &models.ValidationRule{Required: true}
	optional := &models.ValidationRule{Required: false, Pattern: `^[A-Z]`}
	badPattern := &models.ValidationRule{Pattern: `([`}

	tests := []struct {
		name  string
		value string
		rule  *models.ValidationRule
		want  bool
	}{
		{"no rule", "", nil, true},
		{"required blank", "   ", required, false},
		{"required present", "Sam", required, true},
		{"optional empty skips pattern", "", optional, true},
		{"pattern match", "Sam", optional, true},
		{"pattern mismatch", "sam", optional, false},
		{"invalid pattern skipped", "anything", badPattern, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.value, tt.rule); got != tt.want {
				t.Errorf("Text(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestEmail(t *testing.T) {
	tests := []struct {
		value string
		rule  *models.ValidationRule
		want  bool
	}{
		{"user@example.com", nil, true},
		{"user@example", nil, false},
		{"user example@x.com", nil, false},
		{"", nil, true},
		{"", &models.ValidationRule{Required: true}, false},
	}
	for _, tt := range tests {
		if got := Email(tt.value, tt.rule); got != tt.want {
			t.Errorf("Email(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"9876543210", true},
		{"+44 (20) 7946-0958", true},
		{"12345", false},
		{"98765abc10", false},
		{"1234567890123456", false},
		{"", true},
	}
	for _, tt := range tests {
		if got := Phone(tt.value, nil); got != tt.want {
			t.Errorf("Phone(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
	if Phone("", &models.ValidationRule{Required: true}) {
		t.Error("required empty phone should be invalid")
	}
}

func TestDate(t *testing.T) {
	valid := []string{"2030-02-28", "02/28/2030", "February 28, 2030", "2030-02-28T10:00:00Z"}
	for _, v := range valid {
		if !Date(v, nil) {
			t.Errorf("Date(%q) should be valid", v)
		}
	}
	invalid := []string{"2030-02-30", "tomorrow", "31/31/2030"}
	for _, v := range invalid {
		if Date(v, nil) {
			t.Errorf("Date(%q) should be invalid", v)
		}
	}
}

func TestNumber(t *testing.T) {
	if !Number("42", nil) || !Number("3.5", nil) {
		t.Error("numeric values should pass")
	}
	if Number("forty", nil) {
		t.Error("non-numeric value should fail")
	}
	if !Number("", nil) {
		t.Error("empty optional number should pass")
	}
}

func TestValidateDispatch(t *testing.T) {
	if Validate(models.StepTypePhone, "12345", nil) {
		t.Error("phone step should use phone validator")
	}
	if !Validate(models.StepTypeAddress, "12345", nil) {
		t.Error("address step without rule should pass")
	}
	if Validate(models.StepTypeEmail, "nope", nil) {
		t.Error("email step should use email validator")
	}
}

func TestMessagePrecedence(t *testing.T) {
	step := &models.Step{Type: models.StepTypePhone, Validation: &models.ValidationRule{ErrorMessage: "Bad phone"}}
	if got := Message(step); got != "Bad phone" {
		t.Errorf("expected configured message, got %q", got)
	}
	step.Validation.ErrorMessage = ""
	if got := Message(step); got != MsgPhone {
		t.Errorf("expected default phone message, got %q", got)
	}
}

func TestNotBefore(t *testing.T) {
	now := time.Date(2030, 5, 10, 15, 0, 0, 0, time.UTC)
	if !NotBefore("2030-05-10", now) {
		t.Error("today should be allowed")
	}
	if !NotBefore("2030-05-11", now) {
		t.Error("future date should be allowed")
	}
	if NotBefore("2030-05-09", now) {
		t.Error("past date should be rejected")
	}
	if NotBefore("garbage", now) {
		t.Error("unparseable date should be rejected")
	}
}

func TestCanonicalDate(t *testing.T) {
	if got := CanonicalDate("05/10/2030"); got != "2030-05-10" {
		t.Errorf("CanonicalDate = %q", got)
	}
	if got := CanonicalDate(" soon "); got != "soon" {
		t.Errorf("CanonicalDate should trim unparseable input, got %q", got)
	}
}
