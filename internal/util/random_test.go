package util

import (
	"strings"
	"testing"
)

func TestGenerateRandomID(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		alphabet string
		length   int
		wantLen  int
	}{
		{"hex", "x_", "0123456789abcdef", 16, 18},
		{"zero length", "x_", "abc", 0, 2},
		{"empty alphabet", "x_", "", 5, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateRandomID(tt.prefix, tt.alphabet, tt.length)
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
			if len(got) != tt.wantLen {
				t.Errorf("expected length %d, got %d (%q)", tt.wantLen, len(got), got)
			}
			for _, c := range got[len(tt.prefix):] {
				if !strings.ContainsRune(tt.alphabet, c) {
					t.Errorf("character %q not in alphabet %q", c, tt.alphabet)
				}
			}
		})
	}
}

func TestGenerateBookingReference(t *testing.T) {
	ref := GenerateBookingReference()
	if !strings.HasPrefix(ref, "BK-") || len(ref) != 11 {
		t.Fatalf("unexpected reference %q", ref)
	}
	if strings.ContainsAny(ref[3:], "01IO") {
		t.Errorf("reference %q contains ambiguous characters", ref)
	}
}

func TestBookingReferenceUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		ref := GenerateBookingReference()
		if seen[ref] {
			t.Fatalf("duplicate reference %q after %d draws", ref, i)
		}
		seen[ref] = true
	}
}
