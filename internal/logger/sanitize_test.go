package logger

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitizeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		in        string
		maxLength int
		want      string
	}{
		{"empty", "", 10, ""},
		{"plain", "/api/v1/tasks", 0, "/api/v1/tasks"},
		{"control characters removed", "a\x00b\x1bc", 10, "abc"},
		{"whitespace kept", "a\tb\nc", 10, "a\tb\nc"},
		{"invalid utf8 repaired", "ok\xffok", 10, "okok"},
		{"truncated", "abcdefghij", 4, "abcd..."},
		{"truncation keeps utf8 valid", "ééé", 3, "é..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeString(tt.in, tt.maxLength); got != tt.want {
				t.Errorf("SanitizeString(%q, %d) = %q, want %q", tt.in, tt.maxLength, got, tt.want)
			}
		})
	}
}

func TestSanitizePath_Truncates(t *testing.T) {
	t.Parallel()

	got := SanitizePath("/" + strings.Repeat("a", MaxPathLength*2))
	if len(got) != MaxPathLength+3 {
		t.Errorf("len = %d, want %d", len(got), MaxPathLength+3)
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	if got := SanitizeError(nil); got != "" {
		t.Errorf("SanitizeError(nil) = %q", got)
	}
	if got := SanitizeError(errors.New("bad\x07 thing")); got != "bad thing" {
		t.Errorf("SanitizeError() = %q", got)
	}
}

func TestNewProductionLogger(t *testing.T) {
	t.Parallel()

	for _, debug := range []bool{false, true} {
		l, err := NewProductionLogger("test", debug)
		if err != nil {
			t.Fatalf("NewProductionLogger(%v) error = %v", debug, err)
		}
		if got := l.Core().Enabled(level(true)); got != debug {
			t.Errorf("debug enabled = %v, want %v", got, debug)
		}
	}
}
