package invitecode

import (
	"strings"
	"testing"
)

func TestNewLengthAndCharset(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := New()
		if err != nil {
			t.Fatalf("New() error: %v", err)
		}
		if len(code) != Length {
			t.Fatalf("len(code) = %d, want %d", len(code), Length)
		}
		for _, r := range code {
			if !strings.ContainsRune(alphabet, r) {
				t.Fatalf("code %q contains %q outside [A-Za-z0-9]", code, r)
			}
		}
	}
}

func TestNewDoesNotRepeat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code, err := New()
		if err != nil {
			t.Fatalf("New() error: %v", err)
		}
		if seen[code] {
			t.Fatalf("duplicate code %q after %d draws", code, i)
		}
		seen[code] = true
	}
}
