package utils

import "testing"

func TestRandomHex(t *testing.T) {
	a, b := RandomHex(8), RandomHex(8)
	if len(a) != 16 || len(b) != 16 {
		t.Fatalf("expected 16 hex chars, got %q and %q", a, b)
	}
	if a == b {
		t.Fatalf("expected distinct ids")
	}
}
