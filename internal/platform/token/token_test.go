package token

import (
	"encoding/base64"
	"testing"
)

func TestNew_LengthAndAlphabet(t *testing.T) {
	tok, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tok) != 22 {
		t.Errorf("expected 22 chars, got %d (%q)", len(tok), tok)
	}
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		t.Fatalf("token is not base64url: %v", err)
	}
	if len(raw) != Bytes {
		t.Errorf("expected %d bytes, got %d", Bytes, len(raw))
	}
}

func TestNew_Unique(t *testing.T) {
	seen := make(map[string]bool, 1000)
	for i := 0; i < 1000; i++ {
		tok, err := New()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if seen[tok] {
			t.Fatalf("duplicate token %q", tok)
		}
		seen[tok] = true
	}
}
