package token

import (
	"strings"
	"testing"
)

func TestHashSHA256Hex_KnownVector(t *testing.T) {
	t.Parallel()

	got := HashSHA256Hex("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Fatalf("HashSHA256Hex(abc)=%q want=%q", got, want)
	}
}

func TestNewHasher_Modes(t *testing.T) {
	t.Parallel()

	h, err := NewHasher("   ")
	if err != nil {
		t.Fatalf("NewHasher(blank): %v", err)
	}
	if h.Keyed() {
		t.Fatalf("blank key must select sha256 mode")
	}
	if h.Hex("tok") != HashSHA256Hex("tok") {
		t.Fatalf("sha256 mode digest mismatch")
	}

	if _, err := NewHasher("short"); err != ErrHMACKeyTooShort {
		t.Fatalf("expected ErrHMACKeyTooShort, got %v", err)
	}

	key := strings.Repeat("k", MinHMACKeyBytes)
	h, err = NewHasher(key)
	if err != nil {
		t.Fatalf("NewHasher(key): %v", err)
	}
	if !h.Keyed() {
		t.Fatalf("expected keyed hasher")
	}
	if got, want := h.Hex("tok"), HashHMACSHA256Hex("tok", []byte(key)); got != want {
		t.Fatalf("hmac digest=%q want=%q", got, want)
	}
	if h.Hex("tok") == HashSHA256Hex("tok") {
		t.Fatalf("hmac digest must differ from plain sha256")
	}
	if len(h.Hex("tok")) != 64 {
		t.Fatalf("expected 64 hex chars")
	}
}
