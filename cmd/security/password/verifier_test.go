package password

import (
	"errors"
	"testing"
)

func TestVerifier_PlainSecret(t *testing.T) {
	t.Parallel()

	v, err := NewVerifier("s3cret:with:colons", "", DefaultConfig())
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}

	cases := []struct {
		user string
		pass string
		want bool
	}{
		{user: "", pass: "s3cret:with:colons", want: true},
		{user: "admin", pass: "s3cret:with:colons", want: true},
		{user: "anyone at all", pass: "s3cret:with:colons", want: true},
		{user: "admin", pass: "s3cret", want: false},
		{user: "admin", pass: "S3CRET:WITH:COLONS", want: false},
		{user: "admin", pass: "s3cret:with:colons ", want: false},
		{user: "admin", pass: "", want: false},
	}
	for _, tc := range cases {
		got, err := v.Verify(tc.user, tc.pass)
		if err != nil {
			t.Fatalf("Verify(%q,%q): %v", tc.user, tc.pass, err)
		}
		if got != tc.want {
			t.Fatalf("Verify(%q,%q)=%v want=%v", tc.user, tc.pass, got, tc.want)
		}
	}
}

func TestVerifier_Unavailable(t *testing.T) {
	t.Parallel()

	v, err := NewVerifier("", "  ", DefaultConfig())
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	if v.Available() {
		t.Fatalf("expected unavailable verifier")
	}

	ok, err := v.Verify("admin", "")
	if !errors.Is(err, ErrVerificationUnavailable) {
		t.Fatalf("expected ErrVerificationUnavailable, got %v", err)
	}
	if ok {
		t.Fatalf("unavailable verifier must never pass")
	}

	var nilVerifier *Verifier
	if ok, err := nilVerifier.Verify("a", "b"); ok || !errors.Is(err, ErrVerificationUnavailable) {
		t.Fatalf("nil verifier: ok=%v err=%v", ok, err)
	}
}

func TestVerifier_Hash(t *testing.T) {
	t.Parallel()

	cfg := fastConfig()
	h, err := cfg.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	v, err := NewVerifier("ignored-when-hash-set", h, cfg)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	if !v.Hashed() {
		t.Fatalf("expected hashed verifier")
	}

	if ok, err := v.Verify("x", "correct horse battery staple"); err != nil || !ok {
		t.Fatalf("expected match, ok=%v err=%v", ok, err)
	}
	if ok, err := v.Verify("x", "ignored-when-hash-set"); err != nil || ok {
		t.Fatalf("plain secret must not be consulted when hash is set, ok=%v err=%v", ok, err)
	}
}

func TestNewVerifier_BadHash(t *testing.T) {
	t.Parallel()

	if _, err := NewVerifier("", "$argon2id$nope", DefaultConfig()); !errors.Is(err, ErrInvalidHash) {
		t.Fatalf("expected ErrInvalidHash, got %v", err)
	}
}
