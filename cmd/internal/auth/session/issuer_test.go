package session

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"gqlgate/cmd/security/token"
)

func TestIssuer_IssueRegistersBeforeReturn(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(token.Hasher{})
	iss, err := NewIssuer(store, 0)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}

	seen := make(map[string]struct{})
	for i := 0; i < 64; i++ {
		tok, err := iss.Issue()
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		if !store.Contains(tok) {
			t.Fatalf("issued token not in store")
		}
		if _, dup := seen[tok]; dup {
			t.Fatalf("duplicate token %q", tok)
		}
		seen[tok] = struct{}{}
	}

	// Earlier tokens stay valid: no implicit expiry.
	for tok := range seen {
		if !store.Contains(tok) {
			t.Fatalf("token %q dropped from store", tok)
		}
	}
}

func TestIssuer_TokenShape(t *testing.T) {
	t.Parallel()

	iss, err := NewIssuer(NewMemoryStore(token.Hasher{}), DefaultTokenBytes)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	tok, err := iss.Issue()
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// 32 bytes -> 43 base64url chars without padding.
	if len(tok) != 43 {
		t.Fatalf("token length=%d want=43", len(tok))
	}
	if strings.ContainsAny(tok, "+/=") {
		t.Fatalf("token must be URL-safe and unpadded: %q", tok)
	}
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != DefaultTokenBytes {
		t.Fatalf("decode: len=%d err=%v", len(raw), err)
	}
}

func TestNewIssuer_Validation(t *testing.T) {
	t.Parallel()

	if _, err := NewIssuer(nil, 0); !errors.Is(err, ErrNilStore) {
		t.Fatalf("expected ErrNilStore, got %v", err)
	}
	if _, err := NewIssuer(NewMemoryStore(token.Hasher{}), 16); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}
