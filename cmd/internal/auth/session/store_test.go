package session

import (
	"strconv"
	"strings"
	"sync"
	"testing"

	"gqlgate/cmd/security/token"
)

func TestMemoryStore_ContainsOnlyInserted(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(token.Hasher{})

	for _, tok := range []string{"", "a", "never-inserted", "tok-1 "} {
		if s.Contains(tok) {
			t.Fatalf("Contains(%q) on empty store must be false", tok)
		}
	}

	s.Insert("tok-1")
	if !s.Contains("tok-1") {
		t.Fatalf("expected inserted token to be present")
	}
	if s.Contains("tok-1 ") || s.Contains("TOK-1") || s.Contains("tok-2") {
		t.Fatalf("membership must be exact")
	}

	s.Insert("tok-1")
	s.Insert("")
	if got := s.Len(); got != 1 {
		t.Fatalf("Len()=%d want=1", got)
	}
}

func TestMemoryStore_HMACKeyedDigest(t *testing.T) {
	t.Parallel()

	h, err := token.NewHasher(strings.Repeat("x", token.MinHMACKeyBytes))
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	s := NewMemoryStore(h)
	s.Insert("tok")

	if !s.Contains("tok") {
		t.Fatalf("keyed store must recognize inserted token")
	}
	s.mu.RLock()
	_, plain := s.tokens["tok"]
	_, sha := s.tokens[token.HashSHA256Hex("tok")]
	s.mu.RUnlock()
	if plain || sha {
		t.Fatalf("store must key by HMAC digest only")
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(token.Hasher{})

	const workers = 16
	const perWorker = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				tok := strconv.Itoa(w) + "-" + strconv.Itoa(i)
				s.Insert(tok)
				if !s.Contains(tok) {
					t.Errorf("token %q missing right after insert", tok)
					return
				}
				_ = s.Contains("absent-" + tok)
			}
		}(w)
	}
	wg.Wait()

	if got := s.Len(); got != workers*perWorker {
		t.Fatalf("Len()=%d want=%d", got, workers*perWorker)
	}
}
