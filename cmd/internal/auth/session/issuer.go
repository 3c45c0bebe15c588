package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// DefaultTokenBytes is the entropy of an issued token (256 bits).
const DefaultTokenBytes = 32

// Issuer mints session tokens and registers them in a Store.
type Issuer struct {
	store  Store
	nBytes int
}

// NewIssuer constructs an Issuer. nBytes <= 0 selects DefaultTokenBytes;
// values under 32 are rejected.
func NewIssuer(store Store, nBytes int) (*Issuer, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if nBytes <= 0 {
		nBytes = DefaultTokenBytes
	}
	if nBytes < DefaultTokenBytes {
		return nil, fmt.Errorf("%w: token bytes %d < %d", ErrConfig, nBytes, DefaultTokenBytes)
	}
	return &Issuer{store: store, nBytes: nBytes}, nil
}

// Issue returns a fresh token that the store already recognizes.
// Uniqueness is not checked; collisions are negligible at this width.
func (i *Issuer) Issue() (string, error) {
	b := make([]byte, i.nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session: token entropy: %w", err)
	}

	// URL-safe, no padding.
	tok := base64.RawURLEncoding.EncodeToString(b)

	i.store.Insert(tok)
	return tok, nil
}
