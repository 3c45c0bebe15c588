package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// MinHMACKeyBytes is the minimum accepted HMAC key size.
const MinHMACKeyBytes = 32

// HashSHA256Hex returns a SHA-256 hex digest of s.
func HashSHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HashHMACSHA256Hex returns an HMAC-SHA256 hex digest of s using key.
func HashHMACSHA256Hex(s string, key []byte) string {
	m := hmac.New(sha256.New, key)
	_, _ = m.Write([]byte(s))
	return hex.EncodeToString(m.Sum(nil))
}

// Hasher digests session tokens. The zero value hashes with plain SHA-256.
type Hasher struct {
	key []byte
}

// NewHasher returns a Hasher for the given raw key.
// A blank key selects SHA-256 mode; a non-blank key shorter than MinHMACKeyBytes is rejected.
func NewHasher(rawKey string) (Hasher, error) {
	raw := strings.TrimSpace(rawKey)
	if raw == "" {
		return Hasher{}, nil
	}
	// Measured in bytes, not runes: the key is used as raw bytes.
	if len(raw) < MinHMACKeyBytes {
		return Hasher{}, ErrHMACKeyTooShort
	}
	return Hasher{key: []byte(raw)}, nil
}

// Keyed reports whether the hasher is in HMAC mode.
func (h Hasher) Keyed() bool { return len(h.key) > 0 }

// Hex returns the 64-char hex digest of tok.
func (h Hasher) Hex(tok string) string {
	if len(h.key) == 0 {
		return HashSHA256Hex(tok)
	}
	return HashHMACSHA256Hex(tok, h.key)
}
