package password

import (
	"crypto/subtle"
	"fmt"
	"strings"
)

// Verifier judges whether a supplied password matches the configured gate secret.
//
// The secret is either a plain string (AUTH_PASSWORD) or an argon2id hash
// (AUTH_PASSWORD_HASH). When both are set the hash wins.
type Verifier struct {
	secret string
	hash   string
	cfg    Config
}

// NewVerifier builds a Verifier. Blank secret and hash yield a Verifier that
// reports ErrVerificationUnavailable on every call.
// A non-blank hash that cannot be decoded is a configuration error.
func NewVerifier(secret, encodedHash string, cfg Config) (*Verifier, error) {
	encodedHash = strings.TrimSpace(encodedHash)
	if encodedHash != "" {
		if _, err := parsePHC(encodedHash); err != nil {
			return nil, fmt.Errorf("AUTH_PASSWORD_HASH: %w", err)
		}
	}
	return &Verifier{secret: secret, hash: encodedHash, cfg: cfg}, nil
}

// Available reports whether a secret is configured.
func (v *Verifier) Available() bool {
	return v != nil && (v.secret != "" || v.hash != "")
}

// Hashed reports whether verification runs against an argon2id hash.
func (v *Verifier) Hashed() bool {
	return v != nil && v.hash != ""
}

// Verify checks password against the configured secret. The username is
// accepted for interface symmetry with Basic auth and is not consulted.
func (v *Verifier) Verify(_ string, password string) (bool, error) {
	if !v.Available() {
		return false, ErrVerificationUnavailable
	}
	if v.hash != "" {
		return v.cfg.Verify(v.hash, password)
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(v.secret)) == 1, nil
}
