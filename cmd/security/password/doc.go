// Package password verifies the gate password and hashes it for storage.
//
// It implements Argon2id hashing using a PHC-like encoded string format and includes:
// - Configurable Argon2id parameters (via environment variables)
// - Password policy validation for newly hashed secrets
// - Strict hash decoding and verification with anti-DoS bounds
// - Verifier, the credential check used by the auth gate
//
// Security notes:
// - Hash strings are treated as untrusted input during Verify and are validated accordingly.
// - Verification refuses hashes with parameters that exceed reasonable bounds.
// - A plain configured secret is compared in constant time.
package password
