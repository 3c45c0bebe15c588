// Package token provides session-token digest primitives for gqlgate.
//
// It is the single source of truth for how session tokens are keyed server-side.
//
// Design goals:
// - Default mode: SHA-256(token) when no HMAC key is configured.
// - Keyed mode: HMAC-SHA256(token, key) when TOKEN_HMAC_KEY is set.
// - Stable 64-char hex output usable as a map key.
//
// The digest only keys the in-memory session set; plaintext tokens never sit in the store.
package token
