// Package session implements the gate's server-side session state.
//
// A session is an opaque random token (32 bytes, base64url, no padding) handed
// to the browser as a cookie. The server keeps only the token's digest in an
// in-memory set; a token is valid exactly when its digest is present.
//
// Limitations kept on purpose:
// - No expiry and no revocation: a token stays valid until the process restarts.
// - No eviction: the set grows by one entry per successful credential check.
// - No persistence or sharing between instances.
//
// Transport (cookie/header) concerns live in the gate package.
package session
