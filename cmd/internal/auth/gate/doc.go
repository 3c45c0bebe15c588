// Package gate is the request interceptor that guards every route.
//
// Order of evaluation per request:
//  1. allow-listed path prefix (static assets, probes): pass through.
//  2. auth_token cookie present in the session store: pass through.
//  3. valid Basic credentials: issue a token, set the cookie, pass through.
//  4. otherwise: 401 with a Basic challenge so browsers show their native prompt.
//
// Malformed Authorization headers are indistinguishable from wrong credentials.
package gate
