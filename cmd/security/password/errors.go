package password

import "errors"

// Public, stable errors for callers.
var (
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
	ErrWeakPassword     = errors.New("weak password")
	ErrInvalidHash      = errors.New("invalid password hash")

	// ErrVerificationUnavailable is returned when no secret is configured.
	// Callers must treat it as a failed check, never as a pass.
	ErrVerificationUnavailable = errors.New("verification unavailable")

	// ErrConfig is returned for out-of-range cost or policy settings.
	ErrConfig = errors.New("invalid password config")
)
