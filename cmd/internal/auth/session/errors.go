package session

import "errors"

var (
	// ErrNilStore is returned when an Issuer is built without a store.
	ErrNilStore = errors.New("session: nil store")

	// ErrConfig is returned for invalid issuer configuration.
	ErrConfig = errors.New("session: invalid config")
)
