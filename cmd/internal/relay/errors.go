package relay

import "errors"

var (
	// ErrConfig reports an unusable relay configuration.
	ErrConfig = errors.New("relay: invalid config")

	// ErrGatewayClosed is returned for upgrade attempts after Close.
	ErrGatewayClosed = errors.New("relay: gateway closed")
)
