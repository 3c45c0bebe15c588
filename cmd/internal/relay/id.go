package relay

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// newSessionID returns a ULID so session log lines sort by start time.
func newSessionID(now time.Time) string {
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return ""
	}
	return id.String()
}
