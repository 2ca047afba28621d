package circulation

import (
	"time"
)

// Instead of implementing full value objects, I'm using some alias types and helper methods here ...

// CancellationReasonString represents the reason a reservation was cancelled
type CancellationReasonString = string

// OccurredAt represents when a lifecycle transition happened
type OccurredAt = time.Time

// ToOccurredAt converts a time to OccurredAt with UTC normalization and microsecond precision
func ToOccurredAt(t time.Time) OccurredAt {
	return t.UTC().Truncate(time.Microsecond)
}
