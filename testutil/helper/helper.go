package helper

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// GivenUniqueID generates a unique UUID for testing.
// V7 is used so IDs generated in sequence also sort in creation order.
func GivenUniqueID(t testing.TB) uuid.UUID {
	id, err := uuid.NewV7()
	assert.NoError(t, err, "error in arranging test data")

	return id
}

// FixedClock is a circulation.Clock implementation that always returns the
// same instant, which can be advanced explicitly from a test.
type FixedClock struct {
	now time.Time
}

// NewFixedClock creates a FixedClock pinned to the given instant.
func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: now}
}

// Now implements circulation.Clock.
func (c *FixedClock) Now() time.Time {
	return c.now
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
