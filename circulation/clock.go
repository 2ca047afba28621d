package circulation

import (
	"time"
)

// Clock supplies the current time to components that advance time-dependent
// state. Injecting it keeps the lifecycle logic deterministic under test.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// NewSystemClock returns a Clock backed by time.Now.
func NewSystemClock() Clock {
	return systemClock{}
}
