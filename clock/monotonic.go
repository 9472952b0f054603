package clock

import (
	"time"
)

// Monotonic reports the elapsed time since an arbitrary, fixed origin.
type Monotonic interface {
	Now() time.Duration
}

type systemClock struct {
	origin time.Time
}

var system = NewSystem()

// System returns the process-wide system monotonic clock.
func System() Monotonic {
	return system
}

// NewSystem creates a system monotonic clock whose origin is the moment of the call.
func NewSystem() Monotonic {
	return &systemClock{origin: time.Now()}
}

// Now returns the time elapsed since the clock's origin.
func (c *systemClock) Now() time.Duration {
	return time.Since(c.origin)
}

// Resolution returns the clock's tick length.
func (c *systemClock) Resolution() time.Duration {
	return time.Nanosecond
}

// Since returns the time elapsed on c since start, a previous reading of c.
func Since(c Monotonic, start time.Duration) time.Duration {
	return c.Now() - start
}

// Seconds converts a duration to floating point seconds.
func Seconds(d time.Duration) float64 {
	return d.Seconds()
}
