package clock

import (
	"sync"
	"time"
)

// Manual is a clock that only moves when told to. Safe for concurrent use.
type Manual struct {
	now time.Duration
	mu  sync.Mutex
}

// NewManual creates a manual clock reading zero.
func NewManual() *Manual {
	return &Manual{}
}

// Now returns the current reading.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d. Negative values are ignored.
func (m *Manual) Advance(d time.Duration) {
	if d < 0 {
		return
	}
	m.mu.Lock()
	m.now += d
	m.mu.Unlock()
}

// Set moves the clock to d if d is not earlier than the current reading.
func (m *Manual) Set(d time.Duration) {
	m.mu.Lock()
	if d > m.now {
		m.now = d
	}
	m.mu.Unlock()
}
